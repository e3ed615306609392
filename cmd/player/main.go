package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "record-player",
		Usage: "Play lofi tracks from a record-player relay server.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:3000",
				Usage:   "Base URL of the relay server",
				EnvVars: []string{"RECORD_PLAYER_SERVER"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaultTimeout,
				Usage: "Timeout for track, health and listing requests",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log playback state changes",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Pick a track and stream it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the audio to this file instead of discarding it",
					},
					&cli.BoolFlag{
						Name:  "pick",
						Usage: "Choose the track from the server's list instead of a random one",
					},
				},
				Action: playAction,
			},
			{
				Name:   "tracks",
				Usage:  "List every track the server knows about",
				Action: tracksAction,
			},
			{
				Name:   "health",
				Usage:  "Show the server's health report",
				Action: healthAction,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
