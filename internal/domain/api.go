package domain

// Health is the body of GET /health.
type Health struct {
	Status          string `json:"status"`
	TracksAvailable int    `json:"tracks_available"`
	Mode            string `json:"mode"`
}

// TrackList is the body of GET /tracks.
type TrackList struct {
	Tracks []Track `json:"tracks"`
}
