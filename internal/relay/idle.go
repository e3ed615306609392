package relay

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// idleReader calls onExpire when no bytes have been read for idle. A zero
// idle disables the watchdog.
type idleReader struct {
	r       io.Reader
	idle    time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleReader(r io.Reader, idle time.Duration, onExpire func()) *idleReader {
	ir := &idleReader{r: r, idle: idle}
	if idle > 0 {
		ir.timer = time.AfterFunc(idle, func() {
			ir.expired.Store(true)
			onExpire()
		})
	}
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	if ir.expired.Load() {
		return 0, ErrIdleTimeout
	}

	n, err := ir.r.Read(p)
	if n > 0 && ir.timer != nil && !ir.expired.Load() {
		ir.timer.Reset(ir.idle)
	}
	if err != nil && err != io.EOF && ir.expired.Load() {
		err = fmt.Errorf("%w: %v", ErrIdleTimeout, err)
	}
	return n, err
}

func (ir *idleReader) Stop() {
	if ir.timer != nil {
		ir.timer.Stop()
	}
}
