package anim

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	channerics "github.com/niceyeti/channerics/channels"
)

// DefaultFrameRate is the number of Step calls per second a Driver makes.
const DefaultFrameRate = 30

// Driver advances an Animator in real time.
type Driver struct {
	animator *Animator
	interval time.Duration
	logger   *log.Logger
}

// NewDriver creates a driver stepping a at fps frames per second.
// Non-positive rates use DefaultFrameRate.
func NewDriver(a *Animator, fps int, logger *log.Logger) *Driver {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "anim",
		})
	}
	return &Driver{
		animator: a,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
	}
}

// Run steps the animator on every tick until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Debug("driver started", "interval", d.interval)
	ticker := channerics.NewTicker(ctx.Done(), d.interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped")
			return
		case <-ticker:
			now := time.Now()
			d.animator.Step(now.Sub(last))
			last = now
		}
	}
}
