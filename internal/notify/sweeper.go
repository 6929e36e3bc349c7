package notify

import (
	"time" // Sweep interval

	"github.com/robfig/cron/v3"  // Scheduling
	"github.com/sirupsen/logrus" // Logging
)

// StartSweeper schedules a job that disconnects sessions still not joined after joinTimeout.
// The caller stops the returned scheduler on shutdown.
func StartSweeper(h *Hub, joinTimeout time.Duration) (*cron.Cron, error) {
	interval := joinTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	c := cron.New()
	_, err := c.AddFunc("@every "+interval.String(), func() {
		if n := h.SweepIdle(joinTimeout); n > 0 {
			logrus.WithFields(logrus.Fields{"closed": n, "stats": h.Stats()}).Info("swept idle admin sockets")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
