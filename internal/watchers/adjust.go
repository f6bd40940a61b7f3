package watchers

import (
	"fmt"
	"time"

	"github.com/hoppxi/glimmer/internal/controller"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// TickSettings are re-read on every tick so config reloads apply without a restart.
type TickSettings struct {
	Interval    time.Duration
	Sensitivity float64
	Notify      bool
}

var notify = func(text string) error {
	return zenity.Notify(text, zenity.Title("glimmer"), zenity.WarningIcon)
}

// FormatAdjustment renders a tick result the way the status view shows it.
func FormatAdjustment(a controller.Adjustment) string {
	return fmt.Sprintf("Average Brightness: %.2f\nAdjusted Brightness: %.2f%%", a.Ambient, a.Target)
}

// StartAdjustWatcher drives ctrl.Adjust on a ticker. onTick, when set, sees
// every result including suppressed ones.
func StartAdjustWatcher(ctrl *controller.Controller, settings func() TickSettings, onTick func(controller.Adjustment)) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		cur := settings()
		ticker := time.NewTicker(cur.Interval)
		defer ticker.Stop()

		notified := false
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s := settings()
				if s.Interval != cur.Interval {
					log.Info().Dur("interval", s.Interval).Msg("adjust interval changed")
					ticker.Reset(s.Interval)
				}
				cur = s

				a := tick(ctrl, s.Sensitivity)
				if onTick != nil {
					onTick(a)
				}
				notified = notifyOnOutage(ctrl, s.Notify, notified)
			}
		}
	}
}

func tick(ctrl *controller.Controller, sensitivity float64) controller.Adjustment {
	max, min := ctrl.Limits()
	a := ctrl.Adjust(sensitivity, max, min)
	if !a.Suppressed() {
		log.Debug().
			Float64("ambient", a.Ambient).
			Float64("target", a.Target).
			Msg("brightness adjusted")
	}
	return a
}

// notifyOnOutage raises one notification per run of failed captures and
// returns whether one is outstanding.
func notifyOnOutage(ctrl *controller.Controller, enabled, notified bool) bool {
	if ctrl.Status().ErrorStreak < controller.StaleSampleLimit {
		return false
	}
	if notified || !enabled {
		return notified
	}

	if err := notify("Screen capture keeps failing; automatic brightness is on hold."); err != nil {
		log.Warn().Err(err).Msg("failed to send notification")
	}
	return true
}
