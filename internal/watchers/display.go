package watchers

import (
	"github.com/hoppxi/glimmer/internal/subscribe"
	"github.com/hoppxi/glimmer/pkg/displayinfo"
	"github.com/rs/zerolog/log"
)

// StartDisplayWatcher logs backlight changes, including ones made outside glimmer.
func StartDisplayWatcher(device string) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		events := subscribe.BacklightEvents(stop)

		for {
			select {
			case <-stop:
				return
			case <-events:
				info, err := displayinfo.GetDisplayInfo(device)
				if err != nil {
					log.Debug().Err(err).Msg("backlight changed but could not be read")
					continue
				}
				log.Debug().Str("device", info.Device).Int("level", info.Level).Msg("backlight changed")
			}
		}
	}
}
