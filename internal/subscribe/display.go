package subscribe

import (
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

// BacklightEvents reports kernel backlight change uevents until stop closes.
func BacklightEvents(stop <-chan struct{}) <-chan struct{} {
	events := make(chan struct{}, 1)

	go func() {
		fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
		if err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to open netlink socket")
			return
		}
		defer syscall.Close(fd)

		addr := &syscall.SockaddrNetlink{
			Family: syscall.AF_NETLINK,
			Groups: 1, // listen to broadcast uevents
		}
		if err := syscall.Bind(fd, addr); err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to bind netlink socket")
			return
		}

		// Wake up periodically so stop is noticed.
		tv := syscall.Timeval{Sec: 1}
		if err := syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to set netlink timeout")
			return
		}

		buf := make([]byte, 4096)
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if err != syscall.EAGAIN && err != syscall.EINTR {
					log.Debug().Err(err).Msg("subscribe: netlink recv error")
				}
				continue
			}

			if IsBacklightChange(string(buf[:n])) {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events
}

// IsBacklightChange matches a raw uevent payload.
func IsBacklightChange(msg string) bool {
	return strings.Contains(msg, "SUBSYSTEM=backlight") && strings.Contains(msg, "ACTION=change")
}
