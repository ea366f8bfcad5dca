package notify

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDestination = "org.freedesktop.Notifications"
	notificationsPath        = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsMethod      = notificationsDestination + ".Notify"

	// expireDefault lets the notification server pick the timeout.
	expireDefault = int32(-1)

	linuxSoundFile = "/usr/share/sounds/freedesktop/stereo/complete.oga"
)

// dbusNotifier sends notifications over the session bus.
type dbusNotifier struct{}

func newNotifier() Notifier {
	return dbusNotifier{}
}

// Notify sends org.freedesktop.Notifications.Notify with message as the
// summary. The reply is not awaited.
func (dbusNotifier) Notify(ctx context.Context, message string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	obj := conn.Object(notificationsDestination, notificationsPath)

	call := obj.GoWithContext(ctx, notificationsMethod, dbus.FlagNoReplyExpected, nil,
		AppName,                   // app_name
		uint32(0),                 // replaces_id
		"",                        // app_icon
		message,                   // summary
		"",                        // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		expireDefault,             // expire_timeout
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}

	return nil
}

// defaultSound prefers mpv and falls back to PulseAudio's player.
func defaultSound() (program, file string) {
	if _, err := exec.LookPath("mpv"); err == nil {
		return "mpv", linuxSoundFile
	}

	return "paplay", linuxSoundFile
}
