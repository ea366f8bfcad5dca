package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// osascriptNotifier shows notifications through AppleScript.
type osascriptNotifier struct{}

func newNotifier() Notifier {
	return osascriptNotifier{}
}

// Notify starts `display notification` in osascript without waiting for it.
func (osascriptNotifier) Notify(_ context.Context, message string) error {
	script := fmt.Sprintf("display notification %s with title %s",
		strconv.Quote(message), strconv.Quote(AppName))

	//nolint:noctx // The notification outlives the tick that raised it.
	if err := startDetached(exec.Command("osascript", "-e", script)); err != nil {
		return fmt.Errorf("start osascript: %w", err)
	}

	return nil
}

func defaultSound() (program, file string) {
	return "afplay", "/System/Library/Sounds/Glass.aiff"
}
