//go:build !linux && !darwin

package notify

import (
	"context"
	"fmt"
)

type unsupportedNotifier struct{}

func newNotifier() Notifier {
	return unsupportedNotifier{}
}

func (unsupportedNotifier) Notify(context.Context, string) error {
	return fmt.Errorf("show notification: %w", ErrUnsupported)
}

func defaultSound() (program, file string) {
	return "", ""
}
