// Package notify holds the outbound reminder channels.
package notify

import "errors"

// ErrChannelDisabled is returned when a channel has no credentials configured.
var ErrChannelDisabled = errors.New("notification channel disabled")
