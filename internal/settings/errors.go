package settings

import "errors"

// ErrInvalidWebhook is returned when the webhook URL is not a valid
// https URL.
var ErrInvalidWebhook = errors.New("invalid webhook url")
