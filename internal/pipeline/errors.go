package pipeline

import (
	"errors"
	"strings"

	"readsum/internal/domain"
)

// ErrBusy is returned by Run when the session already has a run in flight.
var ErrBusy = errors.New("session is busy")

const (
	MessageEmptyURL      = "Please enter a URL."
	MessageMissingAPIKey = "Please set your API key."

	fieldURL         = "url"
	fieldCredentials = "apiKey"
)

// UserMessage maps err to the single string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return fallback(validationErr.Message)
	}

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) && transportErr.Err == nil {
		return fallback(transportErr.Error())
	}

	return fallback(err.Error())
}

func fallback(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return GenericErrorMessage
	}

	return message
}
