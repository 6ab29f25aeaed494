package summarizer

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

var providerMessagePaths = []string{"error.message", "message", "error"}

// ProviderMessage pulls a human readable message out of a provider error body.
// It returns an empty string when the body is not JSON or has no such field.
func ProviderMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" || !gjson.Valid(body) {
		return ""
	}

	for _, path := range providerMessagePaths {
		result := gjson.Get(body, path)
		if result.Type == gjson.String {
			if msg := strings.TrimSpace(result.String()); msg != "" {
				return msg
			}
		}
	}

	return ""
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
