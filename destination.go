package goVerify

import (
	"regexp"
	"strings"
)

// E.164-style with optional leading plus, 9 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)

const maxEmailLength = 128

// normalizeDestination canonicalizes and validates a channel address
// before any store access. Phone numbers lose separator characters and
// keep a leading plus; emails are lowercased.
func normalizeDestination(channel Channel, destination string) (string, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return "", ErrInvalidDestination
	}

	switch channel {
	case ChannelSMS:
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '-', '(', ')', '.':
				return -1
			}
			return r
		}, destination)
		if !phonePattern.MatchString(cleaned) {
			return "", ErrInvalidDestination
		}
		return cleaned, nil

	case ChannelEmail:
		lowered := strings.ToLower(destination)
		if len(lowered) > maxEmailLength {
			return "", ErrInvalidDestination
		}
		at := strings.Index(lowered, "@")
		if at <= 0 || at == len(lowered)-1 {
			return "", ErrInvalidDestination
		}
		if strings.Count(lowered, "@") != 1 {
			return "", ErrInvalidDestination
		}
		domain := lowered[at+1:]
		if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
			return "", ErrInvalidDestination
		}
		return lowered, nil

	default:
		return "", ErrChannelNotConfigured
	}
}
