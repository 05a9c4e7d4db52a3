package pkg

import (
	"net/url"
	"strings"

	"github.com/safatanc/giftdrop-core/internal/app/errors"
)

// DecodeVoucherCode extracts a voucher share code from the literal a claimant
// presents. Accepted shapes:
//
//   - a custom-scheme URI with an `id` query parameter, e.g. giftdrop://claim?id=Ab12Cd34Ef56
//   - an http(s) URL with an `id` query parameter or a /claim/<code> path segment
//   - a bare alphanumeric token of at least 8 characters
func DecodeVoucherCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.NewBadRequestError("Voucher code is required")
	}

	if isBareCode(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", errors.NewBadRequestError("Unrecognized voucher code format")
	}

	if id := u.Query().Get("id"); isBareCode(id) {
		return id, nil
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(segments)-1; i++ {
			if segments[i] == "claim" && isBareCode(segments[i+1]) {
				return segments[i+1], nil
			}
		}
	}

	return "", errors.NewBadRequestError("Unrecognized voucher code format")
}

func isBareCode(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}
