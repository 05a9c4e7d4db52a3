package pkg

import (
	"time"

	"github.com/safatanc/giftdrop-core/internal/app/errors"
)

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseExpiryTime parses a voucher expiry literal. A date without a time
// component means the end of that day in UTC. An unparseable literal is a
// hard validation error, never a silent "no expiry".
func ParseExpiryTime(dateStr string) (*time.Time, error) {
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, errors.NewBadRequestError("Invalid expiry date format: " + dateStr)
}
