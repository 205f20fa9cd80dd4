package services

import (
	"time"

	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
)

// Clock-skew tolerance for client-supplied timestamps: a client timestamp is
// accepted when it lies within [now-maxTimestampAge, now+maxTimestampAhead].
const (
	maxTimestampAge   = 5 * time.Minute
	maxTimestampAhead = 5 * time.Second
)

func validateTimestamp(field string, ts, now time.Time) error {
	if ts.Before(now.Add(-maxTimestampAge)) {
		return apierr.NewValidation(field, "timestamp is too far in the past")
	}
	if ts.After(now.Add(maxTimestampAhead)) {
		return apierr.NewValidation(field, "timestamp is in the future")
	}
	return nil
}
