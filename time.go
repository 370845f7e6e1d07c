package crm

import (
	"time"

	"github.com/goliatone/go-errors"
)

// IsWithinThresholdPeriod reports whether t is after now minus the
// threshold, e.g. "24h" or "2h30m". A future t is always within.
func IsWithinThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	threshold, err := time.ParseDuration(thresholdExpr)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryBadInput, "invalid threshold expression")
	}

	cutoff := time.Now().Add(-threshold)

	return t.After(cutoff), nil
}

// IsOutsideThresholdPeriod is the inverse of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, thresholdExpr)
	if err != nil {
		return false, err
	}
	return !within, nil
}
