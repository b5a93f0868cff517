package enums

import "fmt"

// BillingInterval is the charge cadence reported by the payment provider.
type BillingInterval string

const (
	BillingIntervalHourly     BillingInterval = "hourly"
	BillingIntervalDaily      BillingInterval = "daily"
	BillingIntervalWeekly     BillingInterval = "weekly"
	BillingIntervalMonthly    BillingInterval = "monthly"
	BillingIntervalQuarterly  BillingInterval = "quarterly"
	BillingIntervalBiannually BillingInterval = "biannually"
	BillingIntervalAnnually   BillingInterval = "annually"
)

var validBillingIntervals = []BillingInterval{
	BillingIntervalHourly,
	BillingIntervalDaily,
	BillingIntervalWeekly,
	BillingIntervalMonthly,
	BillingIntervalQuarterly,
	BillingIntervalBiannually,
	BillingIntervalAnnually,
}

// String implements fmt.Stringer.
func (b BillingInterval) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingInterval.
func (b BillingInterval) IsValid() bool {
	for _, candidate := range validBillingIntervals {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingInterval converts raw input into a BillingInterval.
func ParseBillingInterval(value string) (BillingInterval, error) {
	for _, candidate := range validBillingIntervals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing interval %q", value)
}
