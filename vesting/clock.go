package vesting

import "time"

// Clock supplies the single time sample taken per operation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
