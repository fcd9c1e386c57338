package wait

import "time"

// Clock abstracts time so the wait strategy's transitions can be tested
// without wall-clock delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemClock is the production clock.
func SystemClock() Clock {
	return systemClock{}
}
