package booking

import "time"

// Clock supplies the current time for the lazy completed transition. Tests
// inject a fixed clock instead of sleeping past checkout dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock {
	return systemClock{}
}
