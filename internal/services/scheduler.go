package services

import (
	"time"
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed callbacks. The draw engine uses it for every
// phase transition so tests can drive time by hand.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// RealScheduler schedules callbacks on the runtime timer.
func RealScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
