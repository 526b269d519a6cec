package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API, all times are in UTC since mirrors
// do not agree on a timezone.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.Location())
}

func (s StandardImpl) Location() *time.Location {
	return time.UTC
}

// FixedImpl always returns the same instant, it is meant for tests.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At.In(f.Location())
}

func (f FixedImpl) Location() *time.Location {
	return time.UTC
}
