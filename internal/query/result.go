package query

import "time"

// Status of a cached read
type Status int

const (
	// StatusIdle means nothing was fetched, e.g. a disabled read
	StatusIdle Status = iota
	// StatusLoading means the first fetch is in flight
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is what a read hands back to the caller. Data may hold the last
// good value even when Status is StatusError.
type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	UpdatedAt time.Time
	// Fetching is true while any request for the key is in flight,
	// including background refreshes
	Fetching bool
	// Stale is true when the entry was invalidated and not yet refetched
	Stale bool
}

func (r Result[T]) IsIdle() bool    { return r.Status == StatusIdle }
func (r Result[T]) IsLoading() bool { return r.Status == StatusLoading }
func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }
func (r Result[T]) IsError() bool   { return r.Status == StatusError }

// HasData reports whether Data holds a fetched value
func (r Result[T]) HasData() bool {
	return !r.UpdatedAt.IsZero()
}

// Options control a single read
type Options struct {
	// StaleTime is how long data counts as fresh; zero means always stale
	StaleTime time.Duration
	// Retry is the number of extra attempts for failed reads
	Retry int
	// RetryDelay is the first backoff delay; it doubles per attempt
	RetryDelay time.Duration
	// Enabled gates the read; nil means always enabled
	Enabled func() bool
}

func (o Options) enabled() bool {
	return o.Enabled == nil || o.Enabled()
}
