package kinesource

// Counter interface is used for exposing basic metrics from the readers.
// An expvar.Map satisfies it.
type Counter interface {
	Add(string, int64)
}

type noopCounter struct{}

func (n noopCounter) Add(string, int64) {}
