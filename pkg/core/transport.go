package core

import "context"

// Request is a single tagged request issued by a round.
type Request struct {
	Generation uint64
	RegionID   string
	URL        string
}

// Transport performs the request for one region and returns the raw payload.
//
// Implementations should honor ctx cancellation; the coordinator bounds every
// request with a deadline and stops waiting once it expires, so a transport
// that ignores ctx only leaks its own goroutine, never the round.
type Transport interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

func (f TransportFunc) Fetch(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Outcome is the result of one request: either a payload or an error.
type Outcome struct {
	Payload []byte
	Err     error
}

// Success builds a successful outcome.
func Success(payload []byte) Outcome {
	return Outcome{Payload: payload}
}

// Failure builds a failed outcome.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the outcome carries a payload.
func (o Outcome) OK() bool {
	return o.Err == nil
}
