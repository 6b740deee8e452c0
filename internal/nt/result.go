package nt

import "context"

// Result is the outcome of a request forwarded to the backend. It completes
// exactly once; a backend refusal completes it with a *backend.RejectedError.
type Result struct {
	done chan struct{}
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolved returns an already completed Result.
func resolved(err error) *Result {
	r := newResult()
	r.finish(err)
	return r
}

func (r *Result) finish(err error) {
	r.err = err
	close(r.done)
}

// Done is closed when the request completes.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Err returns the outcome, or nil while the request is still pending.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the request completes or ctx ends.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
