package usecase

import "context"

// RunGuard lets one scheduler tick or token refresh pass run at a time within the process.
type RunGuard struct {
	sem chan struct{}
}

func NewRunGuard() *RunGuard {
	return &RunGuard{sem: make(chan struct{}, 1)}
}

// TryAcquire returns false without waiting when another run holds the guard.
func (g *RunGuard) TryAcquire() (release func(), ok bool) {
	select {
	case g.sem <- struct{}{}:
		return g.release, true
	default:
		return nil, false
	}
}

// Acquire waits for the guard or for ctx to end.
func (g *RunGuard) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case g.sem <- struct{}{}:
		return g.release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *RunGuard) release() { <-g.sem }
