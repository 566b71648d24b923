package application

import "sync/atomic"

// ReentryGuard rejects nested invocation of a settlement operation. Ledger
// adapters may call back into the service before the outer call completes;
// the guard is the first defense line, checks-effects ordering inside the
// unit of work is the second.
type ReentryGuard struct {
	busy atomic.Bool
}

func NewReentryGuard() *ReentryGuard {
	return &ReentryGuard{}
}

// Enter claims the guard. It returns false when a call is already in flight.
func (g *ReentryGuard) Enter() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Leave releases the guard after Enter returned true.
func (g *ReentryGuard) Leave() {
	g.busy.Store(false)
}
