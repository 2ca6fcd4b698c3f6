package dispatch

import "github.com/bft-labs/pkgwatch/pkg/state"

// Handler receives lifecycle states on the dispatch worker goroutine.
type Handler interface {
	OnPackageStateChanged(s state.LifecycleState)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(s state.LifecycleState)

// OnPackageStateChanged calls f(s).
func (f HandlerFunc) OnPackageStateChanged(s state.LifecycleState) { f(s) }

// Handlers fans a state out to several handlers in order.
type Handlers []Handler

// OnPackageStateChanged calls every handler in turn. A panicking handler does
// not stop the ones after it; the first panic is re-raised once all of them
// have run so the pipeline still records it.
func (hs Handlers) OnPackageStateChanged(s state.LifecycleState) {
	var first any
	for _, h := range hs {
		if r := callHandler(h, s); r != nil && first == nil {
			first = r
		}
	}
	if first != nil {
		panic(first)
	}
}

func callHandler(h Handler, s state.LifecycleState) (recovered any) {
	defer func() { recovered = recover() }()
	h.OnPackageStateChanged(s)
	return nil
}
