package viewer

import "sync"

// progress forwards load progress to a caller callback. Values only grow, and
// 100 is held back until the load is complete.
type progress struct {
	mu   sync.Mutex
	last int
	cb   func(int)
	sink func(int) // mirrors the value into the pending record
}

func newProgress(cb func(int), sink func(int)) *progress {
	return &progress{last: -1, cb: cb, sink: sink}
}

// engine forwards a value reported by the engine.
func (p *progress) engine(pct int) {
	if pct > 99 {
		pct = 99
	}
	p.report(pct)
}

func (p *progress) report(pct int) {
	if pct < 0 {
		pct = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if pct <= p.last {
		return
	}
	p.last = pct
	if p.sink != nil {
		p.sink(pct)
	}
	if p.cb != nil {
		p.cb(pct)
	}
}
