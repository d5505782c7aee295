package ipd

// historyPool recycles the buffers that branch histories are
// materialized into before each call to Strategy.Decide.
// It is not safe for concurrent use.
type historyPool struct {
	pool []History
}

// alloc returns a History of length n.
func (p *historyPool) alloc(n int) History {
	if len(p.pool) > 0 {
		m := len(p.pool)
		next := p.pool[m-1]
		p.pool = p.pool[:m-1]
		if cap(next) >= n {
			return next[:n]
		}

		return append(next[:0], make(History, n)...)
	}

	return make(History, n)
}

func (p *historyPool) free(h History) {
	if cap(h) > 0 {
		p.pool = append(p.pool, h[:0])
	}
}
