package locks

import "sync"

// Pool hands out one mutex per key. Mutexes are never freed; the key space
// is one entry per partition.
type Pool struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPool() *Pool {
	return &Pool{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for key, creating it on first use.
func (p *Pool) Get(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	p.locks[key] = l
	return l
}

// Lock acquires the mutex for key and returns its unlock func.
func (p *Pool) Lock(key string) func() {
	l := p.Get(key)
	l.Lock()
	return l.Unlock
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
