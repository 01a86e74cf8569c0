package verification

import "sync"

// memberLocks hands out one mutex per member id. Entries are dropped once
// nobody holds or waits for them.
type memberLocks struct {
	mu sync.Mutex
	m  map[string]*memberLock
}

type memberLock struct {
	sync.Mutex
	refs int
}

func newMemberLocks() *memberLocks {
	return &memberLocks{m: make(map[string]*memberLock)}
}

// Lock blocks until id is free and returns the matching unlock func.
func (l *memberLocks) Lock(id string) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &memberLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func (l *memberLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
