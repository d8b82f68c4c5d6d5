package indexer

import "sync"

// mutexMap hands out one RWMutex per key. The indexer uses it to guard the
// per-header PCH state so that publishing one header does not contend with
// preloads of unrelated headers.
type mutexMap struct {
	mutex sync.RWMutex
	m     map[string]*sync.RWMutex
}

func newMutexMap() *mutexMap {
	return &mutexMap{
		m: map[string]*sync.RWMutex{},
	}
}

func (m *mutexMap) Lock(v string)    { m.mutexFor(v).Lock() }
func (m *mutexMap) Unlock(v string)  { m.mutexFor(v).Unlock() }
func (m *mutexMap) RLock(v string)   { m.mutexFor(v).RLock() }
func (m *mutexMap) RUnlock(v string) { m.mutexFor(v).RUnlock() }

func (m *mutexMap) mutexFor(v string) *sync.RWMutex {
	m.mutex.RLock()
	mutex, ok := m.m[v]
	m.mutex.RUnlock()
	if ok {
		return mutex
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if mutex, ok := m.m[v]; ok {
		return mutex
	}

	var newMutex sync.RWMutex
	m.m[v] = &newMutex
	return &newMutex
}
