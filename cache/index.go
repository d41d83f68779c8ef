package cache

import (
	"container/heap"
	"sort"
	"sync"
)

// OrderIndex is a sorted set of keys ordered by score, used by Bounded to
// find its oldest entries. Implementations may be shared between processes.
type OrderIndex interface {
	// Touch sets the score of key, adding it if absent.
	Touch(key string, score float64) error
	// Count returns the number of members.
	Count() (int64, error)
	// PopMin removes and returns up to n members with the lowest scores.
	PopMin(n int64) ([]string, error)
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Members lists all members, lowest score first.
	Members() ([]string, error)
}

type scored struct {
	key   string
	score float64
}

type scoreHeap []scored

func (h scoreHeap) Len() int           { return len(h) }
func (h scoreHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h scoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// MemoryIndex is an in-process OrderIndex. Superseded heap entries are
// discarded lazily when popped.
type MemoryIndex struct {
	mu     sync.Mutex
	scores map[string]float64
	heap   scoreHeap
}

var _ OrderIndex = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{scores: make(map[string]float64)}
}

// Touch sets the score of key.
func (m *MemoryIndex) Touch(key string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[key] = score
	heap.Push(&m.heap, scored{key: key, score: score})
	if len(m.heap) > 2*len(m.scores)+64 {
		m.compact()
	}
	return nil
}

// Count returns the number of tracked keys.
func (m *MemoryIndex) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.scores)), nil
}

// PopMin removes and returns up to n keys with the lowest scores.
func (m *MemoryIndex) PopMin(n int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for int64(len(out)) < n && m.heap.Len() > 0 {
		e := heap.Pop(&m.heap).(scored)
		if cur, ok := m.scores[e.key]; !ok || cur != e.score {
			continue
		}
		delete(m.scores, e.key)
		out = append(out, e.key)
	}
	return out, nil
}

// Remove stops tracking key.
func (m *MemoryIndex) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scores, key)
	return nil
}

// Members lists tracked keys, lowest score first.
func (m *MemoryIndex) Members() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make([]scored, 0, len(m.scores))
	for k, s := range m.scores {
		members = append(members, scored{key: k, score: s})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].score < members[j].score })

	out := make([]string, len(members))
	for i, e := range members {
		out[i] = e.key
	}
	return out, nil
}

// compact rebuilds the heap from live scores. Callers hold mu.
func (m *MemoryIndex) compact() {
	h := make(scoreHeap, 0, len(m.scores))
	for k, s := range m.scores {
		h = append(h, scored{key: k, score: s})
	}
	heap.Init(&h)
	m.heap = h
}
