package sequence

import "sync"

// Sequence hands out 1-based, monotonically increasing ids. Ids are never
// reused.
type Sequence struct {
	last uint64
	mu   sync.Mutex
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

func (s *Sequence) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
