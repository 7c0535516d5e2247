package discovery

import (
	"sync"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/markers"
)

// opSurface records marker operations until they are drained into a single
// markers message.
type opSurface struct {
	mu   sync.Mutex
	next int64
	ops  []MarkerOp
}

var _ markers.Surface = (*opSurface)(nil)

func (s *opSurface) Create(spec markers.Spec) markers.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.ops = append(s.ops, MarkerOp{Op: OpCreate, Marker: s.next, Spec: &spec})
	return s.next
}

func (s *opSurface) Remove(h markers.Handle) {
	s.push(MarkerOp{Op: OpRemove, Marker: h.(int64)})
}

func (s *opSurface) SetLabel(h markers.Handle, label string) {
	s.push(MarkerOp{Op: OpLabel, Marker: h.(int64), Label: label})
}

func (s *opSurface) SetStyle(h markers.Handle, style markers.Style) {
	s.push(MarkerOp{Op: OpStyle, Marker: h.(int64), Style: &style})
}

func (s *opSurface) SetZIndex(h markers.Handle, z int) {
	s.push(MarkerOp{Op: OpZIndex, Marker: h.(int64), ZIndex: z})
}

func (s *opSurface) push(op MarkerOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

// Drain returns and forgets the recorded operations.
func (s *opSurface) Drain() []MarkerOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.ops
	s.ops = nil
	return out
}
