// Package ids provides identifier generators that services receive by
// injection instead of keeping counters in package state.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

type Generator interface {
	Next() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) Next() string { return uuid.NewString() }

// Sequence issues monotonically increasing ids such as APP0001.
type Sequence struct {
	prefix string
	width  int
	n      atomic.Uint64
}

func NewSequence(prefix string, width int) *Sequence {
	return &Sequence{prefix: prefix, width: width}
}

func (s *Sequence) Next() string {
	return fmt.Sprintf("%s%0*d", s.prefix, s.width, s.n.Add(1))
}
