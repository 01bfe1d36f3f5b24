// Package history keeps the calculator's scrollback: an ordered list of
// (expression, result) slots, newest first.
//
// Slot 0 is the scratch slot that previews whatever is being typed. Slots
// from 1 on are committed entries and only change by being shifted,
// evicted or popped. Two capacity policies share one implementation:
//
//	history.New(history.Bounded(5)) // five pre-filled slots, oldest evicted
//	history.New(history.Unbounded()) // grows without limit, Pop undoes
//
// Every mutation raises a dirty flag that Updated reports exactly once.
// A Stack is not safe for concurrent use.
package history

import (
	"kalkon/internal/numeric"
)

// Slot is a single history row. An empty expression and an absent result
// together form the empty slot.
type Slot struct {
	Expression string
	Result     numeric.Value
}

// IsEmpty reports whether the slot holds neither expression nor result.
func (s Slot) IsEmpty() bool {
	return s.Expression == "" && s.Result.IsNone()
}

// Capacity is the sizing policy of a Stack.
type Capacity struct {
	depth int
}

// Bounded keeps exactly depth slots (preview slot included). A depth
// below 1 is raised to 1.
func Bounded(depth int) Capacity {
	if depth < 1 {
		depth = 1
	}
	return Capacity{depth: depth}
}

// Unbounded lets the stack grow without limit.
func Unbounded() Capacity { return Capacity{} }

// IsBounded reports whether the capacity has a fixed depth.
func (c Capacity) IsBounded() bool { return c.depth > 0 }

// Depth returns the fixed depth, or 0 when unbounded.
func (c Capacity) Depth() int { return c.depth }

// Stack is the history. The zero value is an empty unbounded stack.
type Stack struct {
	capacity Capacity
	slots    []Slot
	updated  bool
}

// New creates a stack in its cleared state.
func New(c Capacity) *Stack {
	s := &Stack{capacity: c}
	s.reset()
	return s
}

// Capacity returns the stack's sizing policy.
func (s *Stack) Capacity() Capacity { return s.capacity }

// Len returns the number of slots, preview slot included.
func (s *Stack) Len() int { return len(s.slots) }

// Push commits (expression, result) at position 1 and empties the preview
// slot. A bounded stack drops its oldest entries to keep its depth.
func (s *Stack) Push(expression string, result numeric.Value) {
	if len(s.slots) == 0 {
		s.slots = append(s.slots, Slot{})
	}
	s.slots[0] = Slot{}
	s.slots = append(s.slots, Slot{})
	copy(s.slots[2:], s.slots[1:])
	s.slots[1] = Slot{Expression: expression, Result: result}

	if s.capacity.IsBounded() && len(s.slots) > s.capacity.depth {
		s.slots = s.slots[:s.capacity.depth]
	}
	s.updated = true
}

// Set overwrites the preview slot, creating it if the stack is empty.
func (s *Stack) Set(expression string, result numeric.Value) {
	slot := Slot{Expression: expression, Result: result}
	if len(s.slots) == 0 {
		s.slots = append(s.slots, slot)
	} else {
		s.slots[0] = slot
	}
	s.updated = true
}

// Pop undoes the most recent commit. It returns that entry's expression
// (empty if there is none), drops the preview slot so every entry moves
// up by one, and empties the new head. Bounded stacks are padded back to
// their depth with an empty slot at the tail.
func (s *Stack) Pop() string {
	expression := s.Expression(1)

	if len(s.slots) > 0 {
		s.slots = s.slots[1:]
	}
	if len(s.slots) > 0 {
		s.slots[0] = Slot{}
	}
	if s.capacity.IsBounded() {
		for len(s.slots) < s.capacity.depth {
			s.slots = append(s.slots, Slot{})
		}
	}
	s.updated = true
	return expression
}

// Clear returns the stack to its initial state.
func (s *Stack) Clear() {
	s.reset()
	s.updated = true
}

func (s *Stack) reset() {
	if s.capacity.IsBounded() {
		s.slots = make([]Slot, s.capacity.depth)
		return
	}
	s.slots = nil
}

// Slot returns slot i, or an empty slot when i is out of range.
func (s *Stack) Slot(i int) Slot {
	if i < 0 || i >= len(s.slots) {
		return Slot{}
	}
	return s.slots[i]
}

// Expression returns the expression of slot i, or "".
func (s *Stack) Expression(i int) string { return s.Slot(i).Expression }

// Result returns the raw result of slot i; absent when out of range.
func (s *Stack) Result(i int) numeric.Value { return s.Slot(i).Result }

// Updated reports whether the stack changed since the previous call and
// clears the flag.
func (s *Stack) Updated() bool {
	u := s.updated
	s.updated = false
	return u
}
