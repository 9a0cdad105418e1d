package charstring

import (
	"fmt"
	"math"
)

// ErrStackUnderflow is returned when popping or pulling from an empty operand stack.
var ErrStackUnderflow = fmt.Errorf("operand stack underflow")

// ErrInvalidOperand is returned when an operand cannot be coerced to the requested type.
var ErrInvalidOperand = fmt.Errorf("invalid operand")

// OperandStack is the numeric argument stack shared by the charstring interpreters.
// It is a double-ended stack: Push/Pop/Peek operate on the top, Pull removes from the
// bottom, and Get/Set index from the bottom. A stack is owned by a single interpreter
// invocation and must not be shared between concurrent parses.
type OperandStack struct {
	vals []float64
}

// NewOperandStack returns an empty operand stack with the given initial capacity.
func NewOperandStack(capacity int) *OperandStack {
	return &OperandStack{vals: make([]float64, 0, capacity)}
}

// Size returns the number of operands on the stack.
func (s *OperandStack) Size() int {
	return len(s.vals)
}

// Push adds v on top of the stack.
func (s *OperandStack) Push(v float64) {
	s.vals = append(s.vals, v)
}

// Pop removes and returns the top operand.
func (s *OperandStack) Pop() (float64, error) {
	if len(s.vals) == 0 {
		return 0.0, ErrStackUnderflow
	}
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	return v, nil
}

// Pull removes and returns the bottom operand, i.e. the earliest pushed value
// still on the stack.
func (s *OperandStack) Pull() (float64, error) {
	if len(s.vals) == 0 {
		return 0.0, ErrStackUnderflow
	}
	v := s.vals[0]
	s.vals = s.vals[:copy(s.vals, s.vals[1:])]
	return v, nil
}

// Peek returns the top operand without removing it.
func (s *OperandStack) Peek() (float64, error) {
	if len(s.vals) == 0 {
		return 0.0, ErrStackUnderflow
	}
	return s.vals[len(s.vals)-1], nil
}

// Get returns the operand at index i counted from the bottom, or 0 when out of range.
func (s *OperandStack) Get(i int) float64 {
	if i < 0 || len(s.vals) <= i {
		return 0.0
	}
	return s.vals[i]
}

// Set overwrites the operand at index i counted from the bottom.
func (s *OperandStack) Set(i int, v float64) {
	if 0 <= i && i < len(s.vals) {
		s.vals[i] = v
	}
}

// PopInt removes the top operand and returns it as an integer. It returns
// ErrInvalidOperand when the value is not exactly representable as an integer.
func (s *OperandStack) PopInt() (int, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < math.MinInt32 || math.MaxInt32 < v {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidOperand, v)
	}
	return int(v), nil
}

// GetInt returns the operand at index i from the bottom as an integer.
func (s *OperandStack) GetInt(i int) (int, error) {
	if i < 0 || len(s.vals) <= i {
		return 0, ErrStackUnderflow
	}
	v := s.vals[i]
	if v != math.Trunc(v) || v < math.MinInt32 || math.MaxInt32 < v {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidOperand, v)
	}
	return int(v), nil
}

// Clear drops all operands.
func (s *OperandStack) Clear() {
	s.vals = s.vals[:0]
}

// SetTo clears the stack and loads the given values bottom-to-top.
func (s *OperandStack) SetTo(vals ...float64) {
	s.vals = append(s.vals[:0], vals...)
}

// TransferFrom clears the stack and moves the bottom n operands of src onto it,
// preserving their order. It is used to stage fixed-arity sub-commands without
// copying values one at a time. src is left with its remaining operands.
func (s *OperandStack) TransferFrom(src *OperandStack, n int) error {
	if n < 0 || src.Size() < n {
		return ErrStackUnderflow
	}
	s.vals = append(s.vals[:0], src.vals[:n]...)
	src.vals = src.vals[:copy(src.vals, src.vals[n:])]
	return nil
}
