package charstring

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// Type1Consumer receives the logical command stream of a Type 1 charstring parse.
// Apply is invoked once per recognized operator with the live operand stack; End is
// invoked exactly once when the input is exhausted.
type Type1Consumer interface {
	Apply(cmd Type1Command, stack *OperandStack) error
	End() error
}

const type1StackLimit = 24

// Type1Parser interprets Type 1 charstring bytecode. A parser is single-use per
// glyph but the subroutine table may be shared between parsers.
type Type1Parser struct {
	subrs *Index
	stack *OperandStack
	ps    *OperandStack // PostScript interpreter stack for callothersubr
	dst   Type1Consumer
	done  bool
	warnings
}

// NewType1Parser returns a parser using the given subroutine table, which may be nil.
func NewType1Parser(subrs *Index) *Type1Parser {
	return &Type1Parser{
		subrs: subrs,
		stack: NewOperandStack(type1StackLimit),
		ps:    NewOperandStack(4),
	}
}

// Parse interprets a single glyph's charstring and streams its commands to dst.
// Malformed input yields warnings and a best-effort command stream; an error is
// returned only for the resource-exhaustion guards (call depth, operand stack) or
// when dst fails.
func (p *Type1Parser) Parse(charString []byte, dst Type1Consumer) error {
	if MaxCharStringLength < len(charString) {
		return fmt.Errorf("Type1: charstring too long")
	}
	p.stack.Clear()
	p.ps.Clear()
	p.list = p.list[:0]
	p.done = false
	p.dst = dst
	if err := p.parse(charString, 0); err != nil {
		return err
	}
	if !p.done {
		p.warnf("Type1: charstring does not end with endchar")
	}
	return dst.End()
}

func (p *Type1Parser) parse(b []byte, depth int) error {
	if maxCallDepth < depth {
		return fmt.Errorf("Type1: too many nested subroutines")
	}

	r := parse.NewBinaryReader(b)
	for 0 < r.Len() {
		b0 := r.ReadUint8()
		if 32 <= b0 {
			v, ok := readType1Number(r, b0)
			if !ok {
				p.warnf("Type1: unexpected end of charstring")
				break
			}
			if err := p.push(v); err != nil {
				return err
			}
			continue
		}

		code := uint16(b0)
		if b0 == escape {
			if r.Len() == 0 {
				p.warnf("Type1: unexpected end of charstring")
				break
			}
			code = escaped(uint16(r.ReadUint8()))
		}
		op, ok := type1Ops[code]
		if !ok {
			p.warnf("Type1: unknown operator %s", opName(code))
			p.stack.Clear()
			continue
		}
		if p.stack.Size() < op.minArgs() {
			p.warnf("Type1: too few operands for %s", op.name)
			if !op.keepStack {
				p.stack.Clear()
			}
			continue
		}

		switch code {
		case 10: // callsubr
			i, err := p.stack.PopInt()
			if err != nil {
				p.warnf("Type1: callsubr: %v", err)
				p.stack.Clear()
				continue
			}
			if i < 0 || p.subrs.Len() <= i {
				p.warnf("Type1: bad subroutine %d", i)
				continue
			}
			if err := p.parse(p.subrs.Get(i), depth+1); err != nil {
				return err
			}
			if p.done {
				return nil
			}
		case 11: // return
			if depth == 0 {
				p.warnf("Type1: unexpected return")
				continue
			}
			return nil
		case 14: // endchar
			if 0 < depth {
				p.warnf("Type1: dangling endchar in subroutine")
				continue
			}
			if err := p.dst.Apply(Type1EndChar, p.stack); err != nil {
				return err
			}
			p.stack.Clear()
			p.done = true
			if 0 < r.Len() {
				p.warnf("Type1: dangling bytes after endchar")
			}
			return nil
		case escaped(6): // seac ends the glyph like endchar
			if 0 < depth {
				p.warnf("Type1: dangling seac in subroutine")
				continue
			}
			if err := p.dst.Apply(Type1Seac, p.stack); err != nil {
				return err
			}
			p.stack.Clear()
			p.done = true
			if 0 < r.Len() {
				p.warnf("Type1: dangling bytes after seac")
			}
			return nil
		case escaped(12): // div, Type 1 division is double precision
			divisor, err1 := p.stack.Pop()
			dividend, err2 := p.stack.Pop()
			if err1 != nil || err2 != nil {
				p.warnf("Type1: div: operand stack underflow")
				continue
			}
			p.stack.Push(dividend / divisor)
		case escaped(16): // callothersubr
			if err := p.callothersubr(r); err != nil {
				return err
			}
		case escaped(17): // pop is only valid directly after callothersubr
			p.warnf("Type1: unexpected pop")
		default:
			if err := p.dst.Apply(op.t1, p.stack); err != nil {
				return err
			}
			if !op.keepStack {
				p.stack.Clear()
			}
		}
	}
	if 0 < depth {
		p.warnf("Type1: subroutine does not end with return")
	}
	return nil
}

// callothersubr pops the othersubr number and argument count, moves the arguments
// onto the PostScript stack in reverse, dispatches the othersubrs with special
// semantics (0 end flex, 1 begin flex, 2 flex point, 3 hint replacement), and
// drains the "12 17" pop pairs that must follow.
func (p *Type1Parser) callothersubr(r *parse.BinaryReader) error {
	num, err := p.stack.PopInt()
	if err != nil {
		p.warnf("Type1: callothersubr: %v", err)
		p.stack.Clear()
		return nil
	}
	n, err := p.stack.PopInt()
	if err != nil || n < 0 {
		p.warnf("Type1: callothersubr: bad argument count")
		p.stack.Clear()
		return nil
	}
	if p.stack.Size() < n {
		p.warnf("Type1: too few arguments for othersubr %d", num)
		p.stack.Clear()
		return nil
	}

	p.ps.Clear()
	for i := 0; i < n; i++ {
		v, _ := p.stack.Pop()
		p.ps.Push(v)
	}

	switch num {
	case 0:
		// end flex; the flex end point remains on the PostScript stack for the
		// pops below, the flex size argument is discarded
		if n != 3 {
			p.warnf("Type1: othersubr 0 expects 3 arguments, got %d", n)
		}
		if err := p.emitOtherSubr(0); err != nil {
			return err
		}
		if _, err := p.ps.Pop(); err != nil {
			p.warnf("Type1: othersubr 0 misses flex size argument")
		}
	case 1:
		// begin flex
		if n != 0 {
			p.warnf("Type1: othersubr 1 expects no arguments, got %d", n)
		}
		if err := p.emitOtherSubr(1); err != nil {
			return err
		}
	case 2:
		// flex point, the preceding rmoveto already carried the coordinates
		if n != 0 {
			p.warnf("Type1: othersubr 2 expects no arguments, got %d", n)
		}
	case 3:
		// hint replacement, the subroutine number stays for the following callsubr
		if n != 1 {
			p.warnf("Type1: othersubr 3 expects 1 argument, got %d", n)
		}
	default:
		// unknown othersubrs pass their arguments through unmodified
	}

	// each following "12 17" pop pair moves one result back onto the operand stack
	for 2 <= r.Len() {
		pos := r.Pos()
		if r.ReadUint8() != escape || r.ReadUint8() != 17 {
			r.Seek(pos)
			break
		}
		v, err := p.ps.Pop()
		if err != nil {
			p.warnf("Type1: PostScript stack underflow")
			continue
		}
		if err := p.push(v); err != nil {
			return err
		}
	}
	if num < 4 && 0 < p.ps.Size() {
		p.warnf("Type1: %d values left on PostScript stack by othersubr %d", p.ps.Size(), num)
		p.ps.Clear()
	}
	return nil
}

func (p *Type1Parser) emitOtherSubr(num int) error {
	p.stack.Push(float64(num))
	if err := p.dst.Apply(Type1CallOtherSubr, p.stack); err != nil {
		return err
	}
	p.stack.Clear()
	return nil
}

func (p *Type1Parser) push(v float64) error {
	if 2*type1StackLimit <= p.stack.Size() {
		return fmt.Errorf("Type1: operand stack overflow")
	} else if type1StackLimit == p.stack.Size() {
		p.warnf("Type1: operand stack full")
	}
	p.stack.Push(v)
	return nil
}

// readType1Number decodes the 1, 2, or 5-byte Type 1 integer encodings for lead
// bytes 32 and up. The 5-byte form is a big-endian signed 32-bit integer.
func readType1Number(r *parse.BinaryReader, b0 uint8) (float64, bool) {
	if b0 <= 246 {
		return float64(int(b0) - 139), true
	} else if b0 <= 250 {
		if r.Len() < 1 {
			return 0.0, false
		}
		return float64((int(b0)-247)*256 + int(r.ReadUint8()) + 108), true
	} else if b0 <= 254 {
		if r.Len() < 1 {
			return 0.0, false
		}
		return float64(-(int(b0)-251)*256 - int(r.ReadUint8()) - 108), true
	}
	if r.Len() < 4 {
		return 0.0, false
	}
	return float64(int32(r.ReadUint32())), true
}
