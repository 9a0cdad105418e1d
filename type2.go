package charstring

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tdewolff/parse/v2"
)

// Type2Consumer receives the logical command stream of a Type 2 or CFF2 charstring
// parse. Apply is invoked once per emitted operator with the live operand stack;
// mutations by the consumer are observed by the interpreter when the operator keeps
// the stack. End is invoked exactly once when the input is exhausted.
type Type2Consumer interface {
	Apply(cmd Type2Command, stack *OperandStack) error
	End() error
}

const (
	type2StackLimit = 48
	stemHintLimit   = 96
	transientSize   = 32
)

// Type2Parser interprets Type 2 (CFF) charstring bytecode. The optional glyph
// advance width operand is not consumed here but passed downstream; extracting it
// is the job of the Type2ToType1 converter.
type Type2Parser struct {
	localSubrs  *Index
	globalSubrs *Index
	stack       *OperandStack
	trans       [transientSize]float64
	hstemCount  int
	vstemCount  int // -1 until the first vstem declaration
	dst         Type2Consumer
	done        bool
	warnings
}

// NewType2Parser returns a parser using the given subroutine tables, either of
// which may be nil.
func NewType2Parser(localSubrs, globalSubrs *Index) *Type2Parser {
	return &Type2Parser{
		localSubrs:  localSubrs,
		globalSubrs: globalSubrs,
		stack:       NewOperandStack(type2StackLimit),
		vstemCount:  -1,
	}
}

// Parse interprets a single glyph's charstring and streams its commands to dst.
func (p *Type2Parser) Parse(charString []byte, dst Type2Consumer) error {
	if MaxCharStringLength < len(charString) {
		return fmt.Errorf("Type2: charstring too long")
	}
	p.stack.Clear()
	p.list = p.list[:0]
	p.hstemCount = 0
	p.vstemCount = -1
	p.trans = [transientSize]float64{}
	p.done = false
	p.dst = dst
	if err := p.parse(charString, 0); err != nil {
		return err
	}
	return dst.End()
}

func (p *Type2Parser) parse(b []byte, depth int) error {
	if maxCallDepth < depth {
		return fmt.Errorf("Type2: too many nested subroutines")
	}

	r := parse.NewBinaryReader(b)
	for 0 < r.Len() {
		b0 := r.ReadUint8()
		if b0 == 28 || 32 <= b0 {
			v, ok := readType2Number(r, b0)
			if !ok {
				p.warnf("Type2: unexpected end of charstring")
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
				p.warnf("Type2: unexpected end of charstring")
				break
			}
			code = escaped(uint16(r.ReadUint8()))
		}
		op, ok := type2Ops[code]
		if !ok {
			p.warnf("Type2: unknown operator %s", opName(code))
			p.stack.Clear()
			continue
		}
		if p.stack.Size() < op.minArgs() {
			p.warnf("Type2: too few operands for %s", op.name)
			if !op.keepStack {
				p.stack.Clear()
			}
			continue
		}

		switch code {
		case 1, 18: // hstem, hstemhm
			if !op.verify(p.stack.Size()) {
				p.warnf("Type2: bad number of operands for %s", op.name)
			}
			p.addStems(&p.hstemCount, p.stack.Size()/2)
			if err := p.emit(op.t2); err != nil {
				return err
			}
		case 3, 23: // vstem, vstemhm
			if !op.verify(p.stack.Size()) {
				p.warnf("Type2: bad number of operands for %s", op.name)
			}
			if p.vstemCount < 0 {
				p.vstemCount = 0
			}
			p.addStems(&p.vstemCount, p.stack.Size()/2)
			if err := p.emit(op.t2); err != nil {
				return err
			}
		case 19, 20: // hintmask, cntrmask
			if err := p.hintmask(r, op.t2); err != nil {
				return err
			}
		case 10, 29: // callsubr, callgsubr
			table := p.localSubrs
			if code == 29 {
				table = p.globalSubrs
			}
			num, err := p.stack.PopInt()
			if err != nil {
				p.warnf("Type2: %s: %v", op.name, err)
				continue
			}
			i := num + SubrBias(table.Len())
			if i < 0 || table.Len() <= i {
				p.warnf("Type2: bad subroutine %d", num)
				continue
			}
			sub := table.Get(i)
			if MaxCharStringLength < len(sub) {
				p.warnf("Type2: subroutine too long")
				continue
			}
			if err := p.parse(sub, depth+1); err != nil {
				return err
			}
			if p.done {
				return nil
			}
		case 11: // return
			if depth == 0 {
				p.warnf("Type2: unexpected return")
				continue
			}
			return nil
		case 14: // endchar terminates the glyph at any depth
			if !op.verify(p.stack.Size()) {
				p.warnf("Type2: bad number of operands for endchar")
			}
			if err := p.emit(Type2EndChar); err != nil {
				return err
			}
			p.done = true
			if 0 < r.Len() {
				p.warnf("Type2: dangling bytes after endchar")
			}
			return nil
		default:
			if 0x0c00 <= code && op.keepStack {
				p.arith(code, op.name)
				continue
			}
			if !op.verify(p.stack.Size()) {
				p.warnf("Type2: bad number of operands for %s", op.name)
				p.stack.Clear()
				continue
			}
			if err := p.emit(op.t2); err != nil {
				return err
			}
		}
	}
	return nil
}

// hintmask handles hintmask and cntrmask: operands still on the stack before the
// first mask are an implicit vstem declaration, and (hstemCount+vstemCount+7)/8
// raw mask bytes follow the opcode in the input.
func (p *Type2Parser) hintmask(r *parse.BinaryReader, cmd Type2Command) error {
	if p.vstemCount < 0 {
		p.vstemCount = 0
		p.addStems(&p.vstemCount, p.stack.Size()/2)
		if err := p.dst.Apply(Type2VStemHM, p.stack); err != nil {
			return err
		}
		p.stack.Clear()
	}
	n := (p.hstemCount + p.vstemCount + 7) / 8
	if r.Len() < uint32(n) {
		p.warnf("Type2: unexpected end of charstring in %s", cmd)
		n = int(r.Len())
	}
	r.ReadBytes(uint32(n)) // mask bytes are opaque, hinting is not used
	return p.emit(cmd)
}

// addStems adds n stem hints to the counter at dst, warning when the total
// crosses the dialect limit.
func (p *Type2Parser) addStems(dst *int, n int) {
	before := p.hstemCount
	if 0 < p.vstemCount {
		before += p.vstemCount
	}
	*dst += n
	if before <= stemHintLimit && stemHintLimit < before+n {
		p.warnf("Type2: too many stem hints")
	}
}

// arith executes the arithmetic, storage, and conditional operators. They operate
// on the operand stack and transient array only and always keep the stack; any
// failure abandons the operator with a warning.
func (p *Type2Parser) arith(code uint16, name string) {
	fail := func() {
		p.warnf("Type2: %s: operand stack underflow", name)
	}
	switch code {
	case escaped(3): // and
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(boolOperand(a != 0.0 && b != 0.0))
	case escaped(4): // or
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(boolOperand(a != 0.0 || b != 0.0))
	case escaped(5): // not
		v, err := p.stack.Pop()
		if err != nil {
			fail()
			return
		}
		p.stack.Push(boolOperand(v == 0.0))
	case escaped(9): // abs
		v, err := p.stack.Pop()
		if err != nil {
			fail()
			return
		}
		p.stack.Push(math.Abs(v))
	case escaped(10): // add
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(a + b)
	case escaped(11): // sub
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(a - b)
	case escaped(12): // div
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(a / b)
	case escaped(14): // neg
		v, err := p.stack.Pop()
		if err != nil {
			fail()
			return
		}
		p.stack.Push(-v)
	case escaped(15): // eq
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(boolOperand(a == b))
	case escaped(18): // drop
		if _, err := p.stack.Pop(); err != nil {
			fail()
		}
	case escaped(20): // put
		i, err1 := p.stack.PopInt()
		v, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		if i < 0 || transientSize <= i {
			p.warnf("Type2: put: index %d out of bounds", i)
			return
		}
		p.trans[i] = v
	case escaped(21): // get
		i, err := p.stack.PopInt()
		if err != nil {
			fail()
			return
		}
		if i < 0 || transientSize <= i {
			p.warnf("Type2: get: index %d out of bounds", i)
			return
		}
		p.stack.Push(p.trans[i])
	case escaped(22): // ifelse pops v2 v1 s2 s1 and pushes s2 when v1 > v2, else s1
		v2, err1 := p.stack.Pop()
		v1, err2 := p.stack.Pop()
		s2, err3 := p.stack.Pop()
		s1, err4 := p.stack.Pop()
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			fail()
			return
		}
		if v1 > v2 {
			p.stack.Push(s2)
		} else {
			p.stack.Push(s1)
		}
	case escaped(23): // random yields a value in (0,1]
		p.stack.Push(1.0 - rand.Float64())
	case escaped(24): // mul
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(a * b)
	case escaped(26): // sqrt
		v, err := p.stack.Pop()
		if err != nil {
			fail()
			return
		}
		p.stack.Push(math.Sqrt(v))
	case escaped(27): // dup
		v, err := p.stack.Peek()
		if err != nil {
			fail()
			return
		}
		p.stack.Push(v)
	case escaped(28): // exch
		b, err1 := p.stack.Pop()
		a, err2 := p.stack.Pop()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		p.stack.Push(b)
		p.stack.Push(a)
	case escaped(29): // index clamps negative indices to 0 and yields 0 out of range
		n, err := p.stack.PopInt()
		if err != nil {
			fail()
			return
		}
		if n < 0 {
			n = 0
		}
		if p.stack.Size() <= n {
			p.stack.Push(0.0)
		} else {
			p.stack.Push(p.stack.Get(p.stack.Size() - 1 - n))
		}
	case escaped(30): // roll rotates the top n operands by j positions
		j, err1 := p.stack.PopInt()
		n, err2 := p.stack.PopInt()
		if err1 != nil || err2 != nil {
			fail()
			return
		}
		if n <= 1 {
			return
		}
		if p.stack.Size() < n {
			fail()
			return
		}
		j = ((j % n) + n) % n
		if j == 0 {
			return
		}
		k := p.stack.Size() - n
		top := make([]float64, n)
		for i := 0; i < n; i++ {
			top[i] = p.stack.Get(k + i)
		}
		for i := 0; i < n; i++ {
			p.stack.Set(k+(i+j)%n, top[i])
		}
	}
}

func (p *Type2Parser) emit(cmd Type2Command) error {
	if err := p.dst.Apply(cmd, p.stack); err != nil {
		return err
	}
	p.stack.Clear()
	return nil
}

func (p *Type2Parser) push(v float64) error {
	if 2*type2StackLimit <= p.stack.Size() {
		return fmt.Errorf("Type2: operand stack overflow")
	} else if type2StackLimit == p.stack.Size() {
		p.warnf("Type2: operand stack full")
	}
	p.stack.Push(v)
	return nil
}

func boolOperand(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// readType2Number decodes the Type 2 and CFF2 number encodings: the Type 1 1- and
// 2-byte integers, the dedicated 2-byte short int, and the 5-byte 16.16 fixed point.
func readType2Number(r *parse.BinaryReader, b0 uint8) (float64, bool) {
	if b0 == 28 {
		if r.Len() < 2 {
			return 0.0, false
		}
		return float64(r.ReadInt16()), true
	} else if b0 <= 246 {
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
	return float64(int32(r.ReadUint32())) / 65536.0, true
}
