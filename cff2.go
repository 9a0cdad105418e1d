package charstring

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

const cff2StackLimit = 513

// CFF2Parser interprets CFF2 charstring bytecode and emits the shared Type 2
// command vocabulary. CFF2 drops endchar, return, and the arithmetic operators
// and adds vsindex and blend for variable fonts; a charstring and its
// subroutines simply end at their last byte.
type CFF2Parser struct {
	localSubrs  *Index
	globalSubrs *Index
	stack       *OperandStack
	hstemCount  int
	vstemCount  int // -1 until the first vstem declaration
	dst         Type2Consumer
	warnings
}

// NewCFF2Parser returns a parser using the given subroutine tables, either of
// which may be nil.
func NewCFF2Parser(localSubrs, globalSubrs *Index) *CFF2Parser {
	return &CFF2Parser{
		localSubrs:  localSubrs,
		globalSubrs: globalSubrs,
		stack:       NewOperandStack(cff2StackLimit),
		vstemCount:  -1,
	}
}

// Parse interprets a single glyph's charstring and streams its commands to dst.
// The consumer receives blend with the count and delta operands still on the
// stack and is expected to reduce them to the default-instance values.
func (p *CFF2Parser) Parse(charString []byte, dst Type2Consumer) error {
	if MaxCharStringLength < len(charString) {
		return fmt.Errorf("CFF2: charstring too long")
	}
	p.stack.Clear()
	p.list = p.list[:0]
	p.hstemCount = 0
	p.vstemCount = -1
	p.dst = dst
	if err := p.parse(charString, 0); err != nil {
		return err
	}
	return dst.End()
}

func (p *CFF2Parser) parse(b []byte, depth int) error {
	if maxCallDepth < depth {
		return fmt.Errorf("CFF2: too many nested subroutines")
	}

	r := parse.NewBinaryReader(b)
	for 0 < r.Len() {
		b0 := r.ReadUint8()
		if b0 == 28 || 32 <= b0 {
			v, ok := readType2Number(r, b0)
			if !ok {
				p.warnf("CFF2: unexpected end of charstring")
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
				p.warnf("CFF2: unexpected end of charstring")
				break
			}
			code = escaped(uint16(r.ReadUint8()))
		}
		op, ok := cff2Ops[code]
		if !ok {
			p.warnf("CFF2: unknown operator %s", opName(code))
			p.stack.Clear()
			continue
		}
		if p.stack.Size() < op.minArgs() {
			p.warnf("CFF2: too few operands for %s", op.name)
			if !op.keepStack {
				p.stack.Clear()
			}
			continue
		}

		switch code {
		case 1, 18: // hstem, hstemhm
			if !op.verify(p.stack.Size()) {
				p.warnf("CFF2: bad number of operands for %s", op.name)
			}
			p.addStems(&p.hstemCount, p.stack.Size()/2)
			if err := p.emit(op.t2); err != nil {
				return err
			}
		case 3, 23: // vstem, vstemhm
			if !op.verify(p.stack.Size()) {
				p.warnf("CFF2: bad number of operands for %s", op.name)
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
				p.warnf("CFF2: %s: %v", op.name, err)
				continue
			}
			i := num + SubrBias(table.Len())
			if i < 0 || table.Len() <= i {
				p.warnf("CFF2: bad subroutine %d", num)
				continue
			}
			sub := table.Get(i)
			if MaxCharStringLength < len(sub) {
				p.warnf("CFF2: subroutine too long")
				continue
			}
			// a subroutine returns by running off its end
			if err := p.parse(sub, depth+1); err != nil {
				return err
			}
		case 15: // vsindex
			if err := p.emit(Type2VSIndex); err != nil {
				return err
			}
		case 16: // blend, the consumer reduces the deltas on the stack
			if err := p.dst.Apply(Type2Blend, p.stack); err != nil {
				return err
			}
		default:
			if !op.verify(p.stack.Size()) {
				p.warnf("CFF2: bad number of operands for %s", op.name)
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

func (p *CFF2Parser) hintmask(r *parse.BinaryReader, cmd Type2Command) error {
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
		p.warnf("CFF2: unexpected end of charstring in %s", cmd)
		n = int(r.Len())
	}
	r.ReadBytes(uint32(n))
	return p.emit(cmd)
}

func (p *CFF2Parser) addStems(dst *int, n int) {
	before := p.hstemCount
	if 0 < p.vstemCount {
		before += p.vstemCount
	}
	*dst += n
	if before <= stemHintLimit && stemHintLimit < before+n {
		p.warnf("CFF2: too many stem hints")
	}
}

func (p *CFF2Parser) emit(cmd Type2Command) error {
	if err := p.dst.Apply(cmd, p.stack); err != nil {
		return err
	}
	p.stack.Clear()
	return nil
}

func (p *CFF2Parser) push(v float64) error {
	if 2*cff2StackLimit <= p.stack.Size() {
		return fmt.Errorf("CFF2: operand stack overflow")
	} else if cff2StackLimit == p.stack.Size() {
		p.warnf("CFF2: operand stack full")
	}
	p.stack.Push(v)
	return nil
}
