package charstring

import "math"

// Type2ToType1 is a Type2Consumer that lowers the Type 2 command stream to Type 1
// commands. It extracts the optional leading width operand and emits it as an
// initial hsbw, splits the multi-segment Type 2 path operators into their
// fixed-arity Type 1 counterparts, inserts closepath before each new contour,
// and rewrites the flex operators as plain curve pairs. Stem hints are consumed
// for width bookkeeping but not forwarded.
type Type2ToType1 struct {
	dst           Type1Consumer
	defaultWidthX float64
	nominalWidthX float64
	widthDone     bool
	pathOpen      bool
	out           *OperandStack
}

// NewType2ToType1 returns a converter writing to dst. A charstring that carries
// no width operand gets defaultWidthX; one that does gets nominalWidthX plus the
// operand.
func NewType2ToType1(dst Type1Consumer, defaultWidthX, nominalWidthX float64) *Type2ToType1 {
	return &Type2ToType1{
		dst:           dst,
		defaultWidthX: defaultWidthX,
		nominalWidthX: nominalWidthX,
		out:           NewOperandStack(8),
	}
}

// Apply lowers one Type 2 command.
func (c *Type2ToType1) Apply(cmd Type2Command, stack *OperandStack) error {
	switch cmd {
	case Type2HStem, Type2VStem, Type2HStemHM, Type2VStemHM:
		// hints carry the width when the operand count is odd
		return c.width(stack, stack.Size()%2 == 1)
	case Type2HintMask, Type2CntrMask:
		return c.width(stack, stack.Size()%2 == 1)
	case Type2RMoveTo:
		if err := c.width(stack, 2 < stack.Size()); err != nil {
			return err
		}
		return c.moveTo(Type1RMoveTo, stack.Get(0), stack.Get(1))
	case Type2HMoveTo:
		if err := c.width(stack, 1 < stack.Size()); err != nil {
			return err
		}
		return c.moveTo(Type1HMoveTo, stack.Get(0))
	case Type2VMoveTo:
		if err := c.width(stack, 1 < stack.Size()); err != nil {
			return err
		}
		return c.moveTo(Type1VMoveTo, stack.Get(0))
	case Type2RLineTo:
		for i := 0; i+1 < stack.Size(); i += 2 {
			if err := c.emit(Type1RLineTo, stack.Get(i), stack.Get(i+1)); err != nil {
				return err
			}
		}
	case Type2HLineTo, Type2VLineTo:
		horizontal := cmd == Type2HLineTo
		for i := 0; i < stack.Size(); i++ {
			lineTo := Type1HLineTo
			if !horizontal {
				lineTo = Type1VLineTo
			}
			if err := c.emit(lineTo, stack.Get(i)); err != nil {
				return err
			}
			horizontal = !horizontal
		}
	case Type2RRCurveTo:
		for i := 0; i+5 < stack.Size(); i += 6 {
			if err := c.curve(stack, i); err != nil {
				return err
			}
		}
	case Type2HHCurveTo:
		dy1 := 0.0
		i := 0
		if stack.Size()%4 == 1 {
			dy1 = stack.Get(0)
			i = 1
		}
		for ; i+3 < stack.Size(); i += 4 {
			if err := c.emit(Type1RRCurveTo, stack.Get(i), dy1, stack.Get(i+1), stack.Get(i+2), stack.Get(i+3), 0.0); err != nil {
				return err
			}
			dy1 = 0.0
		}
	case Type2VVCurveTo:
		dx1 := 0.0
		i := 0
		if stack.Size()%4 == 1 {
			dx1 = stack.Get(0)
			i = 1
		}
		for ; i+3 < stack.Size(); i += 4 {
			if err := c.emit(Type1RRCurveTo, dx1, stack.Get(i), stack.Get(i+1), stack.Get(i+2), 0.0, stack.Get(i+3)); err != nil {
				return err
			}
			dx1 = 0.0
		}
	case Type2HVCurveTo, Type2VHCurveTo:
		horizontal := cmd == Type2HVCurveTo
		n := stack.Size()
		for i := 0; i+3 < n; i += 4 {
			// the last curve may carry a fifth operand for the other axis
			dLast := 0.0
			if n-i == 5 {
				dLast = stack.Get(i + 4)
			}
			var err error
			if horizontal {
				err = c.emit(Type1RRCurveTo, stack.Get(i), 0.0, stack.Get(i+1), stack.Get(i+2), dLast, stack.Get(i+3))
			} else {
				err = c.emit(Type1RRCurveTo, 0.0, stack.Get(i), stack.Get(i+1), stack.Get(i+2), stack.Get(i+3), dLast)
			}
			if err != nil {
				return err
			}
			horizontal = !horizontal
		}
	case Type2RCurveLine:
		i := 0
		for ; i+7 < stack.Size(); i += 6 {
			if err := c.curve(stack, i); err != nil {
				return err
			}
		}
		if err := c.emit(Type1RLineTo, stack.Get(i), stack.Get(i+1)); err != nil {
			return err
		}
	case Type2RLineCurve:
		i := 0
		for ; i+7 < stack.Size(); i += 2 {
			if err := c.emit(Type1RLineTo, stack.Get(i), stack.Get(i+1)); err != nil {
				return err
			}
		}
		if err := c.curve(stack, i); err != nil {
			return err
		}
	case Type2Flex:
		// the flex depth operand is dropped
		if err := c.curve(stack, 0); err != nil {
			return err
		}
		return c.curve(stack, 6)
	case Type2HFlex:
		dy2 := stack.Get(2)
		if err := c.emit(Type1RRCurveTo, stack.Get(0), 0.0, stack.Get(1), dy2, stack.Get(3), 0.0); err != nil {
			return err
		}
		return c.emit(Type1RRCurveTo, stack.Get(4), 0.0, stack.Get(5), -dy2, stack.Get(6), 0.0)
	case Type2HFlex1:
		dySum := stack.Get(1) + stack.Get(3) + stack.Get(7)
		if err := c.emit(Type1RRCurveTo, stack.Get(0), stack.Get(1), stack.Get(2), stack.Get(3), stack.Get(4), 0.0); err != nil {
			return err
		}
		return c.emit(Type1RRCurveTo, stack.Get(5), 0.0, stack.Get(6), stack.Get(7), stack.Get(8), -dySum)
	case Type2Flex1:
		dx := stack.Get(0) + stack.Get(2) + stack.Get(4) + stack.Get(6) + stack.Get(8)
		dy := stack.Get(1) + stack.Get(3) + stack.Get(5) + stack.Get(7) + stack.Get(9)
		if err := c.curve(stack, 0); err != nil {
			return err
		}
		// the single closing operand is on the dominant axis, the other axis
		// returns to the start height or width
		if math.Abs(dy) < math.Abs(dx) {
			return c.emit(Type1RRCurveTo, stack.Get(6), stack.Get(7), stack.Get(8), stack.Get(9), stack.Get(10), -dy)
		}
		return c.emit(Type1RRCurveTo, stack.Get(6), stack.Get(7), stack.Get(8), stack.Get(9), -dx, stack.Get(10))
	case Type2EndChar:
		if err := c.width(stack, stack.Size() == 1 || stack.Size() == 5); err != nil {
			return err
		}
		if err := c.closePath(); err != nil {
			return err
		}
		if stack.Size() == 4 {
			// the deprecated accented-character form maps onto seac
			if err := c.emit(Type1Seac, 0.0, stack.Get(0), stack.Get(1), stack.Get(2), stack.Get(3)); err != nil {
				return err
			}
		}
		return c.emit(Type1EndChar)
	}
	// vsindex and blend do not occur in Type 2 charstrings and are dropped
	return nil
}

// End finishes the downstream consumer. A charstring that never reached a
// stack-clearing operator still gets its default width.
func (c *Type2ToType1) End() error {
	if err := c.width(nil, false); err != nil {
		return err
	}
	return c.dst.End()
}

// width emits the initial hsbw once, before any other command. When hasWidth is
// set the width operand is pulled from the bottom of the stack.
func (c *Type2ToType1) width(stack *OperandStack, hasWidth bool) error {
	if c.widthDone {
		return nil
	}
	c.widthDone = true
	w := c.defaultWidthX
	if hasWidth {
		v, err := stack.Pull()
		if err != nil {
			return err
		}
		w = c.nominalWidthX + v
	}
	return c.emit(Type1Hsbw, 0.0, w)
}

func (c *Type2ToType1) moveTo(cmd Type1Command, vals ...float64) error {
	if err := c.closePath(); err != nil {
		return err
	}
	c.pathOpen = true
	return c.emit(cmd, vals...)
}

func (c *Type2ToType1) closePath() error {
	if !c.pathOpen {
		return nil
	}
	c.pathOpen = false
	return c.emit(Type1ClosePath)
}

func (c *Type2ToType1) curve(stack *OperandStack, i int) error {
	return c.emit(Type1RRCurveTo, stack.Get(i), stack.Get(i+1), stack.Get(i+2), stack.Get(i+3), stack.Get(i+4), stack.Get(i+5))
}

func (c *Type2ToType1) emit(cmd Type1Command, vals ...float64) error {
	c.out.SetTo(vals...)
	return c.dst.Apply(cmd, c.out)
}

// CFF2ToType2 is a Type2Consumer that lowers a CFF2 command stream to plain
// Type 2: blend operands are reduced to their default-instance values, vsindex
// is dropped, and the implicit end of the charstring becomes an explicit endchar.
type CFF2ToType2 struct {
	dst   Type2Consumer
	out   *OperandStack
	ended bool
}

// NewCFF2ToType2 returns a converter writing to dst.
func NewCFF2ToType2(dst Type2Consumer) *CFF2ToType2 {
	return &CFF2ToType2{dst: dst, out: NewOperandStack(0)}
}

// Apply lowers one CFF2 command.
func (c *CFF2ToType2) Apply(cmd Type2Command, stack *OperandStack) error {
	switch cmd {
	case Type2VSIndex:
		return nil
	case Type2Blend:
		// drop the delta operands, keeping the default values beneath them
		n, err := stack.PopInt()
		if err != nil {
			return nil
		}
		for i := 0; i < n && 0 < stack.Size(); i++ {
			stack.Pop()
		}
		return nil
	case Type2EndChar:
		c.ended = true
	}
	return c.dst.Apply(cmd, stack)
}

// End synthesizes the endchar that CFF2 leaves implicit and finishes the
// downstream consumer.
func (c *CFF2ToType2) End() error {
	if !c.ended {
		c.out.Clear()
		if err := c.dst.Apply(Type2EndChar, c.out); err != nil {
			return err
		}
	}
	return c.dst.End()
}
