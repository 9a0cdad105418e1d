package charstring

// Type1Command is a logical Type 1 charstring command as emitted to a Type1Consumer.
type Type1Command uint8

const (
	type1None Type1Command = iota // consumed internally, never emitted

	Type1HStem
	Type1VStem
	Type1VMoveTo
	Type1RLineTo
	Type1HLineTo
	Type1VLineTo
	Type1RRCurveTo
	Type1ClosePath
	Type1Hsbw
	Type1EndChar
	Type1RMoveTo
	Type1HMoveTo
	Type1VHCurveTo
	Type1HVCurveTo
	Type1DotSection
	Type1VStem3
	Type1HStem3
	Type1Seac
	Type1Sbw
	Type1CallOtherSubr
	Type1SetCurrentPoint
)

func (cmd Type1Command) String() string {
	switch cmd {
	case Type1HStem:
		return "hstem"
	case Type1VStem:
		return "vstem"
	case Type1VMoveTo:
		return "vmoveto"
	case Type1RLineTo:
		return "rlineto"
	case Type1HLineTo:
		return "hlineto"
	case Type1VLineTo:
		return "vlineto"
	case Type1RRCurveTo:
		return "rrcurveto"
	case Type1ClosePath:
		return "closepath"
	case Type1Hsbw:
		return "hsbw"
	case Type1EndChar:
		return "endchar"
	case Type1RMoveTo:
		return "rmoveto"
	case Type1HMoveTo:
		return "hmoveto"
	case Type1VHCurveTo:
		return "vhcurveto"
	case Type1HVCurveTo:
		return "hvcurveto"
	case Type1DotSection:
		return "dotsection"
	case Type1VStem3:
		return "vstem3"
	case Type1HStem3:
		return "hstem3"
	case Type1Seac:
		return "seac"
	case Type1Sbw:
		return "sbw"
	case Type1CallOtherSubr:
		return "callothersubr"
	case Type1SetCurrentPoint:
		return "setcurrentpoint"
	}
	return "???"
}

// Type2Command is a logical Type 2 (or CFF2) charstring command as emitted to a
// Type2Consumer. The CFF2 dialect uses the same command set plus VSIndex and Blend.
type Type2Command uint8

const (
	type2None Type2Command = iota

	Type2HStem
	Type2VStem
	Type2HStemHM
	Type2VStemHM
	Type2HintMask
	Type2CntrMask
	Type2RMoveTo
	Type2HMoveTo
	Type2VMoveTo
	Type2RLineTo
	Type2HLineTo
	Type2VLineTo
	Type2RRCurveTo
	Type2HHCurveTo
	Type2VVCurveTo
	Type2HVCurveTo
	Type2VHCurveTo
	Type2RCurveLine
	Type2RLineCurve
	Type2Flex
	Type2HFlex
	Type2HFlex1
	Type2Flex1
	Type2EndChar
	Type2VSIndex
	Type2Blend
)

func (cmd Type2Command) String() string {
	switch cmd {
	case Type2HStem:
		return "hstem"
	case Type2VStem:
		return "vstem"
	case Type2HStemHM:
		return "hstemhm"
	case Type2VStemHM:
		return "vstemhm"
	case Type2HintMask:
		return "hintmask"
	case Type2CntrMask:
		return "cntrmask"
	case Type2RMoveTo:
		return "rmoveto"
	case Type2HMoveTo:
		return "hmoveto"
	case Type2VMoveTo:
		return "vmoveto"
	case Type2RLineTo:
		return "rlineto"
	case Type2HLineTo:
		return "hlineto"
	case Type2VLineTo:
		return "vlineto"
	case Type2RRCurveTo:
		return "rrcurveto"
	case Type2HHCurveTo:
		return "hhcurveto"
	case Type2VVCurveTo:
		return "vvcurveto"
	case Type2HVCurveTo:
		return "hvcurveto"
	case Type2VHCurveTo:
		return "vhcurveto"
	case Type2RCurveLine:
		return "rcurveline"
	case Type2RLineCurve:
		return "rlinecurve"
	case Type2Flex:
		return "flex"
	case Type2HFlex:
		return "hflex"
	case Type2HFlex1:
		return "hflex1"
	case Type2Flex1:
		return "flex1"
	case Type2EndChar:
		return "endchar"
	case Type2VSIndex:
		return "vsindex"
	case Type2Blend:
		return "blend"
	}
	return "???"
}

// argRule describes one element of an operand-count grammar: between min and max
// repetitions of count operands each. A negative max means unbounded.
type argRule struct {
	count    int
	min, max int
}

// operator describes a dialect opcode: its operand grammar, whether the operand
// stack survives dispatch, and the logical command it maps to (the zero command
// for opcodes that are consumed internally).
type operator struct {
	name      string
	rules     [][]argRule // alternative rule sequences; nil accepts any stack
	keepStack bool
	t1        Type1Command
	t2        Type2Command
}

// minArgs returns the minimum number of operands that satisfies any alternative.
func (op *operator) minArgs() int {
	if op.rules == nil {
		return 0
	}
	min := -1
	for _, seq := range op.rules {
		n := 0
		for _, r := range seq {
			n += r.count * r.min
		}
		if min < 0 || n < min {
			min = n
		}
	}
	return min
}

// verify reports whether size operands exactly satisfy the operator's grammar.
func (op *operator) verify(size int) bool {
	if op.rules == nil {
		return true
	}
	for _, seq := range op.rules {
		if verifyRules(seq, size) {
			return true
		}
	}
	return false
}

func verifyRules(seq []argRule, size int) bool {
	if len(seq) == 0 {
		return size == 0
	}
	r := seq[0]
	max := r.max
	if max < 0 {
		max = size / r.count
	}
	for n := r.min; n <= max; n++ {
		if size < n*r.count {
			break
		}
		if verifyRules(seq[1:], size-n*r.count) {
			return true
		}
	}
	return false
}

// exactly is the grammar of a fixed-arity operator.
func exactly(n int) [][]argRule {
	return [][]argRule{{{1, n, n}}}
}

const escape = 12 // escape byte selecting the two-byte operator table

// Two-byte opcodes are keyed as 0x0c00 | second byte.
func escaped(b1 uint16) uint16 {
	return 0x0c00 | b1
}

// type1Ops is the Type 1 operator table, keyed by opcode.
var type1Ops = map[uint16]operator{
	1:  {name: "hstem", rules: exactly(2), t1: Type1HStem},
	3:  {name: "vstem", rules: exactly(2), t1: Type1VStem},
	4:  {name: "vmoveto", rules: exactly(1), t1: Type1VMoveTo},
	5:  {name: "rlineto", rules: exactly(2), t1: Type1RLineTo},
	6:  {name: "hlineto", rules: exactly(1), t1: Type1HLineTo},
	7:  {name: "vlineto", rules: exactly(1), t1: Type1VLineTo},
	8:  {name: "rrcurveto", rules: exactly(6), t1: Type1RRCurveTo},
	9:  {name: "closepath", rules: exactly(0), t1: Type1ClosePath},
	10: {name: "callsubr", rules: exactly(1), keepStack: true},
	11: {name: "return", rules: exactly(0), keepStack: true},
	13: {name: "hsbw", rules: exactly(2), t1: Type1Hsbw},
	14: {name: "endchar", rules: exactly(0), t1: Type1EndChar},
	21: {name: "rmoveto", rules: exactly(2), t1: Type1RMoveTo},
	22: {name: "hmoveto", rules: exactly(1), t1: Type1HMoveTo},
	30: {name: "vhcurveto", rules: exactly(4), t1: Type1VHCurveTo},
	31: {name: "hvcurveto", rules: exactly(4), t1: Type1HVCurveTo},

	escaped(0):  {name: "dotsection", rules: exactly(0), t1: Type1DotSection},
	escaped(1):  {name: "vstem3", rules: exactly(6), t1: Type1VStem3},
	escaped(2):  {name: "hstem3", rules: exactly(6), t1: Type1HStem3},
	escaped(6):  {name: "seac", rules: exactly(5), t1: Type1Seac},
	escaped(7):  {name: "sbw", rules: exactly(4), t1: Type1Sbw},
	escaped(12): {name: "div", rules: exactly(2), keepStack: true},
	escaped(16): {name: "callothersubr", rules: exactly(2), keepStack: true, t1: Type1CallOtherSubr},
	escaped(17): {name: "pop", rules: exactly(0), keepStack: true},
	escaped(33): {name: "setcurrentpoint", rules: exactly(2), t1: Type1SetCurrentPoint},
}

// optional width: the first stack-clearing operator of a Type 2 charstring may
// carry one extra leading operand.
var (
	stemRules  = [][]argRule{{{1, 0, 1}, {2, 1, -1}}}
	maskRules  = [][]argRule{{{1, 0, 1}, {2, 0, -1}}}
	altLine    = [][]argRule{{{1, 1, 1}, {2, 0, -1}}, {{2, 1, -1}}}
	sameCurve  = [][]argRule{{{1, 0, 1}, {4, 1, -1}}}
	altCurve   = [][]argRule{{{4, 1, -1}, {1, 0, 1}}}
	curveLine  = [][]argRule{{{6, 1, -1}, {2, 1, 1}}}
	lineCurve  = [][]argRule{{{2, 1, -1}, {6, 1, 1}}}
	endRules   = [][]argRule{{{1, 0, 1}}, {{1, 0, 1}, {4, 1, 1}}}
	moveRules  = [][]argRule{{{1, 0, 1}, {2, 1, 1}}}
	move1Rules = [][]argRule{{{1, 0, 1}, {1, 1, 1}}}
)

// type2Ops is the Type 2 operator table, keyed by opcode.
var type2Ops = map[uint16]operator{
	1:  {name: "hstem", rules: stemRules, t2: Type2HStem},
	3:  {name: "vstem", rules: stemRules, t2: Type2VStem},
	4:  {name: "vmoveto", rules: move1Rules, t2: Type2VMoveTo},
	5:  {name: "rlineto", rules: [][]argRule{{{2, 1, -1}}}, t2: Type2RLineTo},
	6:  {name: "hlineto", rules: altLine, t2: Type2HLineTo},
	7:  {name: "vlineto", rules: altLine, t2: Type2VLineTo},
	8:  {name: "rrcurveto", rules: [][]argRule{{{6, 1, -1}}}, t2: Type2RRCurveTo},
	10: {name: "callsubr", rules: exactly(1), keepStack: true},
	11: {name: "return", rules: exactly(0), keepStack: true},
	14: {name: "endchar", rules: endRules, t2: Type2EndChar},
	18: {name: "hstemhm", rules: stemRules, t2: Type2HStemHM},
	19: {name: "hintmask", rules: maskRules, t2: Type2HintMask},
	20: {name: "cntrmask", rules: maskRules, t2: Type2CntrMask},
	21: {name: "rmoveto", rules: moveRules, t2: Type2RMoveTo},
	22: {name: "hmoveto", rules: move1Rules, t2: Type2HMoveTo},
	23: {name: "vstemhm", rules: stemRules, t2: Type2VStemHM},
	24: {name: "rcurveline", rules: curveLine, t2: Type2RCurveLine},
	25: {name: "rlinecurve", rules: lineCurve, t2: Type2RLineCurve},
	26: {name: "vvcurveto", rules: sameCurve, t2: Type2VVCurveTo},
	27: {name: "hhcurveto", rules: sameCurve, t2: Type2HHCurveTo},
	29: {name: "callgsubr", rules: exactly(1), keepStack: true},
	30: {name: "vhcurveto", rules: altCurve, t2: Type2VHCurveTo},
	31: {name: "hvcurveto", rules: altCurve, t2: Type2HVCurveTo},

	escaped(3):  {name: "and", rules: exactly(2), keepStack: true},
	escaped(4):  {name: "or", rules: exactly(2), keepStack: true},
	escaped(5):  {name: "not", rules: exactly(1), keepStack: true},
	escaped(9):  {name: "abs", rules: exactly(1), keepStack: true},
	escaped(10): {name: "add", rules: exactly(2), keepStack: true},
	escaped(11): {name: "sub", rules: exactly(2), keepStack: true},
	escaped(12): {name: "div", rules: exactly(2), keepStack: true},
	escaped(14): {name: "neg", rules: exactly(1), keepStack: true},
	escaped(15): {name: "eq", rules: exactly(2), keepStack: true},
	escaped(18): {name: "drop", rules: exactly(1), keepStack: true},
	escaped(20): {name: "put", rules: exactly(2), keepStack: true},
	escaped(21): {name: "get", rules: exactly(1), keepStack: true},
	escaped(22): {name: "ifelse", rules: exactly(4), keepStack: true},
	escaped(23): {name: "random", rules: exactly(0), keepStack: true},
	escaped(24): {name: "mul", rules: exactly(2), keepStack: true},
	escaped(26): {name: "sqrt", rules: exactly(1), keepStack: true},
	escaped(27): {name: "dup", rules: exactly(1), keepStack: true},
	escaped(28): {name: "exch", rules: exactly(2), keepStack: true},
	escaped(29): {name: "index", rules: exactly(1), keepStack: true},
	escaped(30): {name: "roll", rules: exactly(2), keepStack: true},
	escaped(34): {name: "hflex", rules: exactly(7), t2: Type2HFlex},
	escaped(35): {name: "flex", rules: exactly(13), t2: Type2Flex},
	escaped(36): {name: "hflex1", rules: exactly(9), t2: Type2HFlex1},
	escaped(37): {name: "flex1", rules: exactly(11), t2: Type2Flex1},
}

// cff2Ops is the CFF2 operator table: the Type 2 path and hint operators without
// the arithmetic, storage and conditional set and without return/endchar, plus
// vsindex and blend for variable fonts.
var cff2Ops = map[uint16]operator{
	1:  {name: "hstem", rules: stemRules, t2: Type2HStem},
	3:  {name: "vstem", rules: stemRules, t2: Type2VStem},
	4:  {name: "vmoveto", rules: move1Rules, t2: Type2VMoveTo},
	5:  {name: "rlineto", rules: [][]argRule{{{2, 1, -1}}}, t2: Type2RLineTo},
	6:  {name: "hlineto", rules: altLine, t2: Type2HLineTo},
	7:  {name: "vlineto", rules: altLine, t2: Type2VLineTo},
	8:  {name: "rrcurveto", rules: [][]argRule{{{6, 1, -1}}}, t2: Type2RRCurveTo},
	10: {name: "callsubr", rules: exactly(1), keepStack: true},
	15: {name: "vsindex", rules: exactly(1), t2: Type2VSIndex},
	16: {name: "blend", rules: nil, keepStack: true, t2: Type2Blend},
	18: {name: "hstemhm", rules: stemRules, t2: Type2HStemHM},
	19: {name: "hintmask", rules: maskRules, t2: Type2HintMask},
	20: {name: "cntrmask", rules: maskRules, t2: Type2CntrMask},
	21: {name: "rmoveto", rules: moveRules, t2: Type2RMoveTo},
	22: {name: "hmoveto", rules: move1Rules, t2: Type2HMoveTo},
	23: {name: "vstemhm", rules: stemRules, t2: Type2VStemHM},
	24: {name: "rcurveline", rules: curveLine, t2: Type2RCurveLine},
	25: {name: "rlinecurve", rules: lineCurve, t2: Type2RLineCurve},
	26: {name: "vvcurveto", rules: sameCurve, t2: Type2VVCurveTo},
	27: {name: "hhcurveto", rules: sameCurve, t2: Type2HHCurveTo},
	29: {name: "callgsubr", rules: exactly(1), keepStack: true},
	30: {name: "vhcurveto", rules: altCurve, t2: Type2VHCurveTo},
	31: {name: "hvcurveto", rules: altCurve, t2: Type2HVCurveTo},

	escaped(34): {name: "hflex", rules: exactly(7), t2: Type2HFlex},
	escaped(35): {name: "flex", rules: exactly(13), t2: Type2Flex},
	escaped(36): {name: "hflex1", rules: exactly(9), t2: Type2HFlex1},
	escaped(37): {name: "flex1", rules: exactly(11), t2: Type2Flex1},
}
