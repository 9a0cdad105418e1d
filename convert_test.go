package charstring

import (
	"testing"

	"github.com/tdewolff/test"
)

func parseType2ToType1(t *testing.T, charString []byte, defaultWidthX, nominalWidthX float64) *t1Recorder {
	rec := &t1Recorder{}
	p := NewType2Parser(nil, nil)
	err := p.Parse(charString, NewType2ToType1(rec, defaultWidthX, nominalWidthX))
	test.Error(t, err)
	return rec
}

func TestType2ToType1(t *testing.T) {
	charString := []byte{
		enc(5), enc(5), 21, // rmoveto
		enc(2), enc(2), 5, // rlineto
		14, // endchar
	}
	rec := parseType2ToType1(t, charString, 500.0, 400.0)

	test.T(t, len(rec.cmds), 5)
	test.T(t, rec.cmds[0].cmd, Type1Hsbw)
	test.Float(t, rec.cmds[0].args[0], 0.0)
	test.Float(t, rec.cmds[0].args[1], 500.0)
	test.T(t, rec.cmds[1].cmd, Type1RMoveTo)
	test.T(t, rec.cmds[2].cmd, Type1RLineTo)
	test.T(t, rec.cmds[3].cmd, Type1ClosePath)
	test.T(t, rec.cmds[4].cmd, Type1EndChar)
	test.That(t, rec.ended)
}

func TestType2ToType1Width(t *testing.T) {
	charString := []byte{
		enc(20), enc(5), enc(5), 21, // width rmoveto
		14,
	}
	rec := parseType2ToType1(t, charString, 500.0, 400.0)

	test.T(t, rec.cmds[0].cmd, Type1Hsbw)
	test.Float(t, rec.cmds[0].args[1], 420.0)
	test.T(t, rec.cmds[1].cmd, Type1RMoveTo)
	test.Float(t, rec.cmds[1].args[0], 5.0)
}

func TestType2ToType1WidthOnHint(t *testing.T) {
	charString := []byte{
		enc(20), enc(0), enc(10), 1, // width hstem
		enc(5), 22, // hmoveto
		14,
	}
	rec := parseType2ToType1(t, charString, 500.0, 400.0)

	// hints are dropped but their width is kept
	test.T(t, rec.cmds[0].cmd, Type1Hsbw)
	test.Float(t, rec.cmds[0].args[1], 420.0)
	test.T(t, rec.cmds[1].cmd, Type1HMoveTo)
}

func TestType2ToType1WidthOnEndchar(t *testing.T) {
	charString := []byte{
		enc(20), 14, // width endchar
	}
	rec := parseType2ToType1(t, charString, 500.0, 400.0)

	test.T(t, len(rec.cmds), 2)
	test.T(t, rec.cmds[0].cmd, Type1Hsbw)
	test.Float(t, rec.cmds[0].args[1], 420.0)
	test.T(t, rec.cmds[1].cmd, Type1EndChar)
}

func TestType2ToType1MultiMove(t *testing.T) {
	// a second contour closes the first
	charString := []byte{
		enc(5), enc(5), 21,
		enc(2), enc(2), 5,
		enc(50), enc(0), 21,
		enc(2), enc(2), 5,
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	cmds := make([]Type1Command, len(rec.cmds))
	for i, c := range rec.cmds {
		cmds[i] = c.cmd
	}
	test.T(t, cmds, []Type1Command{
		Type1Hsbw, Type1RMoveTo, Type1RLineTo, Type1ClosePath,
		Type1RMoveTo, Type1RLineTo, Type1ClosePath, Type1EndChar,
	})
}

func TestType2ToType1Lines(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(1), enc(2), enc(3), 6, // hlineto, alternating
		enc(4), enc(5), enc(6), enc(7), 5, // rlineto, two segments
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, rec.cmds[2].cmd, Type1HLineTo)
	test.Float(t, rec.cmds[2].args[0], 1.0)
	test.T(t, rec.cmds[3].cmd, Type1VLineTo)
	test.Float(t, rec.cmds[3].args[0], 2.0)
	test.T(t, rec.cmds[4].cmd, Type1HLineTo)
	test.Float(t, rec.cmds[4].args[0], 3.0)
	test.T(t, rec.cmds[5].cmd, Type1RLineTo)
	test.T(t, rec.cmds[6].cmd, Type1RLineTo)
	test.Float(t, rec.cmds[6].args[1], 7.0)
}

func TestType2ToType1Curves(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(1), enc(2), enc(3), enc(4), enc(5), 31, // hvcurveto with fifth operand
		enc(9), enc(1), enc(2), enc(3), enc(4), 27, // hhcurveto with leading dy
		enc(9), enc(1), enc(2), enc(3), enc(4), 26, // vvcurveto with leading dx
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, rec.cmds[2].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[2].args, []float64{1.0, 0.0, 2.0, 3.0, 5.0, 4.0})
	test.T(t, rec.cmds[3].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[3].args, []float64{1.0, 9.0, 2.0, 3.0, 4.0, 0.0})
	test.T(t, rec.cmds[4].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[4].args, []float64{9.0, 1.0, 2.0, 3.0, 0.0, 4.0})
}

func TestType2ToType1CurveLine(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(1), enc(2), enc(3), enc(4), enc(5), enc(6), enc(7), enc(8), 24, // rcurveline
		enc(1), enc(2), enc(3), enc(4), enc(5), enc(6), enc(7), enc(8), 25, // rlinecurve
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, rec.cmds[2].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[3].cmd, Type1RLineTo)
	test.T(t, rec.cmds[3].args, []float64{7.0, 8.0})
	test.T(t, rec.cmds[4].cmd, Type1RLineTo)
	test.T(t, rec.cmds[5].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[5].args, []float64{3.0, 4.0, 5.0, 6.0, 7.0, 8.0})
}

func TestType2ToType1Flex(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(1), enc(2), enc(3), enc(4), enc(5), enc(6), enc(7), 12, 34, // hflex
		enc(1), enc(2), enc(3), enc(4), enc(5), enc(6), enc(7), enc(8), enc(9), 12, 36, // hflex1
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, rec.cmds[2].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[2].args, []float64{1.0, 0.0, 2.0, 3.0, 4.0, 0.0})
	test.T(t, rec.cmds[3].cmd, Type1RRCurveTo)
	test.T(t, rec.cmds[3].args, []float64{5.0, 0.0, 6.0, -3.0, 7.0, 0.0})

	test.T(t, rec.cmds[4].args, []float64{1.0, 2.0, 3.0, 4.0, 5.0, 0.0})
	test.T(t, rec.cmds[5].args, []float64{6.0, 0.0, 7.0, 8.0, 9.0, -14.0})
}

func TestType2ToType1Flex1(t *testing.T) {
	// dx = 15, dy = 5: the horizontal axis dominates
	charString := []byte{
		enc(0), enc(0), 21,
		enc(1), enc(1), enc(2), enc(1), enc(3), enc(1), enc(4), enc(1), enc(5), enc(1), enc(6), 12, 37,
		14,
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, rec.cmds[2].args, []float64{1.0, 1.0, 2.0, 1.0, 3.0, 1.0})
	test.T(t, rec.cmds[3].args, []float64{4.0, 1.0, 5.0, 1.0, 6.0, -5.0})
}

func TestType2ToType1Seac(t *testing.T) {
	charString := []byte{
		enc(3), enc(4), enc(65), enc(39), 14, // endchar adx ady bchar achar
	}
	rec := parseType2ToType1(t, charString, 0.0, 0.0)

	test.T(t, len(rec.cmds), 3)
	test.T(t, rec.cmds[1].cmd, Type1Seac)
	test.T(t, rec.cmds[1].args, []float64{0.0, 3.0, 4.0, 65.0, 39.0})
	test.T(t, rec.cmds[2].cmd, Type1EndChar)
}

func TestCFF2ToType2(t *testing.T) {
	charString := []byte{
		enc(1), 15, // vsindex, dropped
		enc(10), enc(20), enc(30), enc(1), enc(2), enc(2), 16, // blend drops the two deltas
		21, // rmoveto on the three remaining defaults, 10 acts as the width
		enc(5), enc(5), 5,
	}

	rec := &t2Recorder{}
	p := NewCFF2Parser(nil, nil)
	err := p.Parse(charString, NewCFF2ToType2(rec))
	test.Error(t, err)
	test.T(t, len(p.Warnings()), 0)
	test.That(t, rec.ended)

	test.T(t, len(rec.cmds), 3)
	test.T(t, rec.cmds[0].cmd, Type2RMoveTo)
	test.T(t, rec.cmds[0].args, []float64{10.0, 20.0, 30.0})
	test.T(t, rec.cmds[1].cmd, Type2RLineTo)
	test.T(t, rec.cmds[2].cmd, Type2EndChar)
}

func TestCFF2ToType1Chain(t *testing.T) {
	// CFF2 to Type 2 to Type 1, the full decoration chain
	charString := []byte{
		enc(10), enc(20), 21,
		enc(5), enc(5), 5,
	}

	rec := &t1Recorder{}
	p := NewCFF2Parser(nil, nil)
	err := p.Parse(charString, NewCFF2ToType2(NewType2ToType1(rec, 0.0, 0.0)))
	test.Error(t, err)
	test.That(t, rec.ended)

	cmds := make([]Type1Command, len(rec.cmds))
	for i, c := range rec.cmds {
		cmds[i] = c.cmd
	}
	test.T(t, cmds, []Type1Command{
		Type1Hsbw, Type1RMoveTo, Type1RLineTo, Type1ClosePath, Type1EndChar,
	})
}
