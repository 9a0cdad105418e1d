package charstring

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Pather is an interface to append a glyph's path to.
type Pather interface {
	MoveTo(float64, float64)
	LineTo(float64, float64)
	QuadTo(float64, float64, float64, float64)
	CubeTo(float64, float64, float64, float64, float64, float64)
	Close()
}

// CharStringResolver looks up the charstring of a glyph by its standard-encoding
// character code. It is needed to draw the base and accent components of seac.
type CharStringResolver interface {
	CharString(code int) ([]byte, error)
}

// GlyphBuilder is a Type1Consumer that draws the command stream onto a Pather.
// It tracks the current point, reassembles the flex hint sequences of othersubrs
// 0 and 1 into curve pairs, and composes accented characters for seac. Stem
// hints and dotsection are accepted and ignored.
type GlyphBuilder struct {
	p        Pather
	subrs    *Index
	resolver CharStringResolver

	x, y          float64
	sbx, sby      float64
	width, widthY float64
	pathOpen      bool
	isFlex        bool
	flex          []float64 // absolute coordinate pairs collected during flex
	warnings
}

// NewGlyphBuilder returns a builder drawing onto p. subrs and resolver are only
// used to draw seac components and may be nil.
func NewGlyphBuilder(p Pather, subrs *Index, resolver CharStringResolver) *GlyphBuilder {
	return &GlyphBuilder{p: p, subrs: subrs, resolver: resolver}
}

// Width returns the glyph's advance as set by hsbw or sbw.
func (g *GlyphBuilder) Width() (float64, float64) {
	return g.width, g.widthY
}

// Apply draws one command.
func (g *GlyphBuilder) Apply(cmd Type1Command, stack *OperandStack) error {
	switch cmd {
	case Type1Hsbw:
		g.sbx = stack.Get(0)
		g.sby = 0.0
		g.width = stack.Get(1)
		g.widthY = 0.0
		g.x = g.sbx
		g.y = 0.0
	case Type1Sbw:
		g.sbx = stack.Get(0)
		g.sby = stack.Get(1)
		g.width = stack.Get(2)
		g.widthY = stack.Get(3)
		g.x = g.sbx
		g.y = g.sby
	case Type1RMoveTo:
		g.moveTo(stack.Get(0), stack.Get(1))
	case Type1HMoveTo:
		g.moveTo(stack.Get(0), 0.0)
	case Type1VMoveTo:
		g.moveTo(0.0, stack.Get(0))
	case Type1RLineTo:
		g.lineTo(stack.Get(0), stack.Get(1))
	case Type1HLineTo:
		g.lineTo(stack.Get(0), 0.0)
	case Type1VLineTo:
		g.lineTo(0.0, stack.Get(0))
	case Type1RRCurveTo:
		g.curveTo(stack.Get(0), stack.Get(1), stack.Get(2), stack.Get(3), stack.Get(4), stack.Get(5))
	case Type1VHCurveTo:
		g.curveTo(0.0, stack.Get(0), stack.Get(1), stack.Get(2), stack.Get(3), 0.0)
	case Type1HVCurveTo:
		g.curveTo(stack.Get(0), 0.0, stack.Get(1), stack.Get(2), 0.0, stack.Get(3))
	case Type1ClosePath:
		// closepath does not move the current point
		if g.pathOpen {
			g.p.Close()
			g.pathOpen = false
		}
	case Type1CallOtherSubr:
		g.otherSubr(stack)
	case Type1Seac:
		return g.seac(stack)
	case Type1SetCurrentPoint:
		g.x = stack.Get(0)
		g.y = stack.Get(1)
	case Type1EndChar:
		if g.pathOpen {
			g.p.Close()
			g.pathOpen = false
		}
	case Type1HStem, Type1VStem, Type1HStem3, Type1VStem3, Type1DotSection:
		// hinting is not used
	}
	return nil
}

// End implements Type1Consumer.
func (g *GlyphBuilder) End() error {
	if g.pathOpen {
		g.p.Close()
		g.pathOpen = false
	}
	return nil
}

func (g *GlyphBuilder) moveTo(dx, dy float64) {
	g.x += dx
	g.y += dy
	if g.isFlex {
		// during flex the rmoveto arguments are curve points, not a new contour
		g.flex = append(g.flex, g.x, g.y)
		return
	}
	g.p.MoveTo(g.x, g.y)
	g.pathOpen = true
}

func (g *GlyphBuilder) lineTo(dx, dy float64) {
	if !g.pathOpen {
		g.warnf("Type1: lineto without moveto")
	}
	g.x += dx
	g.y += dy
	g.p.LineTo(g.x, g.y)
}

func (g *GlyphBuilder) curveTo(dx1, dy1, dx2, dy2, dx3, dy3 float64) {
	if !g.pathOpen {
		g.warnf("Type1: curveto without moveto")
	}
	cpx1, cpy1 := g.x+dx1, g.y+dy1
	cpx2, cpy2 := cpx1+dx2, cpy1+dy2
	g.x, g.y = cpx2+dx3, cpy2+dy3
	g.p.CubeTo(cpx1, cpy1, cpx2, cpy2, g.x, g.y)
}

// otherSubr handles the flex markers. Othersubr 1 starts collecting the seven
// flex points delivered as rmoveto arguments, othersubr 0 replays them as two
// curves. The first collected point is the flex reference point and is only
// used for hinting.
func (g *GlyphBuilder) otherSubr(stack *OperandStack) {
	switch stack.Get(0) {
	case 0.0:
		if !g.isFlex {
			g.warnf("Type1: flex end without flex begin")
			return
		}
		g.isFlex = false
		if len(g.flex) < 14 {
			g.warnf("Type1: flex with too few points")
			g.flex = g.flex[:0]
			return
		}
		g.p.CubeTo(g.flex[2], g.flex[3], g.flex[4], g.flex[5], g.flex[6], g.flex[7])
		g.p.CubeTo(g.flex[8], g.flex[9], g.flex[10], g.flex[11], g.flex[12], g.flex[13])
		g.x, g.y = g.flex[12], g.flex[13]
		g.flex = g.flex[:0]
	case 1.0:
		if !g.pathOpen {
			g.warnf("Type1: flex without moveto")
		}
		g.isFlex = true
		g.flex = g.flex[:0]
	}
}

// seac draws an accented character by resolving and drawing the base glyph and
// the accent glyph, the latter translated into place.
func (g *GlyphBuilder) seac(stack *OperandStack) error {
	if g.resolver == nil {
		g.warnf("Type1: seac without charstring resolver")
		return nil
	}
	asb, adx, ady := stack.Get(0), stack.Get(1), stack.Get(2)
	bchar, err1 := stack.GetInt(3)
	achar, err2 := stack.GetInt(4)
	if err1 != nil || err2 != nil {
		g.warnf("Type1: seac: bad character codes")
		return nil
	}
	if err := g.component(bchar, g.p); err != nil {
		g.warnf("Type1: seac base: %v", err)
	}
	// the accent is shifted so that its left sidebearing point lands at adx
	accent := &translatePather{p: g.p, dx: g.sbx + adx - asb, dy: ady}
	if err := g.component(achar, accent); err != nil {
		g.warnf("Type1: seac accent: %v", err)
	}
	return nil
}

func (g *GlyphBuilder) component(code int, p Pather) error {
	charString, err := g.resolver.CharString(code)
	if err != nil {
		return err
	}
	// components may not use seac themselves
	sub := NewGlyphBuilder(p, g.subrs, nil)
	parser := NewType1Parser(g.subrs)
	if err := parser.Parse(charString, sub); err != nil {
		return err
	}
	g.list = append(g.list, parser.Warnings()...)
	g.list = append(g.list, sub.Warnings()...)
	return nil
}

// translatePather draws onto p with all coordinates offset by (dx, dy).
type translatePather struct {
	p      Pather
	dx, dy float64
}

func (t *translatePather) MoveTo(x, y float64) {
	t.p.MoveTo(x+t.dx, y+t.dy)
}

func (t *translatePather) LineTo(x, y float64) {
	t.p.LineTo(x+t.dx, y+t.dy)
}

func (t *translatePather) QuadTo(cpx, cpy, x, y float64) {
	t.p.QuadTo(cpx+t.dx, cpy+t.dy, x+t.dx, y+t.dy)
}

func (t *translatePather) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	t.p.CubeTo(cpx1+t.dx, cpy1+t.dy, cpx2+t.dx, cpy2+t.dy, x+t.dx, y+t.dy)
}

func (t *translatePather) Close() {
	t.p.Close()
}

// BBoxPather is a Pather that accumulates the control-point bounding box of
// everything drawn onto it.
type BBoxPather struct {
	XMin, YMin, XMax, YMax float64
}

// NewBBoxPather returns an empty bounding box.
func NewBBoxPather() *BBoxPather {
	return &BBoxPather{
		XMin: math.Inf(1),
		YMin: math.Inf(1),
		XMax: math.Inf(-1),
		YMax: math.Inf(-1),
	}
}

func (p *BBoxPather) add(x, y float64) {
	p.XMin = math.Min(p.XMin, x)
	p.XMax = math.Max(p.XMax, x)
	p.YMin = math.Min(p.YMin, y)
	p.YMax = math.Max(p.YMax, y)
}

func (p *BBoxPather) MoveTo(x, y float64) {
	p.add(x, y)
}

func (p *BBoxPather) LineTo(x, y float64) {
	p.add(x, y)
}

func (p *BBoxPather) QuadTo(cpx, cpy, x, y float64) {
	p.add(cpx, cpy)
	p.add(x, y)
}

func (p *BBoxPather) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	p.add(cpx1, cpy1)
	p.add(cpx2, cpy2)
	p.add(x, y)
}

func (p *BBoxPather) Close() {
}

// SegmentOp is a vector path segment's operator.
type SegmentOp uint32

const (
	SegmentOpMoveTo SegmentOp = iota
	SegmentOpLineTo
	SegmentOpQuadTo
	SegmentOpCubeTo
)

// Segment is a segment of a vector path in 26.6 fixed-point units.
type Segment struct {
	Op   SegmentOp
	Args [6]fixed.Int26_6
}

// SegmentsPather is a Pather that records the path as a flat list of segments,
// the representation used by golang.org/x/image/font/sfnt. Contours are closed
// implicitly.
type SegmentsPather struct {
	Segments []Segment
}

func (p *SegmentsPather) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegmentOpMoveTo, Args: [6]fixed.Int26_6{toFixed(x), toFixed(y)}})
}

func (p *SegmentsPather) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegmentOpLineTo, Args: [6]fixed.Int26_6{toFixed(x), toFixed(y)}})
}

func (p *SegmentsPather) QuadTo(cpx, cpy, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegmentOpQuadTo, Args: [6]fixed.Int26_6{toFixed(cpx), toFixed(cpy), toFixed(x), toFixed(y)}})
}

func (p *SegmentsPather) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegmentOpCubeTo, Args: [6]fixed.Int26_6{toFixed(cpx1), toFixed(cpy1), toFixed(cpx2), toFixed(cpy2), toFixed(x), toFixed(y)}})
}

func (p *SegmentsPather) Close() {
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64.0))
}

// DrawType1 interprets a Type 1 charstring and draws it onto p. It returns the
// warnings of the parse and the draw.
func DrawType1(p Pather, charString []byte, subrs *Index, resolver CharStringResolver) ([]string, error) {
	g := NewGlyphBuilder(p, subrs, resolver)
	parser := NewType1Parser(subrs)
	if err := parser.Parse(charString, g); err != nil {
		return nil, err
	}
	return append(parser.Warnings(), g.Warnings()...), nil
}

// DrawType2 interprets a Type 2 charstring and draws it onto p.
func DrawType2(p Pather, charString []byte, localSubrs, globalSubrs *Index, defaultWidthX, nominalWidthX float64) ([]string, error) {
	g := NewGlyphBuilder(p, nil, nil)
	parser := NewType2Parser(localSubrs, globalSubrs)
	if err := parser.Parse(charString, NewType2ToType1(g, defaultWidthX, nominalWidthX)); err != nil {
		return nil, err
	}
	return append(parser.Warnings(), g.Warnings()...), nil
}

// DrawCFF2 interprets a CFF2 charstring at the default instance and draws it
// onto p. CFF2 stores glyph advances outside the charstring, so the builder's
// width is left zero.
func DrawCFF2(p Pather, charString []byte, localSubrs, globalSubrs *Index) ([]string, error) {
	g := NewGlyphBuilder(p, nil, nil)
	parser := NewCFF2Parser(localSubrs, globalSubrs)
	if err := parser.Parse(charString, NewCFF2ToType2(NewType2ToType1(g, 0.0, 0.0))); err != nil {
		return nil, err
	}
	return append(parser.Warnings(), g.Warnings()...), nil
}
