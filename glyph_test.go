package charstring

import (
	"fmt"
	"testing"

	"github.com/tdewolff/test"
	"golang.org/x/image/math/fixed"
)

type pathRecorder struct {
	segs []string
}

func (p *pathRecorder) MoveTo(x, y float64) {
	p.segs = append(p.segs, fmt.Sprintf("M%v,%v", x, y))
}

func (p *pathRecorder) LineTo(x, y float64) {
	p.segs = append(p.segs, fmt.Sprintf("L%v,%v", x, y))
}

func (p *pathRecorder) QuadTo(cpx, cpy, x, y float64) {
	p.segs = append(p.segs, fmt.Sprintf("Q%v,%v %v,%v", cpx, cpy, x, y))
}

func (p *pathRecorder) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	p.segs = append(p.segs, fmt.Sprintf("C%v,%v %v,%v %v,%v", cpx1, cpy1, cpx2, cpy2, x, y))
}

func (p *pathRecorder) Close() {
	p.segs = append(p.segs, "Z")
}

func TestGlyphBuilder(t *testing.T) {
	charString := []byte{
		enc(25), enc(100), 13, // hsbw
		enc(10), enc(10), 21, // rmoveto
		enc(5), 6, // hlineto
		enc(5), 7, // vlineto
		enc(1), enc(2), enc(3), enc(4), enc(5), enc(6), 8, // rrcurveto
		9,  // closepath
		14, // endchar
	}

	path := &pathRecorder{}
	g := NewGlyphBuilder(path, nil, nil)
	p := NewType1Parser(nil)
	err := p.Parse(charString, g)
	test.Error(t, err)
	test.T(t, len(p.Warnings()), 0)
	test.T(t, len(g.Warnings()), 0)

	// hsbw puts the current point at the left sidebearing
	test.T(t, path.segs, []string{
		"M35,10", "L40,10", "L40,15", "C41,17 44,21 49,27", "Z",
	})
	width, widthY := g.Width()
	test.Float(t, width, 100.0)
	test.Float(t, widthY, 0.0)
}

func TestGlyphBuilderCurves(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 13, // hsbw
		enc(0), enc(0), 21, // rmoveto
		enc(1), enc(2), enc(3), enc(4), 30, // vhcurveto
		enc(1), enc(2), enc(3), enc(4), 31, // hvcurveto
		9, 14,
	}

	path := &pathRecorder{}
	g := NewGlyphBuilder(path, nil, nil)
	p := NewType1Parser(nil)
	err := p.Parse(charString, g)
	test.Error(t, err)

	test.T(t, path.segs[1], "C0,1 2,4 6,4")  // vertical to horizontal tangent
	test.T(t, path.segs[2], "C7,4 9,7 9,11") // horizontal to vertical tangent
}

func TestGlyphBuilderFlex(t *testing.T) {
	charString := []byte{
		enc(0), enc(50), 13, // hsbw
		enc(10), enc(10), 21, // rmoveto
		enc(0), enc(1), 12, 16, // begin flex
		enc(1), enc(0), 21, enc(0), enc(2), 12, 16, // reference point
		enc(1), enc(0), 21, enc(0), enc(2), 12, 16,
		enc(1), enc(1), 21, enc(0), enc(2), 12, 16,
		enc(1), enc(0), 21, enc(0), enc(2), 12, 16,
		enc(1), enc(0), 21, enc(0), enc(2), 12, 16,
		enc(1), enc(-1), 21, enc(0), enc(2), 12, 16,
		enc(1), enc(0), 21, enc(0), enc(2), 12, 16,
		enc(50), enc(17), enc(10), enc(3), enc(0), 12, 16, // end flex
		12, 17, 12, 17,
		12, 33, // setcurrentpoint
		14,
	}

	path := &pathRecorder{}
	g := NewGlyphBuilder(path, nil, nil)
	p := NewType1Parser(nil)
	err := p.Parse(charString, g)
	test.Error(t, err)
	test.T(t, len(p.Warnings()), 0)
	test.T(t, len(g.Warnings()), 0)

	test.T(t, path.segs, []string{
		"M10,10",
		"C12,10 13,11 14,11",
		"C15,11 16,10 17,10",
		"Z",
	})
}

type resolverMap map[int][]byte

func (m resolverMap) CharString(code int) ([]byte, error) {
	b, ok := m[code]
	if !ok {
		return nil, fmt.Errorf("unknown code %d", code)
	}
	return b, nil
}

func TestGlyphBuilderSeac(t *testing.T) {
	resolver := resolverMap{
		65: { // base, a box
			enc(25), enc(100), 13,
			enc(0), enc(0), 21,
			enc(10), 6,
			9, 14,
		},
		39: { // accent
			enc(5), enc(100), 13,
			enc(0), enc(50), 21,
			enc(4), 6,
			9, 14,
		},
	}
	charString := []byte{
		enc(25), enc(100), 13, // hsbw
		enc(5), enc(3), enc(20), enc(65), enc(39), 12, 6, // seac
	}

	path := &pathRecorder{}
	g := NewGlyphBuilder(path, nil, resolver)
	p := NewType1Parser(nil)
	err := p.Parse(charString, g)
	test.Error(t, err)
	test.T(t, len(g.Warnings()), 0)

	// accent is shifted by (sbx + adx - asb, ady) = (23, 20)
	test.T(t, path.segs, []string{
		"M25,0", "L35,0", "Z",
		"M28,70", "L32,70", "Z",
	})
}

func TestGlyphBuilderSbw(t *testing.T) {
	charString := []byte{
		enc(10), enc(20), enc(100), enc(5), 12, 7, // sbw
		enc(0), enc(0), 21,
		14,
	}

	path := &pathRecorder{}
	g := NewGlyphBuilder(path, nil, nil)
	p := NewType1Parser(nil)
	err := p.Parse(charString, g)
	test.Error(t, err)

	test.T(t, path.segs[0], "M10,20")
	width, widthY := g.Width()
	test.Float(t, width, 100.0)
	test.Float(t, widthY, 5.0)
}

func TestBBoxPather(t *testing.T) {
	bbox := NewBBoxPather()
	bbox.MoveTo(10.0, 20.0)
	bbox.LineTo(-5.0, 40.0)
	bbox.CubeTo(0.0, 0.0, 15.0, 50.0, 10.0, 45.0)
	bbox.Close()

	test.Float(t, bbox.XMin, -5.0)
	test.Float(t, bbox.XMax, 15.0)
	test.Float(t, bbox.YMin, 0.0)
	test.Float(t, bbox.YMax, 50.0)
}

func TestSegmentsPather(t *testing.T) {
	segs := &SegmentsPather{}
	segs.MoveTo(10.0, 20.0)
	segs.LineTo(0.5, -1.0)
	segs.Close()

	test.T(t, len(segs.Segments), 2)
	test.T(t, segs.Segments[0].Op, SegmentOpMoveTo)
	test.T(t, segs.Segments[0].Args[0], fixed.Int26_6(640))
	test.T(t, segs.Segments[0].Args[1], fixed.Int26_6(1280))
	test.T(t, segs.Segments[1].Op, SegmentOpLineTo)
	test.T(t, segs.Segments[1].Args[0], fixed.Int26_6(32))
	test.T(t, segs.Segments[1].Args[1], fixed.Int26_6(-64))
}

func TestDrawType2(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(10), 6,
		enc(10), 7,
		14,
	}

	bbox := NewBBoxPather()
	warns, err := DrawType2(bbox, charString, nil, nil, 0.0, 0.0)
	test.Error(t, err)
	test.T(t, len(warns), 0)
	test.Float(t, bbox.XMax, 10.0)
	test.Float(t, bbox.YMax, 10.0)
}

func TestDrawCFF2(t *testing.T) {
	charString := []byte{
		enc(0), enc(0), 21,
		enc(10), enc(20), 5,
	}

	bbox := NewBBoxPather()
	warns, err := DrawCFF2(bbox, charString, nil, nil)
	test.Error(t, err)
	test.T(t, len(warns), 0)
	test.Float(t, bbox.XMax, 10.0)
	test.Float(t, bbox.YMax, 20.0)
}
