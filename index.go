package charstring

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// Index is a read-only table of byte strings, the storage layout CFF and CFF2
// use for charstrings and for local and global subroutines. The zero value is
// an empty table. Interpreters never mutate an Index, so a single table may be
// shared between concurrent glyph parses.
type Index struct {
	offset []uint32
	data   []byte
}

// NewIndex returns an Index holding the given byte strings.
func NewIndex(bs ...[]byte) *Index {
	t := &Index{}
	for _, b := range bs {
		t.Add(b)
	}
	return t
}

// Len returns the number of entries.
func (t *Index) Len() int {
	if t == nil || len(t.offset) == 0 {
		return 0
	}
	return len(t.offset) - 1
}

// Get returns entry i, or nil when out of range.
func (t *Index) Get(i int) []byte {
	if t == nil || i < 0 || t.Len() <= i {
		return nil
	}
	return t.data[t.offset[i]:t.offset[i+1]]
}

// Add appends a byte string and returns its index. The data is copied.
func (t *Index) Add(b []byte) int {
	if len(t.offset) == 0 {
		t.offset = append(t.offset, 0)
	}
	t.data = append(t.data, b...)
	t.offset = append(t.offset, uint32(len(t.data)))
	return len(t.offset) - 2
}

// ParseIndex reads an INDEX structure from the CFF (16-bit count) or CFF2
// (32-bit count) wire format.
func ParseIndex(r *parse.BinaryReader, isCFF2 bool) (*Index, error) {
	t := &Index{}
	var count uint32
	if !isCFF2 {
		if r.Len() < 2 {
			return nil, fmt.Errorf("INDEX: bad data")
		}
		count = uint32(r.ReadUint16())
	} else {
		if r.Len() < 4 {
			return nil, fmt.Errorf("INDEX: bad data")
		}
		count = r.ReadUint32()
	}
	if count == 0 {
		// empty
		return t, nil
	} else if 1e6 < count {
		return nil, fmt.Errorf("INDEX: too big")
	}

	offSize := r.ReadUint8()
	if offSize == 0 || 4 < offSize {
		return nil, fmt.Errorf("INDEX: bad offSize")
	}
	if r.Len() < uint32(offSize)*(count+1) {
		return nil, fmt.Errorf("INDEX: bad data")
	}

	t.offset = make([]uint32, count+1)
	switch offSize {
	case 1:
		for i := uint32(0); i < count+1; i++ {
			t.offset[i] = uint32(r.ReadUint8()) - 1
		}
	case 2:
		for i := uint32(0); i < count+1; i++ {
			t.offset[i] = uint32(r.ReadUint16()) - 1
		}
	case 3:
		for i := uint32(0); i < count+1; i++ {
			t.offset[i] = uint32(r.ReadUint16())<<8 + uint32(r.ReadUint8()) - 1
		}
	default:
		for i := uint32(0); i < count+1; i++ {
			t.offset[i] = r.ReadUint32() - 1
		}
	}
	if t.offset[0] != 0 || r.Len() < t.offset[count] {
		return nil, fmt.Errorf("INDEX: bad offsets")
	}
	for i := uint32(0); i < count; i++ {
		if t.offset[i+1] < t.offset[i] {
			return nil, fmt.Errorf("INDEX: bad offsets")
		}
	}
	t.data = r.ReadBytes(t.offset[count])
	return t, nil
}

// SubrBias returns the index bias for a subroutine table of n entries. Charstrings
// store subroutine numbers relative to this bias.
func SubrBias(n int) int {
	if n < 1240 {
		return 107
	} else if n < 33900 {
		return 1131
	}
	return 32768
}
