package charstring

import (
	"fmt"
	"sort"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding/charmap"
)

// MaxCmapSegments is the maximum number of cmap segments that will be accepted.
const MaxCmapSegments = 20000

// CodeRange maps a contiguous range of character codes onto consecutive glyph
// IDs, starting at GlyphID for Start.
type CodeRange struct {
	Start   uint32
	End     uint32
	GlyphID uint16
}

// CodeRanges is an ordered, non-overlapping set of code ranges.
type CodeRanges []CodeRange

// Add inserts a range, extending the previous range when both the codes and the
// glyph IDs continue it. Ranges must be added in increasing code order.
func (rs *CodeRanges) Add(start, end uint32, glyphID uint16) {
	if n := len(*rs); 0 < n {
		last := &(*rs)[n-1]
		if start == last.End+1 && uint32(glyphID) == uint32(last.GlyphID)+(start-last.Start) {
			last.End = end
			return
		}
	}
	*rs = append(*rs, CodeRange{Start: start, End: end, GlyphID: glyphID})
}

// Lookup returns the glyph ID for a character code, or 0 when unmapped.
func (rs CodeRanges) Lookup(code uint32) uint16 {
	i := sort.Search(len(rs), func(i int) bool {
		return code <= rs[i].End
	})
	if i == len(rs) || code < rs[i].Start {
		return 0
	}
	return rs[i].GlyphID + uint16(code-rs[i].Start)
}

// ReverseLookup returns the first character code mapped to the glyph ID.
func (rs CodeRanges) ReverseLookup(glyphID uint16) (uint32, bool) {
	for _, r := range rs {
		if r.GlyphID <= glyphID && uint32(glyphID-r.GlyphID) <= r.End-r.Start {
			return r.Start + uint32(glyphID-r.GlyphID), true
		}
	}
	return 0, false
}

// CmapSubtable is a character-to-glyph mapping parsed from an sfnt cmap
// subtable, normalized to code ranges.
type CmapSubtable struct {
	PlatformID uint16
	EncodingID uint16
	Format     uint16
	Ranges     CodeRanges
}

// Lookup returns the glyph ID for a character code, or 0 when unmapped.
func (subtable *CmapSubtable) Lookup(code uint32) uint16 {
	return subtable.Ranges.Lookup(code)
}

// ToUnicode returns the rune for a character code. Macintosh platform codes are
// decoded through the Mac Roman character set, Unicode and Windows platform
// codes are Unicode code points already.
func (subtable *CmapSubtable) ToUnicode(code uint32) (rune, bool) {
	if subtable.PlatformID == 1 {
		if 256 <= code {
			return 0, false
		}
		return charmap.Macintosh.DecodeByte(byte(code)), true
	}
	return rune(code), true
}

// ParseCmapSubtable parses a single cmap subtable of format 0, 4, 6, or 12.
func ParseCmapSubtable(platformID, encodingID uint16, b []byte) (*CmapSubtable, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("cmap: bad subtable")
	}
	subtable := &CmapSubtable{PlatformID: platformID, EncodingID: encodingID}

	r := parse.NewBinaryReader(b)
	format := r.ReadUint16()
	subtable.Format = format
	switch format {
	case 0:
		if r.Len() < 4+256 {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		_ = r.ReadUint16() // length
		_ = r.ReadUint16() // language
		for code, glyphID := range r.ReadBytes(256) {
			if glyphID != 0 {
				subtable.Ranges.Add(uint32(code), uint32(code), uint16(glyphID))
			}
		}
	case 4:
		if r.Len() < 12 {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		_ = r.ReadUint16() // length
		_ = r.ReadUint16() // language
		segCount := r.ReadUint16()
		if segCount%2 != 0 || segCount == 0 {
			return nil, fmt.Errorf("cmap: bad segCount")
		}
		segCount /= 2
		if MaxCmapSegments < segCount {
			return nil, fmt.Errorf("cmap: too many segments")
		}
		_ = r.ReadUint16() // searchRange
		_ = r.ReadUint16() // entrySelector
		_ = r.ReadUint16() // rangeShift
		if r.Len() < 2+8*uint32(segCount) {
			return nil, fmt.Errorf("cmap: bad subtable")
		}

		endCode := make([]uint16, segCount)
		for i := 0; i < int(segCount); i++ {
			endCode[i] = r.ReadUint16()
			if 0 < i && endCode[i] <= endCode[i-1] {
				return nil, fmt.Errorf("cmap: bad endCode")
			}
		}
		_ = r.ReadUint16() // reservedPad
		startCode := make([]uint16, segCount)
		for i := 0; i < int(segCount); i++ {
			startCode[i] = r.ReadUint16()
			if endCode[i] < startCode[i] || 0 < i && startCode[i] <= endCode[i-1] {
				return nil, fmt.Errorf("cmap: bad startCode")
			}
		}
		if startCode[segCount-1] != 0xFFFF || endCode[segCount-1] != 0xFFFF {
			return nil, fmt.Errorf("cmap: bad last segment")
		}
		idDelta := make([]int16, segCount)
		for i := 0; i < int(segCount); i++ {
			idDelta[i] = r.ReadInt16()
		}
		glyphIdArrayLength := (r.Len() - 2*uint32(segCount)) / 2
		idRangeOffset := make([]uint16, segCount)
		for i := 0; i < int(segCount); i++ {
			idRangeOffset[i] = r.ReadUint16()
			if idRangeOffset[i] != 0 {
				if idRangeOffset[i]%2 != 0 {
					return nil, fmt.Errorf("cmap: bad idRangeOffset")
				}
				// the index at startCode is the smallest of the segment, the one
				// at endCode the largest, both must land inside glyphIdArray
				index := int(idRangeOffset[i]/2) - (int(segCount) - i)
				if index < 0 || glyphIdArrayLength <= uint32(index)+uint32(endCode[i]-startCode[i]) {
					return nil, fmt.Errorf("cmap: bad idRangeOffset")
				}
			}
		}
		glyphIdArray := make([]uint16, glyphIdArrayLength)
		for i := 0; i < int(glyphIdArrayLength); i++ {
			glyphIdArray[i] = r.ReadUint16()
		}

		for i := 0; i < int(segCount); i++ {
			if startCode[i] == 0xFFFF && endCode[i] == 0xFFFF && i == int(segCount)-1 {
				break // the closing segment maps to .notdef
			}
			if idRangeOffset[i] == 0 {
				// glyph IDs are consecutive within the segment, modulo 65536
				subtable.Ranges.Add(uint32(startCode[i]), uint32(endCode[i]), uint16(idDelta[i])+startCode[i])
			} else {
				for code := startCode[i]; ; code++ {
					index := int(idRangeOffset[i]/2) + int(code-startCode[i]) - (int(segCount) - i)
					if glyphID := glyphIdArray[index]; glyphID != 0 {
						subtable.Ranges.Add(uint32(code), uint32(code), glyphID)
					}
					if code == endCode[i] {
						break
					}
				}
			}
		}
	case 6:
		if r.Len() < 8 {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		_ = r.ReadUint16() // length
		_ = r.ReadUint16() // language
		firstCode := r.ReadUint16()
		entryCount := r.ReadUint16()
		if r.Len() < 2*uint32(entryCount) {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		for i := 0; i < int(entryCount); i++ {
			if glyphID := r.ReadUint16(); glyphID != 0 {
				subtable.Ranges.Add(uint32(firstCode)+uint32(i), uint32(firstCode)+uint32(i), glyphID)
			}
		}
	case 12:
		if r.Len() < 14 {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		_ = r.ReadUint16() // reserved
		_ = r.ReadUint32() // length
		_ = r.ReadUint32() // language
		numGroups := r.ReadUint32()
		if MaxCmapSegments < numGroups {
			return nil, fmt.Errorf("cmap: too many segments")
		} else if r.Len() < 12*numGroups {
			return nil, fmt.Errorf("cmap: bad subtable")
		}
		var prevEnd uint32
		for i := uint32(0); i < numGroups; i++ {
			startCharCode := r.ReadUint32()
			endCharCode := r.ReadUint32()
			startGlyphID := r.ReadUint32()
			if endCharCode < startCharCode || 0 < i && startCharCode <= prevEnd {
				return nil, fmt.Errorf("cmap: bad character code range")
			} else if 0xFFFF < startGlyphID+(endCharCode-startCharCode) {
				return nil, fmt.Errorf("cmap: bad glyphID")
			}
			subtable.Ranges.Add(startCharCode, endCharCode, uint16(startGlyphID))
			prevEnd = endCharCode
		}
	default:
		return nil, fmt.Errorf("cmap: unsupported format %d", format)
	}
	return subtable, nil
}

type codespaceRange struct {
	numBytes  int
	low, high uint32
}

// CMap maps multi-byte character codes onto CIDs, the character selector space
// of CID-keyed fonts. Codes are matched against the codespace ranges to find
// their byte length, then against the single mappings and CID ranges.
type CMap struct {
	codespaces []codespaceRange
	singles    map[uint32]uint16
	ranges     CodeRanges
}

// NewCMap returns an empty character code to CID mapping.
func NewCMap() *CMap {
	return &CMap{singles: map[uint32]uint16{}}
}

// AddCodespaceRange declares that codes between low and high are numBytes long.
func (c *CMap) AddCodespaceRange(numBytes int, low, high uint32) {
	if numBytes < 1 || 4 < numBytes || high < low {
		return
	}
	c.codespaces = append(c.codespaces, codespaceRange{numBytes: numBytes, low: low, high: high})
}

// AddCIDRange maps the codes between low and high onto consecutive CIDs
// starting at cid.
func (c *CMap) AddCIDRange(low, high uint32, cid uint16) {
	if high < low {
		return
	}
	c.ranges.Add(low, high, cid)
}

// AddCIDMapping maps a single code onto a CID. Single mappings take precedence
// over ranges.
func (c *CMap) AddCIDMapping(code uint32, cid uint16) {
	c.singles[code] = cid
}

// ToCID returns the CID for a character code, or 0 when unmapped.
func (c *CMap) ToCID(code uint32) uint16 {
	if cid, ok := c.singles[code]; ok {
		return cid
	}
	return c.ranges.Lookup(code)
}

// ReverseLookup returns the first character code mapped to a CID.
func (c *CMap) ReverseLookup(cid uint16) (uint32, bool) {
	for code, mapped := range c.singles {
		if mapped == cid {
			return code, true
		}
	}
	return c.ranges.ReverseLookup(cid)
}

// ReadCode reads the next character code, using the codespace ranges to decide
// how many bytes it spans. It returns the code and its byte length. Without
// matching codespace the code is a single byte.
func (c *CMap) ReadCode(r *parse.BinaryReader) (uint32, int, error) {
	if r.Len() == 0 {
		return 0, 0, fmt.Errorf("CMap: unexpected end of data")
	}
	maxBytes := 1
	for _, cs := range c.codespaces {
		if maxBytes < cs.numBytes {
			maxBytes = cs.numBytes
		}
	}
	code := uint32(0)
	n := 0
	for n < maxBytes && 0 < r.Len() {
		code = code<<8 | uint32(r.ReadUint8())
		n++
		for _, cs := range c.codespaces {
			if cs.numBytes == n && cs.low <= code && code <= cs.high {
				return code, n, nil
			}
		}
	}
	if len(c.codespaces) == 0 {
		return code, n, nil
	}
	return code, n, fmt.Errorf("CMap: code outside codespace")
}
