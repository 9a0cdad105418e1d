package charstring

import (
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func TestIndex(t *testing.T) {
	idx := NewIndex([]byte{1, 2}, []byte{3}, nil)
	test.T(t, idx.Len(), 3)
	test.Bytes(t, idx.Get(0), []byte{1, 2})
	test.Bytes(t, idx.Get(1), []byte{3})
	test.T(t, len(idx.Get(2)), 0)
	test.That(t, idx.Get(3) == nil)
	test.That(t, idx.Get(-1) == nil)

	var nilIdx *Index
	test.T(t, nilIdx.Len(), 0)
	test.That(t, nilIdx.Get(0) == nil)
}

func TestParseIndex(t *testing.T) {
	// count=2, offSize=1, offsets 1 3 5, data {10 11 12 13}
	b := []byte{0x00, 0x02, 0x01, 0x01, 0x03, 0x05, 10, 11, 12, 13}
	idx, err := ParseIndex(parse.NewBinaryReader(b), false)
	test.Error(t, err)
	test.T(t, idx.Len(), 2)
	test.Bytes(t, idx.Get(0), []byte{10, 11})
	test.Bytes(t, idx.Get(1), []byte{12, 13})
}

func TestParseIndexCFF2(t *testing.T) {
	b := []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x03, 20, 21}
	idx, err := ParseIndex(parse.NewBinaryReader(b), true)
	test.Error(t, err)
	test.T(t, idx.Len(), 1)
	test.Bytes(t, idx.Get(0), []byte{20, 21})
}

func TestParseIndexEmpty(t *testing.T) {
	idx, err := ParseIndex(parse.NewBinaryReader([]byte{0x00, 0x00}), false)
	test.Error(t, err)
	test.T(t, idx.Len(), 0)
}

func TestParseIndexBad(t *testing.T) {
	var tests = [][]byte{
		{0x00},                               // short count
		{0x00, 0x01, 0x00, 0x01, 0x02},       // bad offSize
		{0x00, 0x01, 0x01, 0x02, 0x03, 0x00}, // first offset not 1
		{0x00, 0x01, 0x01, 0x01, 0x05, 0x00}, // data too short
	}
	for _, b := range tests {
		_, err := ParseIndex(parse.NewBinaryReader(b), false)
		test.That(t, err != nil)
	}
}

func TestSubrBias(t *testing.T) {
	test.T(t, SubrBias(0), 107)
	test.T(t, SubrBias(1239), 107)
	test.T(t, SubrBias(1240), 1131)
	test.T(t, SubrBias(33899), 1131)
	test.T(t, SubrBias(33900), 32768)
}
