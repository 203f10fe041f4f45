package pyc

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/PentesterFlow/webete/internal/errors"
)

type runtime struct {
	major, minor int
	pypy         bool
}

// Final magic number of each release line. PyPy stamps CPython's magic + 7.
var magics = map[uint16]runtime{
	62161: {2, 6, false},
	62211: {2, 7, false},
	62218: {2, 7, true},
	3131:  {3, 0, false},
	3151:  {3, 1, false},
	3180:  {3, 2, false},
	3230:  {3, 3, false},
	3310:  {3, 4, false},
	3350:  {3, 5, false},
	3351:  {3, 5, false},
	3379:  {3, 6, false},
	3394:  {3, 7, false},
	3413:  {3, 8, false},
	3425:  {3, 9, false},
	3439:  {3, 10, false},
	3495:  {3, 11, false},
	3531:  {3, 12, false},
	3571:  {3, 13, false},
}

// Header is the metadata in front of the serialized code object.
type Header struct {
	Magic      uint16
	Major      int
	Minor      int
	PyPy       bool
	Flags      uint32 // 3.7+ only
	Timestamp  time.Time
	SourceSize uint32 // 3.3+ only
	CodeOffset int
}

// Version returns "major.minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.Major, h.Minor)
}

// Tag returns the cache tag version, e.g. "37".
func (h Header) Tag() string {
	return fmt.Sprintf("%d%d", h.Major, h.Minor)
}

// HashBased reports whether the file is validated by source hash (PEP 552)
// rather than timestamp.
func (h Header) HashBased() bool {
	return h.Flags&0x1 != 0
}

// Code returns the serialized code object following the header.
func (h Header) Code(data []byte) []byte {
	if h.CodeOffset > len(data) {
		return nil
	}
	return data[h.CodeOffset:]
}

// ReadHeader parses the container header of a compiled Python file.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < 8 {
		return Header{}, errors.NewFormatError("read_header", fmt.Sprintf("file too short (%d bytes)", len(data)), nil)
	}
	if data[2] != '\r' || data[3] != '\n' {
		return Header{}, errors.NewFormatError("read_header", "missing magic terminator", nil)
	}

	magic := binary.LittleEndian.Uint16(data[:2])
	rt, ok := magics[magic]
	if !ok {
		return Header{}, errors.NewFormatError("read_header", fmt.Sprintf("unknown magic %d", magic), nil)
	}

	h := Header{Magic: magic, Major: rt.major, Minor: rt.minor, PyPy: rt.pypy}

	switch {
	case rt.major == 2 || rt.minor < 3:
		h.Timestamp = unixTime(data[4:8])
		h.CodeOffset = 8
	case rt.minor < 7:
		if len(data) < 12 {
			return Header{}, errors.NewFormatError("read_header", "truncated 3.3+ header", nil)
		}
		h.Timestamp = unixTime(data[4:8])
		h.SourceSize = binary.LittleEndian.Uint32(data[8:12])
		h.CodeOffset = 12
	default:
		if len(data) < 16 {
			return Header{}, errors.NewFormatError("read_header", "truncated 3.7+ header", nil)
		}
		h.Flags = binary.LittleEndian.Uint32(data[4:8])
		if !h.HashBased() {
			h.Timestamp = unixTime(data[8:12])
			h.SourceSize = binary.LittleEndian.Uint32(data[12:16])
		}
		h.CodeOffset = 16
	}

	return h, nil
}

func unixTime(b []byte) time.Time {
	return time.Unix(int64(binary.LittleEndian.Uint32(b)), 0).UTC()
}
