// Package formats provides parsers for Ragnarok Online model files.
package formats

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Faultbox/rsm2gltf/pkg/encoding"
)

// reader wraps a little-endian byte reader and latches the first error, so
// parsers can read a whole record and check once.
type reader struct {
	r   *bytes.Reader
	err error
}

func newReader(data []byte) *reader {
	return &reader{r: bytes.NewReader(data)}
}

func (rd *reader) read(v any) {
	if rd.err != nil {
		return
	}
	if err := binary.Read(rd.r, binary.LittleEndian, v); err != nil {
		rd.err = ErrTruncatedRSMData
	}
}

func (rd *reader) u8() uint8 {
	var v uint8
	rd.read(&v)
	return v
}

func (rd *reader) i32() int32 {
	var v int32
	rd.read(&v)
	return v
}

func (rd *reader) f32() float32 {
	var v float32
	rd.read(&v)
	return v
}

func (rd *reader) vec3() [3]float32 {
	var v [3]float32
	rd.read(&v)
	return v
}

// fixedString reads a null-padded EUC-KR field of n bytes.
func (rd *reader) fixedString(n int) string {
	buf := make([]byte, n)
	rd.read(buf)
	if rd.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

func (rd *reader) skip(n int64) {
	if rd.err != nil {
		return
	}
	if int64(rd.r.Len()) < n {
		rd.err = ErrTruncatedRSMData
		return
	}
	rd.r.Seek(n, io.SeekCurrent)
}

func (rd *reader) remaining() int {
	return rd.r.Len()
}
