// Package codec implements the big-endian, length-prefixed binary
// primitives shared by the distribution-map wire format.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates a big-endian binary record.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint32 appends a big-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint64 appends a big-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint16 appends a big-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutRaw appends b verbatim, with no length prefix.
func (w *Writer) PutRaw(b []byte) { w.buf = append(w.buf, b...) }

// PutBytes appends a u32-length-prefixed byte slice.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// PutString appends a u32-length-prefixed UTF-8 string.
func (w *Writer) PutString(s string) { w.PutBytes([]byte(s)) }

// PutBytes16 appends a u16-length-prefixed byte slice.
func (w *Writer) PutBytes16(b []byte) {
	w.PutUint16(uint16(len(b)))
	w.buf = append(w.buf, b...)
}

// PutString16 appends a u16-length-prefixed UTF-8 string.
func (w *Writer) PutString16(s string) { w.PutBytes16([]byte(s)) }

// Reader consumes a big-endian binary record, tracking a cursor and the
// first error encountered so callers can chain calls and check err once.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader wraps buf for sequential reads.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Err returns the first error encountered during reads, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("codec: short read: need %d bytes, have %d", n, len(r.buf)-r.pos)
		return false
	}
	return true
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

// Raw reads n raw bytes with no length prefix.
func (r *Reader) Raw(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b
}

// Bytes reads a u32-length-prefixed byte slice.
func (r *Reader) Bytes() []byte {
	n := r.Uint32()
	if !r.need(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b
}

// String reads a u32-length-prefixed UTF-8 string.
func (r *Reader) String() string { return string(r.Bytes()) }

// Bytes16 reads a u16-length-prefixed byte slice.
func (r *Reader) Bytes16() []byte {
	n := r.Uint16()
	if !r.need(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b
}

// String16 reads a u16-length-prefixed UTF-8 string.
func (r *Reader) String16() string { return string(r.Bytes16()) }
