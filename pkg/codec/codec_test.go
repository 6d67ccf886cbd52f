package codec

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutUint8(7)
	w.PutUint16(1234)
	w.PutUint32(0xdeadbeef)
	w.PutUint64(0x1122334455667788)
	w.PutRaw([]byte{0xAA, 0xBB})
	w.PutBytes([]byte("hello"))
	w.PutString("world")
	w.PutBytes16([]byte{1, 2, 3})
	w.PutString16("short")

	r := NewReader(w.Bytes())
	if got := r.Uint8(); got != 7 {
		t.Errorf("Uint8 = %d, want 7", got)
	}
	if got := r.Uint16(); got != 1234 {
		t.Errorf("Uint16 = %d, want 1234", got)
	}
	if got := r.Uint32(); got != 0xdeadbeef {
		t.Errorf("Uint32 = %#x, want 0xdeadbeef", got)
	}
	if got := r.Uint64(); got != 0x1122334455667788 {
		t.Errorf("Uint64 = %#x, want 0x1122334455667788", got)
	}
	if got := r.Raw(2); string(got) != "\xAA\xBB" {
		t.Errorf("Raw(2) = %v, want AA BB", got)
	}
	if got := r.Bytes(); string(got) != "hello" {
		t.Errorf("Bytes() = %q, want %q", got, "hello")
	}
	if got := r.String(); got != "world" {
		t.Errorf("String() = %q, want %q", got, "world")
	}
	if got := r.Bytes16(); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Bytes16() = %v, want [1 2 3]", got)
	}
	if got := r.String16(); got != "short" {
		t.Errorf("String16() = %q, want %q", got, "short")
	}
	if err := r.Err(); err != nil {
		t.Errorf("unexpected reader error: %v", err)
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	_ = r.Uint32()
	if r.Err() == nil {
		t.Errorf("expected short-read error reading uint32 from 2 bytes")
	}
	// Subsequent reads should stay in the error state rather than panic.
	if got := r.Uint8(); got != 0 {
		t.Errorf("expected zero value after error state, got %d", got)
	}
}

func TestBytesRespectsDeclaredLength(t *testing.T) {
	w := NewWriter()
	w.PutUint32(10) // declares 10 bytes but none follow
	r := NewReader(w.Bytes())
	if got := r.Bytes(); got != nil {
		t.Errorf("expected nil for truncated length-prefixed read, got %v", got)
	}
	if r.Err() == nil {
		t.Errorf("expected an error for truncated length-prefixed read")
	}
}
