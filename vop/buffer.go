package vop

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Sink receives encoded machine words in program order. Words are appended
// little-endian; Patch rewrites a previously appended word in place, which
// is how branch displacements are fixed up at label binding.
type Sink interface {
	Append32(w uint32)
	Append64(w uint64)
	// Len returns the bytes appended so far.
	Len() int
	Patch32(off int, w uint32)
	Patch64(off int, w uint64)
}

// CodeBuffer is the default Sink: a growable in-memory byte buffer. The zero
// value is ready to use.
type CodeBuffer struct {
	buf []byte
}

// NewCodeBuffer returns an empty buffer with room for hint bytes.
func NewCodeBuffer(hint int) *CodeBuffer {
	return &CodeBuffer{buf: make([]byte, 0, hint)}
}

// Append32 appends one 32-bit word.
func (b *CodeBuffer) Append32(w uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, w)
}

// Append64 appends one 64-bit word.
func (b *CodeBuffer) Append64(w uint64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, w)
}

// Len returns the bytes appended so far.
func (b *CodeBuffer) Len() int { return len(b.buf) }

// Patch32 rewrites the 32-bit word at byte offset off.
func (b *CodeBuffer) Patch32(off int, w uint32) {
	binary.LittleEndian.PutUint32(b.buf[off:], w)
}

// Patch64 rewrites the 64-bit word at byte offset off.
func (b *CodeBuffer) Patch64(off int, w uint64) {
	binary.LittleEndian.PutUint64(b.buf[off:], w)
}

// Bytes returns the emitted code. The slice aliases the buffer.
func (b *CodeBuffer) Bytes() []byte { return b.buf }

// Word32 reads the 32-bit word at byte offset off.
func (b *CodeBuffer) Word32(off int) uint32 {
	return binary.LittleEndian.Uint32(b.buf[off:])
}

// Word64 reads the 64-bit word at byte offset off.
func (b *CodeBuffer) Word64(off int) uint64 {
	return binary.LittleEndian.Uint64(b.buf[off:])
}

// Reset discards the contents, keeping capacity.
func (b *CodeBuffer) Reset() { b.buf = b.buf[:0] }

// Dump renders the buffer as one word per line, offset-prefixed, for the
// given word size in bytes (4 or 8).
func (b *CodeBuffer) Dump(wordBytes int) string {
	var sb strings.Builder
	for off := 0; off+wordBytes <= len(b.buf); off += wordBytes {
		switch wordBytes {
		case 8:
			fmt.Fprintf(&sb, "%#06x: %016x\n", off, b.Word64(off))
		default:
			fmt.Fprintf(&sb, "%#06x: %08x\n", off, b.Word32(off))
		}
	}
	return sb.String()
}
