package bitstream

import (
	"fmt"
	"io"
)

// Cursor reads and writes unsigned fields of arbitrary bit width at a tracked
// bit offset within a byte buffer.
//
// Bit 0 of the buffer is the most-significant bit of its first byte.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	buf      []byte
	bitIndex uint64
}

// NewCursor returns a new Cursor positioned at bit 0 of buf.
// The cursor takes ownership of buf: writes modify it in place and may
// reallocate it when growing, so the current contents must be obtained with Bytes.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// NewCursorFromReader returns a new Cursor over everything read from r.
func NewCursorFromReader(r io.Reader) (*Cursor, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	return NewCursor(buf), nil
}

// Bytes returns the underlying buffer, including any growth caused by writes.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Index returns the current bit offset.
func (c *Cursor) Index() uint64 {
	return c.bitIndex
}

// Len returns the size of the buffer in bits.
func (c *Cursor) Len() uint64 {
	return uint64(len(c.buf)) * 8
}

// Remaining returns the number of bits between the current offset and the end of the buffer.
func (c *Cursor) Remaining() uint64 {
	return c.Len() - c.bitIndex
}

// Read reads the next ct bits as an unsigned integer, most-significant bit first.
// If fewer than ct bits remain, ErrOverread is returned and the offset is left unchanged.
func (c *Cursor) Read(ct uint) (uint64, error) {
	checkWidth(ct)

	if uint64(ct) > c.Remaining() {
		return 0, ErrOverread
	}
	if ct == 0 {
		return 0, nil
	}

	first := c.bitIndex / 8
	last := (c.bitIndex + uint64(ct) + 7) / 8
	span := c.buf[first:last]
	bitOffset := uint(c.bitIndex % 8)

	// Leading bits, taken from [bitOffset, 8) of the first byte.
	head := 8 - bitOffset
	if ct < head {
		head = ct
	}
	val := uint64(span[0]>>(8-bitOffset-head)) & mask(head)

	if len(span) > 1 {
		for _, b := range span[1 : len(span)-1] {
			val = val<<8 | uint64(b)
		}

		// Trailing bits, taken from the top of the last byte.
		tail := ct - head - 8*uint(len(span)-2)
		val = val<<tail | uint64(span[len(span)-1]>>(8-tail))
	}

	c.bitIndex += uint64(ct)
	return val, nil
}

// ReadBit reads the next single bit.
func (c *Cursor) ReadBit() (Bit, error) {
	v, err := c.Read(1)
	if err != nil {
		return Zero, err
	}
	return v == 1, nil
}

// Write writes the ct least-significant bits of val at the current offset,
// most-significant bit first, and advances the offset by ct.
//
// Higher bits of val are discarded. Only the targeted bits are modified; if the
// field extends past the end of the buffer, the buffer grows by the minimum
// number of zeroed bytes needed to hold it.
func (c *Cursor) Write(ct uint, val uint64) {
	checkWidth(ct)

	if ct == 0 {
		return
	}

	val &= mask(ct)
	end := c.bitIndex + uint64(ct)
	c.grow(end)

	bitOffset := uint(c.bitIndex % 8)
	byteOffset := c.bitIndex / 8
	free := 8 - bitOffset

	if ct <= free {
		// The field fits within the first byte.
		shift := free - ct
		m := byte(mask(ct) << shift)
		c.buf[byteOffset] = c.buf[byteOffset]&^m | byte(val<<shift)
		c.bitIndex = end
		return
	}

	rest := ct - free
	m := byte(mask(free))
	c.buf[byteOffset] = c.buf[byteOffset]&^m | byte(val>>rest)&m

	octetCount := uint64(rest / 8)
	trailing := rest % 8
	for i := uint64(1); i <= octetCount; i++ {
		c.buf[byteOffset+i] = byte(val >> (rest - 8*uint(i)))
	}

	if trailing > 0 {
		idx := byteOffset + octetCount + 1
		shift := 8 - trailing
		m := byte(0xFF << shift)
		c.buf[idx] = c.buf[idx]&^m | byte(val<<shift)
	}

	c.bitIndex = end
}

// WriteBit writes a single bit.
func (c *Cursor) WriteBit(bit Bit) {
	if bit {
		c.Write(1, 1)
		return
	}
	c.Write(1, 0)
}

// Skip moves the offset by ct bits, which may be negative.
// The result is clamped to [0, Len()]; skipping never grows the buffer.
func (c *Cursor) Skip(ct int64) {
	if ct < 0 {
		// -(ct+1)+1 avoids overflowing on math.MinInt64.
		back := uint64(-(ct + 1)) + 1
		if back > c.bitIndex {
			c.bitIndex = 0
			return
		}
		c.bitIndex -= back
		return
	}

	if uint64(ct) > c.Remaining() {
		c.bitIndex = c.Len()
		return
	}
	c.bitIndex += uint64(ct)
}

// SeekTo moves the offset to an absolute bit position, clamped to Len().
func (c *Cursor) SeekTo(offset uint64) {
	if offset > c.Len() {
		offset = c.Len()
	}
	c.bitIndex = offset
}

// Align advances the offset to the next byte boundary, if not already aligned.
func (c *Cursor) Align() {
	if r := c.bitIndex % 8; r != 0 {
		c.Skip(int64(8 - r))
	}
}

// WriteTo writes the whole buffer to w, regardless of the current offset.
func (c *Cursor) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.buf)
	return int64(n), err
}

// grow extends the buffer with zeroed bytes so that it holds endBit bits.
func (c *Cursor) grow(endBit uint64) {
	need := (endBit + 7) / 8
	if have := uint64(len(c.buf)); need > have {
		c.buf = append(c.buf, make([]byte, need-have)...)
	}
}

func mask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<n - 1
}

func checkWidth(ct uint) {
	if ct > MaxWidth {
		panic(fmt.Sprintf("bitstream: invalid field width; expected: <= %d, given: %d", MaxWidth, ct))
	}
}
