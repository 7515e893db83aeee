// Package bitstream provides a cursor over a byte buffer to allow
// bit-granularity access to packed fields, following the MSB pattern, where
// most-significant bits are written/read first.
package bitstream

import "errors"

// MaxWidth is the widest field a single Read or Write can access.
const MaxWidth = 64

type Bit bool

const (
	Zero Bit = false
	One  Bit = true
)

// ErrOverread is returned by Read when fewer bits remain in the buffer than requested.
var ErrOverread = errors.New("bitstream: read past end of buffer")
