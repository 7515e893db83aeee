// Package layout describes packed records as ordered sequences of
// fixed-width unsigned fields, and encodes/decodes them with a bitstream.Cursor.
package layout

import (
	"errors"
	"fmt"

	"github.com/spacemeshos/bitcursor/bitstream"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrValueOverflow = errors.New("value does not fit field width")
)

// Field is a single named, fixed-width unsigned field.
type Field struct {
	Name  string `mapstructure:"name"`
	Width uint   `mapstructure:"width"`
}

// Layout is an ordered list of fields, read and written most-significant bit first.
type Layout struct {
	Name   string  `mapstructure:"name"`
	Fields []Field `mapstructure:"fields"`
}

func (l Layout) Validate() error {
	if l.Name == "" {
		return errors.New("invalid `Name`; expected: non-empty, given: empty")
	}

	if len(l.Fields) == 0 {
		return fmt.Errorf("invalid `Fields` of layout %v; expected: >= 1, given: 0", l.Name)
	}

	seen := make(map[string]struct{}, len(l.Fields))
	for i, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("invalid `Name` of field %d in layout %v; expected: non-empty, given: empty", i, l.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("invalid `Name` of field %d in layout %v; expected: unique, given: %v", i, l.Name, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Width < 1 || f.Width > bitstream.MaxWidth {
			return fmt.Errorf("invalid `Width` of field %v in layout %v; expected: 1-%d, given: %d", f.Name, l.Name, bitstream.MaxWidth, f.Width)
		}
	}

	return nil
}

// BitSize returns the total width of all fields.
func (l Layout) BitSize() uint64 {
	var n uint64
	for _, f := range l.Fields {
		n += uint64(f.Width)
	}
	return n
}

// ByteSize returns the number of bytes needed to hold one record.
func (l Layout) ByteSize() uint64 {
	return (l.BitSize() + 7) / 8
}
