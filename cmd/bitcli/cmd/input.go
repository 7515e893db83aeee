package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"

	"github.com/spacemeshos/bitcursor/bitstream"
	"github.com/spacemeshos/bitcursor/layout"
)

// inputFlags selects the buffers a command operates on.
type inputFlags struct {
	hex []string
	in  string
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVar(&f.hex, "hex", nil, "input buffer, hex encoded (repeatable)")
	fs.StringVar(&f.in, "in", "", "input file, read as raw bytes")
}

func (f *inputFlags) buffers() ([][]byte, error) {
	bufs := make([][]byte, 0, len(f.hex)+1)
	for _, h := range f.hex {
		b, err := decodeHex(h)
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, b)
	}

	if f.in != "" {
		b, err := os.ReadFile(f.in)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		bufs = append(bufs, b)
	}
	return bufs, nil
}

// buffer returns the single input buffer; no input means an empty buffer.
func (f *inputFlags) buffer() ([]byte, error) {
	bufs, err := f.buffers()
	if err != nil {
		return nil, err
	}
	switch len(bufs) {
	case 0:
		return nil, nil
	case 1:
		return bufs[0], nil
	default:
		return nil, errors.New("expected a single input buffer")
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input %q: %w", s, err)
	}
	return b, nil
}

// output writes the cursor buffer atomically to path, or as hex to w if path is empty.
func output(w io.Writer, path string, cur *bitstream.Cursor) error {
	if path == "" {
		if _, err := cur.WriteTo(hex.NewEncoder(w)); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(cur.Bytes())); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	return nil
}

// layoutFlags selects the layout of a record, from the config or given inline.
type layoutFlags struct {
	name   string
	fields []string
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "layout", "", "name of a layout from the config file")
	fs.StringSliceVar(&f.fields, "fields", nil, "inline layout, as name:width pairs")
}

func (f *layoutFlags) layout(a *app) (layout.Layout, error) {
	if len(f.fields) == 0 {
		if f.name == "" {
			return layout.Layout{}, errors.New("one of --layout or --fields is required")
		}
		return a.cfg.Layout(f.name)
	}

	l := layout.Layout{Name: f.name}
	if l.Name == "" {
		l.Name = "inline"
	}
	for _, spec := range f.fields {
		name, width, ok := strings.Cut(spec, ":")
		if !ok {
			return layout.Layout{}, fmt.Errorf("invalid field %q; expected: name:width", spec)
		}
		w, err := strconv.ParseUint(width, 10, 8)
		if err != nil {
			return layout.Layout{}, fmt.Errorf("invalid width of field %q: %w", name, err)
		}
		l.Fields = append(l.Fields, layout.Field{Name: name, Width: uint(w)})
	}
	return l, l.Validate()
}

// seekOffset moves cur to the absolute bit offset, which must lie within the buffer.
func seekOffset(cur *bitstream.Cursor, offset int64) error {
	if offset < 0 || uint64(offset) > cur.Len() {
		return fmt.Errorf("invalid `offset`; expected: 0-%d, given: %d", cur.Len(), offset)
	}
	cur.SeekTo(uint64(offset))
	return nil
}
