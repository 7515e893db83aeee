package layout_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/bitcursor/bitstream"
	"github.com/spacemeshos/bitcursor/layout"
)

// ipv4Header is the first 32 bits of an IPv4 header.
var ipv4Header = layout.Layout{
	Name: "ipv4",
	Fields: []layout.Field{
		{Name: "version", Width: 4},
		{Name: "ihl", Width: 4},
		{Name: "dscp", Width: 6},
		{Name: "ecn", Width: 2},
		{Name: "length", Width: 16},
	},
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, ipv4Header.Validate())

	for _, tc := range []struct {
		name   string
		layout layout.Layout
	}{
		{"no name", layout.Layout{Fields: []layout.Field{{Name: "a", Width: 1}}}},
		{"no fields", layout.Layout{Name: "x"}},
		{"unnamed field", layout.Layout{Name: "x", Fields: []layout.Field{{Width: 1}}}},
		{"duplicate field", layout.Layout{Name: "x", Fields: []layout.Field{{Name: "a", Width: 1}, {Name: "a", Width: 2}}}},
		{"zero width", layout.Layout{Name: "x", Fields: []layout.Field{{Name: "a"}}}},
		{"too wide", layout.Layout{Name: "x", Fields: []layout.Field{{Name: "a", Width: 65}}}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Error(t, tc.layout.Validate())

			_, err := layout.NewCodec(tc.layout)
			require.Error(t, err)
		})
	}
}

func TestSize(t *testing.T) {
	r := require.New(t)

	r.Equal(uint64(32), ipv4Header.BitSize())
	r.Equal(uint64(4), ipv4Header.ByteSize())

	l := layout.Layout{Name: "flags", Fields: []layout.Field{{Name: "a", Width: 3}, {Name: "b", Width: 7}}}
	r.Equal(uint64(10), l.BitSize())
	r.Equal(uint64(2), l.ByteSize())
}

func TestDecode(t *testing.T) {
	r := require.New(t)

	codec, err := layout.NewCodec(ipv4Header, layout.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))))
	r.NoError(err)
	r.Equal(ipv4Header, codec.Layout())

	cur := bitstream.NewCursor([]byte{0x45, 0xB9, 0x00, 0x54})
	rec, err := codec.Decode(cur)
	r.NoError(err)
	r.Equal(uint64(32), cur.Index())

	r.Equal(layout.Record{
		{Name: "version", Value: 4},
		{Name: "ihl", Value: 5},
		{Name: "dscp", Value: 46},
		{Name: "ecn", Value: 1},
		{Name: "length", Value: 84},
	}, rec)

	v, ok := rec.Get("dscp")
	r.True(ok)
	r.Equal(uint64(46), v)
	_, ok = rec.Get("ttl")
	r.False(ok)
	r.Equal(map[string]uint64{"version": 4, "ihl": 5, "dscp": 46, "ecn": 1, "length": 84}, rec.Map())
}

func TestDecodeOverread(t *testing.T) {
	r := require.New(t)

	codec, err := layout.NewCodec(ipv4Header)
	r.NoError(err)

	cur := bitstream.NewCursor([]byte{0xFF, 0x45, 0xB9, 0x00})
	cur.Skip(8)
	_, err = codec.Decode(cur)
	r.ErrorIs(err, bitstream.ErrOverread)
	r.ErrorContains(err, "length")
	r.Equal(uint64(8), cur.Index())
}

func TestEncode(t *testing.T) {
	r := require.New(t)

	codec, err := layout.NewCodec(ipv4Header, layout.WithLogger(zaptest.NewLogger(t)))
	r.NoError(err)

	cur := bitstream.NewCursor(nil)
	err = codec.Encode(cur, map[string]uint64{
		"version": 4,
		"ihl":     5,
		"dscp":    46,
		"ecn":     1,
		"length":  84,
	})
	r.NoError(err)
	r.Equal([]byte{0x45, 0xB9, 0x00, 0x54}, cur.Bytes())

	// Missing fields are zero.
	cur = bitstream.NewCursor(nil)
	r.NoError(codec.Encode(cur, map[string]uint64{"version": 6}))
	r.Equal([]byte{0x60, 0x00, 0x00, 0x00}, cur.Bytes())

	r.ErrorIs(codec.Encode(cur, map[string]uint64{"ttl": 64}), layout.ErrUnknownField)
}

func TestEncodeOverflow(t *testing.T) {
	r := require.New(t)

	loose, err := layout.NewCodec(ipv4Header)
	r.NoError(err)
	cur := bitstream.NewCursor(nil)
	r.NoError(loose.Encode(cur, map[string]uint64{"version": 0x14}))
	r.Equal([]byte{0x40, 0x00, 0x00, 0x00}, cur.Bytes())

	strict, err := layout.NewCodec(ipv4Header, layout.WithStrict())
	r.NoError(err)
	cur = bitstream.NewCursor(nil)
	r.ErrorIs(strict.Encode(cur, map[string]uint64{"version": 0x14}), layout.ErrValueOverflow)
	r.Empty(cur.Bytes())
}

func TestEncodeUnaligned(t *testing.T) {
	r := require.New(t)

	l := layout.Layout{Name: "flags", Fields: []layout.Field{{Name: "a", Width: 3}, {Name: "b", Width: 7}}}
	codec, err := layout.NewCodec(l)
	r.NoError(err)

	cur := bitstream.NewCursor([]byte{0xFF, 0xFF})
	r.NoError(codec.Encode(cur, map[string]uint64{"a": 0b010, "b": 0b1010101}))
	// The trailing 6 bits of the second byte are untouched.
	r.Equal([]byte{0b01010101, 0b01111111}, cur.Bytes())

	cur.SeekTo(0)
	rec, err := codec.Decode(cur)
	r.NoError(err)
	r.Equal(map[string]uint64{"a": 0b010, "b": 0b1010101}, rec.Map())
}

func TestDecodeAll(t *testing.T) {
	r := require.New(t)

	codec, err := layout.NewCodec(ipv4Header, layout.WithParallelism(2))
	r.NoError(err)

	bufs := make([][]byte, 16)
	for i := range bufs {
		cur := bitstream.NewCursor(nil)
		r.NoError(codec.Encode(cur, map[string]uint64{"version": 4, "length": uint64(i)}))
		bufs[i] = cur.Bytes()
	}

	records, err := codec.DecodeAll(context.Background(), bufs)
	r.NoError(err)
	r.Len(records, len(bufs))
	for i, rec := range records {
		v, ok := rec.Get("length")
		r.True(ok)
		r.Equal(uint64(i), v, fmt.Sprintf("record %d", i))
	}

	bufs[5] = bufs[5][:2]
	_, err = codec.DecodeAll(context.Background(), bufs)
	r.ErrorIs(err, bitstream.ErrOverread)
	r.ErrorContains(err, "buffer 5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = codec.DecodeAll(ctx, bufs[:1])
	r.ErrorIs(err, context.Canceled)
}

func TestInvalidParallelism(t *testing.T) {
	_, err := layout.NewCodec(ipv4Header, layout.WithParallelism(0))
	require.Error(t, err)
}

func TestNilLogger(t *testing.T) {
	_, err := layout.NewCodec(ipv4Header, layout.WithLogger(nil))
	require.ErrorContains(t, err, "logger")
}
