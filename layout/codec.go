package layout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/bitcursor/bitstream"
)

// Codec encodes and decodes records of a single Layout.
type Codec struct {
	layout Layout
	fields map[string]Field

	logger      *zap.Logger
	strict      bool
	parallelism int
}

// NewCodec returns a Codec for l. The layout is validated first.
func NewCodec(l Layout, opts ...OptionFunc) (*Codec, error) {
	options := defaultOpts()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}

	fields := make(map[string]Field, len(l.Fields))
	for _, f := range l.Fields {
		fields[f.Name] = f
	}

	return &Codec{
		layout:      l,
		fields:      fields,
		logger:      options.logger.With(zap.String("layout", l.Name)),
		strict:      options.strict,
		parallelism: options.parallelism,
	}, nil
}

// Layout returns the layout the Codec was created for.
func (c *Codec) Layout() Layout {
	return c.layout
}

// Decode reads one record at the cursor's current offset.
// If the buffer ends before the record does, the cursor is moved back to where
// the record started and the returned error wraps bitstream.ErrOverread.
func (c *Codec) Decode(cur *bitstream.Cursor) (Record, error) {
	start := cur.Index()
	rec := make(Record, 0, len(c.layout.Fields))

	for _, f := range c.layout.Fields {
		v, err := cur.Read(f.Width)
		if err != nil {
			cur.SeekTo(start)
			return nil, fmt.Errorf("decode field %v at bit %d: %w", f.Name, start+c.offsetOf(f.Name), err)
		}
		rec = append(rec, Value{Name: f.Name, Value: v})
	}

	c.logger.Debug("decoded record",
		zap.Uint64("offset", start),
		zap.Uint64("bits", cur.Index()-start),
	)
	return rec, nil
}

// Encode writes one record at the cursor's current offset, growing the buffer as needed.
// Fields missing from values are written as zero.
func (c *Codec) Encode(cur *bitstream.Cursor, values map[string]uint64) error {
	for name := range values {
		if _, ok := c.fields[name]; !ok {
			return fmt.Errorf("%w: %v", ErrUnknownField, name)
		}
	}

	for _, f := range c.layout.Fields {
		v := values[f.Name]
		if f.Width < 64 && v>>f.Width != 0 {
			if c.strict {
				return fmt.Errorf("%w: field %v is %d bits wide, given: %d", ErrValueOverflow, f.Name, f.Width, v)
			}
			c.logger.Warn("truncating field value",
				zap.String("field", f.Name),
				zap.Uint("width", f.Width),
				zap.Uint64("value", v),
			)
		}
	}

	start := cur.Index()
	for _, f := range c.layout.Fields {
		cur.Write(f.Width, values[f.Name])
	}

	c.logger.Debug("encoded record",
		zap.Uint64("offset", start),
		zap.Int("size", len(cur.Bytes())),
	)
	return nil
}

// DecodeAll decodes one record from the start of each buffer, using a
// separate cursor per buffer so that buffers are decoded in parallel.
func (c *Codec) DecodeAll(ctx context.Context, bufs [][]byte) ([]Record, error) {
	records := make([]Record, len(bufs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelism)
	for i, buf := range bufs {
		i, buf := i, buf
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rec, err := c.Decode(bitstream.NewCursor(buf))
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			records[i] = rec
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Codec) offsetOf(name string) uint64 {
	var off uint64
	for _, f := range c.layout.Fields {
		if f.Name == name {
			break
		}
		off += uint64(f.Width)
	}
	return off
}
