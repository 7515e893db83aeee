package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitcursor/bitstream"
)

func newReadCmd(a *app) *cobra.Command {
	var (
		input  inputFlags
		offset int64
		width  uint
		count  int
	)

	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Read consecutive fields from a buffer",
		Long: `read prints count consecutive fields of the given bit width,
starting at the given bit offset. Each line holds the offset, width and value
of one field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkWidth(width); err != nil {
				return err
			}
			buf, err := input.buffer()
			if err != nil {
				return err
			}

			cur := bitstream.NewCursor(buf)
			if err := seekOffset(cur, offset); err != nil {
				return err
			}
			a.logger.Debug("reading fields",
				zap.Uint64("offset", cur.Index()),
				zap.Uint("width", width),
				zap.Int("count", count),
			)

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				at := cur.Index()
				v, err := cur.Read(width)
				if err != nil {
					return fmt.Errorf("field %d at bit %d: %w", i, at, err)
				}
				fmt.Fprintf(out, "%d\t%d\t%d\t%#x\t%0*b\n", at, width, v, v, int(width), v)
			}
			return nil
		},
	}

	input.register(readCmd.Flags())
	readCmd.Flags().Int64Var(&offset, "offset", 0, "bit offset of the first field")
	readCmd.Flags().UintVar(&width, "width", 8, "bit width of each field")
	readCmd.Flags().IntVar(&count, "count", 1, "number of fields to read")
	return readCmd
}

func checkWidth(width uint) error {
	if width < 1 || width > bitstream.MaxWidth {
		return fmt.Errorf("invalid `width`; expected: 1-%d, given: %d", bitstream.MaxWidth, width)
	}
	return nil
}
