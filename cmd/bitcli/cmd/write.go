package cmd

import (
	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitcursor/bitstream"
)

func newWriteCmd(a *app) *cobra.Command {
	var (
		input  inputFlags
		offset int64
		width  uint
		value  uint64
		out    string
	)

	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Write a field into a buffer",
		Long: `write stores the low width bits of value at the given bit offset,
growing the buffer if the field extends past its end. Higher bits of value
are discarded. The resulting buffer is printed as hex, or written to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkWidth(width); err != nil {
				return err
			}
			buf, err := input.buffer()
			if err != nil {
				return err
			}
			size := len(buf)

			cur := bitstream.NewCursor(buf)
			if err := seekOffset(cur, offset); err != nil {
				return err
			}
			if width < 64 && value>>width != 0 {
				a.logger.Warn("value does not fit field; keeping low bits",
					zap.Uint64("value", value),
					zap.Uint("width", width),
				)
			}
			cur.Write(width, value)

			a.logger.Info("field written",
				zap.Uint64("offset", cur.Index()-uint64(width)),
				zap.Uint("width", width),
				zap.String("before", bytefmt.ByteSize(uint64(size))),
				zap.String("after", bytefmt.ByteSize(uint64(len(cur.Bytes())))),
			)
			return output(cmd.OutOrStdout(), out, cur)
		},
	}

	input.register(writeCmd.Flags())
	writeCmd.Flags().Int64Var(&offset, "offset", 0, "bit offset of the field")
	writeCmd.Flags().UintVar(&width, "width", 8, "bit width of the field")
	writeCmd.Flags().Uint64Var(&value, "value", 0, "value to write")
	writeCmd.Flags().StringVar(&out, "out", "", "output file, replaced atomically")
	return writeCmd
}
