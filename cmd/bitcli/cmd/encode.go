package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/bitcursor/bitstream"
	"github.com/spacemeshos/bitcursor/layout"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		input  inputFlags
		lf     layoutFlags
		offset int64
		set    map[string]string
		out    string
	)

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a record into a buffer",
		Long: `encode writes one record of the selected layout at the given bit offset
of the input buffer (an empty buffer if no input is given). Fields not set with
--set are written as zero. The resulting buffer is printed as hex, or written to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := lf.layout(a)
			if err != nil {
				return err
			}
			buf, err := input.buffer()
			if err != nil {
				return err
			}

			values := make(map[string]uint64, len(set))
			for name, s := range set {
				v, err := strconv.ParseUint(s, 0, 64)
				if err != nil {
					return fmt.Errorf("invalid value of field %v: %w", name, err)
				}
				values[name] = v
			}

			codec, err := layout.NewCodec(l, append(a.cfg.CodecOpts(), layout.WithLogger(a.logger))...)
			if err != nil {
				return err
			}

			cur := bitstream.NewCursor(buf)
			if err := seekOffset(cur, offset); err != nil {
				return err
			}
			if err := codec.Encode(cur, values); err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), out, cur)
		},
	}

	input.register(encodeCmd.Flags())
	lf.register(encodeCmd.Flags())
	encodeCmd.Flags().Int64Var(&offset, "offset", 0, "bit offset of the record")
	encodeCmd.Flags().StringToStringVar(&set, "set", nil, "field values, as name=value pairs (0x and 0b prefixes allowed)")
	encodeCmd.Flags().StringVar(&out, "out", "", "output file, replaced atomically")
	return encodeCmd
}
