package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitcursor/layout"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		input inputFlags
		lf    layoutFlags
	)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode records from one or more buffers",
		Long: `decode reads one record of the selected layout from the start of
every input buffer and prints them as a table, one row per buffer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := lf.layout(a)
			if err != nil {
				return err
			}
			bufs, err := input.buffers()
			if err != nil {
				return err
			}
			if len(bufs) == 0 {
				return errors.New("at least one of --hex or --in is required")
			}

			codec, err := layout.NewCodec(l, append(a.cfg.CodecOpts(), layout.WithLogger(a.logger))...)
			if err != nil {
				return err
			}

			records, err := codec.DecodeAll(cmd.Context(), bufs)
			if err != nil {
				return err
			}

			header := []string{"#"}
			for _, f := range l.Fields {
				header = append(header, fmt.Sprintf("%s:%d", f.Name, f.Width))
			}

			var total uint64
			data := make([][]string, 0, len(records))
			for i, rec := range records {
				row := []string{strconv.Itoa(i)}
				for _, v := range rec {
					row = append(row, strconv.FormatUint(v.Value, 10))
				}
				data = append(data, row)
				total += uint64(len(bufs[i]))
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.SetHeader(header)
			table.SetBorder(true)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.AppendBulk(data)
			table.Render()

			fmt.Fprintf(out, "%d records of %s (%d bits), input %s\n",
				len(records), l.Name, l.BitSize(), bytefmt.ByteSize(total))
			a.logger.Debug("decoded buffers", zap.Int("count", len(records)))
			return nil
		},
	}

	input.register(decodeCmd.Flags())
	lf.register(decodeCmd.Flags())
	return decodeCmd
}
