package main

import (
	"github.com/spf13/cobra"

	"github.com/comalice/recordx"
	"github.com/comalice/recordx/codec"
)

func newInspectCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print identity, state flags and fingerprint of a record document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRecord(args[0], recordx.WithLogger(g.logger))
			if err != nil {
				return err
			}
			g.logger.Debug("loaded record", "path", args[0], "record", r.String())

			return g.write(cmd, map[string]any{
				"id":      r.ID(),
				"kind":    r.Kind(),
				"new":     r.IsNew(),
				"dirty":   r.IsDirty(),
				"empty":   r.IsEmpty(),
				"keys":    r.Keys(),
				"version": codec.Fingerprint(r.All()),
			})
		},
	}
}
