package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comalice/recordx"
	"github.com/comalice/recordx/codec"
	"github.com/comalice/recordx/events"
)

type editOptions struct {
	set      []string
	unset    []string
	reset    bool
	apply    bool
	changes  bool
	snapshot bool
}

func newEditCmd(g *globalOptions) *cobra.Command {
	o := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Apply edits to a record document and print what changed",
		Long: `Loads FILE, applies --reset, --unset and --set in that order, and prints
the diff against the baseline. Values given to --set are parsed as YAML
scalars, so --set age=3 stores an integer and --set name='"3"' a string.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, g, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&o.set, "set", nil, "set key=value (repeatable)")
	cmd.Flags().StringArrayVar(&o.unset, "unset", nil, "remove key (repeatable)")
	cmd.Flags().BoolVar(&o.reset, "reset", false, "start from an empty state instead of merging")
	cmd.Flags().BoolVar(&o.apply, "apply", false, "commit the edits as the new baseline")
	cmd.Flags().BoolVar(&o.changes, "changes", false, "print old and new value per changed key")
	cmd.Flags().BoolVar(&o.snapshot, "snapshot", false, "print the full snapshot instead of the diff")
	cmd.MarkFlagsMutuallyExclusive("changes", "snapshot")

	return cmd
}

func (o *editOptions) run(cmd *cobra.Command, g *globalOptions, path string) error {
	updates, err := parseAssignments(o.set)
	if err != nil {
		return err
	}

	r, err := loadRecord(path, recordx.WithLogger(g.logger))
	if err != nil {
		return err
	}
	r.On(recordx.EventChange, func(e events.Event) {
		g.logger.Debug("record changed", "record", r.String(), "dirty_keys", len(r.Diff()))
	})

	if o.reset {
		r.Reset(nil)
	}
	if len(o.unset) > 0 {
		next := r.All()
		for _, k := range o.unset {
			delete(next, k)
		}
		r.Reset(next)
	}
	if len(updates) > 0 {
		if err := r.TryMerge(updates); err != nil {
			return err
		}
	}
	if o.apply {
		r.Apply()
	}

	switch {
	case o.snapshot:
		return g.write(cmd, codec.Capture(r))
	case o.changes:
		out := make(map[string]any)
		for k, c := range r.Changes() {
			out[k] = c
		}
		return g.write(cmd, out)
	default:
		return g.write(cmd, r.Diff())
	}
}

// parseAssignments turns key=value pairs into a mapping. Values are decoded
// as YAML so numbers and booleans keep their type.
func parseAssignments(pairs []string) (recordx.Data, error) {
	out := recordx.Data{}
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", p)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
