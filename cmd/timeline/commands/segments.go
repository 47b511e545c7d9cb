//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fogfish/timeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Format mode constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SegmentsCommand holds the flags for the segments command
type SegmentsCommand struct {
	opts   *Options
	start  int64
	end    int64
	output string
}

// NewSegmentsCommand creates and configures the segments command
func NewSegmentsCommand(opts *Options) *cobra.Command {
	cmd := &SegmentsCommand{opts: opts}

	cobraCmd := &cobra.Command{
		Use:   "segments KEY",
		Short: "List stored segments of timeline",
		Long: `List stored segments of timeline whose start lies within [start, end].
Segments that begin before start are not listed.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().Int64Var(&cmd.start, "start", math.MinInt64, "Lower bound of segment start (inclusive)")
	cobraCmd.Flags().Int64Var(&cmd.end, "end", math.MaxInt64, "Upper bound of segment start (inclusive)")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", FormatText, "Output format: text, json or yaml")

	return cobraCmd
}

// Run executes the segments command
func (c *SegmentsCommand) Run(cmd *cobra.Command, args []string) (err error) {
	switch c.output {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported output format %q", c.output)
	}

	backend, err := c.opts.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, backend.Close())
	}()

	seq, err := backend.Timeline.Segments(cmd.Context(), args[0], c.start, c.end)
	if err != nil {
		return err
	}

	return WriteSegments(cmd.OutOrStdout(), c.output, seq)
}

// segment as it is shown to humans
type segmentView struct {
	Start  int64  `json:"start" yaml:"start"`
	End    int64  `json:"end" yaml:"end"`
	Status string `json:"status" yaml:"status"`
}

// WriteSegments formats segments
func WriteSegments(w io.Writer, format string, seq []timeline.Segment) error {
	views := make([]segmentView, len(seq))
	for i, seg := range seq {
		views[i] = segmentView{Start: seg.Start, End: seg.End, Status: seg.Status.String()}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, seg := range seq {
			if _, err := fmt.Fprintln(w, seg.String()); err != nil {
				return err
			}
		}
		return nil
	}
}
