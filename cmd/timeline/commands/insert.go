//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fogfish/timeline"
	"github.com/spf13/cobra"
)

// InsertCommand holds the flags for the insert command
type InsertCommand struct {
	opts *Options
}

// NewInsertCommand creates and configures the insert command
func NewInsertCommand(opts *Options) *cobra.Command {
	cmd := &InsertCommand{opts: opts}

	return &cobra.Command{
		Use:   "insert KEY TIMESTAMP STATUS",
		Short: "Record status of timeline at timestamp",
		Long: `Record status of timeline at timestamp. Status is either a name
(PENDING, DONE) or a numeric code 1..255.`,
		Example: "  timeline insert tl::job 1700000000 DONE",
		Args:    cobra.ExactArgs(3),
		RunE:    cmd.Run,
	}
}

// Run executes the insert command
func (c *InsertCommand) Run(cmd *cobra.Command, args []string) (err error) {
	ts, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", args[1], err)
	}

	status, err := timeline.ParseStatus(args[2])
	if err != nil {
		return err
	}

	backend, err := c.opts.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, backend.Close())
	}()

	return backend.Timeline.InsertSlice(cmd.Context(), args[0], ts, status)
}
