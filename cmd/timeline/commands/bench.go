//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fogfish/timeline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrVerify is returned when benchmark timeline is not collapsed as expected
var ErrVerify = errors.New("verification failed")

// BenchCommand holds the flags for the bench command
type BenchCommand struct {
	opts         *Options
	n            int
	randomStatus bool
	workers      int
	verify       bool
}

// NewBenchCommand creates and configures the bench command
func NewBenchCommand(opts *Options) *cobra.Command {
	cmd := &BenchCommand{opts: opts}

	cobraCmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure insert rate of shuffled observations",
		Long: `Insert timestamps 0..n-1 in random order into a fresh timeline and
report the rate. With --random-status, observations that fall between two
records of other status are rejected and counted. With --verify, same status
observations must collapse into the single segment [0, n-1].`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().IntVar(&cmd.n, "n", 20000, "Number of observations")
	cobraCmd.Flags().BoolVar(&cmd.randomStatus, "random-status", false, "Pick status of each observation at random")
	cobraCmd.Flags().IntVarP(&cmd.workers, "workers", "w", 1, "Number of concurrent writers")
	cobraCmd.Flags().BoolVar(&cmd.verify, "verify", false, "Verify collapsed timeline (same status only)")

	return cobraCmd
}

// Run executes the bench command
func (c *BenchCommand) Run(cmd *cobra.Command, args []string) (err error) {
	if c.n <= 0 {
		return fmt.Errorf("--n must be positive, got %d", c.n)
	}
	if c.workers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", c.workers)
	}
	if c.verify && c.randomStatus {
		return errors.New("--verify requires same status observations")
	}

	backend, err := c.opts.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, backend.Close())
	}()

	report, err := Bench(cmd.Context(), backend.Timeline, c.n, c.workers, c.randomStatus)
	if err != nil {
		return err
	}

	report.Print(cmd.OutOrStdout())

	if c.verify {
		return report.Verify(cmd.Context(), backend.Timeline)
	}

	return nil
}

// BenchReport is the outcome of benchmark
type BenchReport struct {
	Key          string
	N            int
	Workers      int
	RandomStatus bool
	Rejected     int64
	Elapsed      time.Duration
}

// Rate of inserts per second
func (r BenchReport) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.N) / r.Elapsed.Seconds()
}

// Print one line summary
func (r BenchReport) Print(w io.Writer) {
	fmt.Fprintf(w, "[requests: %s workers: %d random-status: %t] rejected: %s | total time: %.2f seconds | rate: %s requests/second\n",
		humanize.Comma(int64(r.N)),
		r.Workers,
		r.RandomStatus,
		humanize.Comma(r.Rejected),
		r.Elapsed.Seconds(),
		humanize.CommafWithDigits(r.Rate(), 2),
	)
}

// Verify that observations 0..n-1 collapsed into single segment
func (r BenchReport) Verify(ctx context.Context, tl *timeline.Timeline) error {
	seq, err := tl.Segments(ctx, r.Key, 0, int64(r.N))
	if err != nil {
		return err
	}

	expected := timeline.Segment{Start: 0, End: int64(r.N - 1), Status: timeline.StatusDone}
	if len(seq) != 1 || seq[0] != expected {
		return fmt.Errorf("%w: timeline %q has %d segments, expected %s", ErrVerify, r.Key, len(seq), expected)
	}

	return nil
}

// Bench inserts timestamps 0..n-1 shuffled into a fresh timeline
func Bench(ctx context.Context, tl *timeline.Timeline, n, workers int, randomStatus bool) (BenchReport, error) {
	report := BenchReport{
		Key:          "tl::" + uuid.NewString(),
		N:            n,
		Workers:      workers,
		RandomStatus: randomStatus,
	}

	statuses := []timeline.Status{timeline.StatusPending, timeline.StatusDone}
	slices := make([]timeline.Slice, n)
	for i, ts := range rand.Perm(n) {
		status := timeline.StatusDone
		if randomStatus {
			status = statuses[rand.IntN(len(statuses))]
		}
		slices[i] = timeline.Slice{Timestamp: int64(ts), Status: status}
	}

	var rejected atomic.Int64
	queue := make(chan timeline.Slice)
	g, gctx := errgroup.WithContext(ctx)

	started := time.Now()

	g.Go(func() error {
		defer close(queue)
		for _, s := range slices {
			select {
			case queue <- s:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for s := range queue {
				err := tl.InsertSlice(gctx, report.Key, s.Timestamp, s.Status)
				switch {
				case errors.Is(err, timeline.ErrInvariantViolation):
					rejected.Add(1)
				case err != nil:
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Elapsed = time.Since(started)
	report.Rejected = rejected.Load()
	return report, nil
}
