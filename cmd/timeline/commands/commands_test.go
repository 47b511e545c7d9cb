//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/cmd/timeline/commands"
	"github.com/fogfish/timeline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func memoryConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.yaml")
	content := "backend: memory\nmemory:\n  dir: " + filepath.Join(dir, "data") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInsertAndSegments(t *testing.T) {
	cfg := memoryConfig(t)

	for _, args := range [][]string{
		{"insert", "tl::cli", "10", "DONE"},
		{"insert", "tl::cli", "15", "done"},
		{"insert", "tl::cli", "17", "1"},
		{"insert", "tl::cli", "10", "PENDING"},
	} {
		_, err := run(t, append(args, "--config", cfg)...)
		require.NoError(t, err, args)
	}

	t.Run("Text", func(t *testing.T) {
		out, err := run(t, "segments", "tl::cli", "--config", cfg)
		require.NoError(t, err)
		assert.Equal(t, "[10, 10, PENDING]\n[10, 15, DONE]\n[17, 17, PENDING]\n", out)
	})

	t.Run("JSON", func(t *testing.T) {
		out, err := run(t, "segments", "tl::cli", "--config", cfg, "--start", "11", "-o", "json")
		require.NoError(t, err)

		var seq []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &seq))
		require.Len(t, seq, 1)
		assert.Equal(t, "PENDING", seq[0]["status"])
		assert.Equal(t, float64(17), seq[0]["start"])
	})

	t.Run("YAML", func(t *testing.T) {
		out, err := run(t, "segments", "tl::cli", "--config", cfg, "--end", "10", "-o", "yaml")
		require.NoError(t, err)

		var seq []struct {
			Start  int64  `yaml:"start"`
			End    int64  `yaml:"end"`
			Status string `yaml:"status"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(out), &seq))
		require.Len(t, seq, 2)
		assert.Equal(t, "DONE", seq[1].Status)
		assert.Equal(t, int64(15), seq[1].End)
	})
}

func TestBadgerWithJSONCodec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.yaml")
	content := "backend: badger\nbadger:\n  path: " + filepath.Join(dir, "db") +
		"\n  sync_writes: false\n  gc_interval: 0s\n  codec: json\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	for _, args := range [][]string{
		{"insert", "tl::json", "1", "PENDING"},
		{"insert", "tl::json", "2", "PENDING"},
		{"insert", "tl::json", "3", "DONE"},
	} {
		_, err := run(t, append(args, "--config", path)...)
		require.NoError(t, err, args)
	}

	out, err := run(t, "segments", "tl::json", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, PENDING]\n[3, 3, DONE]\n", out)
}

func TestInsertInvalidArguments(t *testing.T) {
	cfg := memoryConfig(t)

	_, err := run(t, "insert", "tl::cli", "ten", "DONE", "--config", cfg)
	assert.ErrorContains(t, err, "invalid timestamp")

	_, err = run(t, "insert", "tl::cli", "10", "RUNNING", "--config", cfg)
	assert.ErrorIs(t, err, timeline.ErrEncoding)

	_, err = run(t, "insert", "tl::cli", "10", "--config", cfg)
	assert.Error(t, err)

	_, err = run(t, "segments", "tl::cli", "-o", "xml", "--config", cfg)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: redis\n"), 0o600))

	_, err := run(t, "segments", "tl::cli", "--config", path)
	assert.ErrorIs(t, err, config.ErrInvalidBackend)
}

func TestBench(t *testing.T) {
	cfg := memoryConfig(t)

	out, err := run(t, "bench", "--n", "500", "--workers", "4", "--verify", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "[requests: 500 workers: 4")
	assert.Contains(t, out, "rejected: 0 |")
	assert.Contains(t, out, "requests/second")

	_, err = run(t, "bench", "--random-status", "--verify", "--config", cfg)
	assert.Error(t, err)

	out, err = run(t, "bench", "--n", "100", "--random-status", "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[requests: 100"))
	assert.Contains(t, out, "rejected:")
}

func TestBenchCountsRejectedObservations(t *testing.T) {
	backend, err := commands.OpenBackend(&config.Config{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	defer backend.Close()

	report, err := commands.Bench(context.Background(), backend.Timeline, 400, 1, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Rejected, int64(0))
	assert.Less(t, report.Rejected, int64(report.N))
}

func TestBenchOnBadger(t *testing.T) {
	backend, err := commands.OpenBackend(&config.Config{
		Backend: config.BackendBadger,
		Badger:  config.BadgerConfig{InMemory: true, ConflictRetries: 64},
	}, nil)
	require.NoError(t, err)
	defer backend.Close()

	report, err := commands.Bench(context.Background(), backend.Timeline, 300, 8, false)
	require.NoError(t, err)
	assert.Equal(t, 300, report.N)
	assert.Positive(t, report.Rate())

	require.NoError(t, report.Verify(context.Background(), backend.Timeline))
}
