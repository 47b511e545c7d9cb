//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package fs persists in-memory timelines as JSON files, one file per
// timeline plus meta.json index of timeline keys.
package fs

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/depot/memory"
	"github.com/fogfish/timeline/encoding/json"
)

const meta = "meta.json"

type File struct {
	dir string
}

var (
	_ memory.Writer = (*File)(nil)
	_ memory.Reader = (*File)(nil)
)

func NewFile(dir string, perm os.FileMode) (*File, error) {
	if err := os.MkdirAll(dir, perm); err != nil {
		return nil, err
	}

	return &File{dir: dir}, nil
}

func (f *File) WriteMeta(keys []string) error {
	return f.create(meta, func(w io.Writer) error {
		return json.EncodeKeys(keys, w)
	})
}

func (f *File) Write(key string, seq []timeline.Record) error {
	return f.create(filename(key), func(w io.Writer) error {
		return json.EncodeRecords(seq, w)
	})
}

func (f *File) ReadMeta() ([]string, error) {
	fd, err := os.Open(filepath.Join(f.dir, meta))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	defer fd.Close()

	return json.DecodeKeys(fd)
}

func (f *File) Read(key string) ([]timeline.Record, error) {
	fd, err := os.Open(filepath.Join(f.dir, filename(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []timeline.Record{}, nil
		}
		return nil, err
	}
	defer fd.Close()

	seq, err := json.DecodeRecords(fd)
	if err != nil {
		return nil, fmt.Errorf("timeline %q: %w", key, err)
	}

	return seq, nil
}

// keys longer than this are hashed to fit file name limits
const maxHexKey = 100

// timeline keys are arbitrary strings, file names are hex
func filename(key string) string {
	if len(key) > maxHexKey {
		return fmt.Sprintf("sha256-%x.json", sha256.Sum256([]byte(key)))
	}

	return fmt.Sprintf("%x.json", key)
}

// create file atomically, readers never observe partially written file
func (f *File) create(name string, encode func(io.Writer) error) error {
	fd, err := os.CreateTemp(f.dir, name+".*")
	if err != nil {
		return err
	}

	if err := encode(fd); err != nil {
		fd.Close()
		os.Remove(fd.Name())
		return err
	}

	if err := fd.Close(); err != nil {
		os.Remove(fd.Name())
		return err
	}

	return os.Rename(fd.Name(), filepath.Join(f.dir, name))
}
