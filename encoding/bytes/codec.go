//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package bytes implements compact binary form of timeline records.
package bytes

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fogfish/guid/v2"
)

// maximum size of length prefixed blob accepted by reader
const maxBlobSize = 1 << 16

type WriterTyped struct {
	w    io.Writer
	Fail error
}

func NewWriterTyped(w io.Writer) *WriterTyped { return &WriterTyped{w: w} }

type ReaderTyped struct {
	r    io.Reader
	Fail error
}

func NewReaderTyped(r io.Reader) *ReaderTyped { return &ReaderTyped{r: r} }

func (w *WriterTyped) Write(p []byte) (int, error) {
	if w.Fail != nil {
		return 0, w.Fail
	}

	return w.w.Write(p)
}

func (r *ReaderTyped) Read(p []byte) (int, error) {
	if r.Fail != nil {
		return 0, r.Fail
	}

	return r.r.Read(p)
}

// -------------------------------------------------------------------------

func (w *WriterTyped) WriteUInt8(x uint8) error {
	if w.Fail != nil {
		return w.Fail
	}

	_, w.Fail = w.Write([]byte{x})
	return w.Fail
}

func (r *ReaderTyped) ReadUInt8(x *uint8) error {
	if r.Fail != nil {
		return r.Fail
	}

	var b [1]byte
	if _, r.Fail = io.ReadFull(r, b[:]); r.Fail != nil {
		return r.Fail
	}

	*x = b[0]
	return nil
}

// -------------------------------------------------------------------------

func (w *WriterTyped) WriteUInt32(x uint32) error {
	if w.Fail != nil {
		return w.Fail
	}

	var b []byte = make([]byte, 4)
	binary.BigEndian.PutUint32(b, x)
	_, w.Fail = w.Write(b)

	return w.Fail
}

func (r *ReaderTyped) ReadUInt32(x *uint32) error {
	if r.Fail != nil {
		return r.Fail
	}

	var b []byte = make([]byte, 4)
	if _, r.Fail = io.ReadFull(r, b); r.Fail != nil {
		return r.Fail
	}

	*x = binary.BigEndian.Uint32(b)
	return r.Fail
}

// -------------------------------------------------------------------------

func (w *WriterTyped) WriteInt64(x int64) error {
	if w.Fail != nil {
		return w.Fail
	}

	var b []byte = make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(x))
	_, w.Fail = w.Write(b)

	return w.Fail
}

func (r *ReaderTyped) ReadInt64(x *int64) error {
	if r.Fail != nil {
		return r.Fail
	}

	var b []byte = make([]byte, 8)
	if _, r.Fail = io.ReadFull(r, b); r.Fail != nil {
		return r.Fail
	}

	*x = int64(binary.BigEndian.Uint64(b))
	return r.Fail
}

// -------------------------------------------------------------------------

func (w *WriterTyped) WriteBlob(x []byte) error {
	if w.Fail != nil {
		return w.Fail
	}

	if err := w.WriteUInt32(uint32(len(x))); err != nil {
		return err
	}

	_, w.Fail = w.Write(x)
	return w.Fail
}

func (r *ReaderTyped) ReadBlob(x *[]byte) error {
	if r.Fail != nil {
		return r.Fail
	}

	var size uint32
	if err := r.ReadUInt32(&size); err != nil {
		return err
	}

	if size > maxBlobSize {
		r.Fail = fmt.Errorf("blob of %d bytes exceeds limit", size)
		return r.Fail
	}

	bytes := make([]byte, size)
	if _, r.Fail = io.ReadFull(r, bytes); r.Fail != nil {
		return r.Fail
	}

	*x = bytes
	return r.Fail
}

// -------------------------------------------------------------------------

func (w *WriterTyped) WriteGUID(x guid.K) error {
	return w.WriteBlob(guid.Bytes(x))
}

func (r *ReaderTyped) ReadGUID(x *guid.K) error {
	var b []byte
	if err := r.ReadBlob(&b); err != nil {
		return err
	}

	*x, r.Fail = guid.FromBytes(b)
	return r.Fail
}
