//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fogfish/timeline"
)

// EncodeRecords writes records as JSON array, one record per line.
func EncodeRecords(seq []timeline.Record, w io.Writer) error {
	return encodeArray(len(seq), w, func(i int) (any, error) {
		if err := seq[i].Validate(); err != nil {
			return nil, err
		}
		return fromRecord(seq[i]), nil
	})
}

// DecodeRecords reads JSON array of records.
func DecodeRecords(r io.Reader) ([]timeline.Record, error) {
	seq := make([]timeline.Record, 0)

	err := decodeArray(r, func(c *json.Decoder) error {
		var r record
		if err := c.Decode(&r); err != nil {
			return fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
		}

		rec, err := r.toRecord()
		if err != nil {
			return err
		}

		seq = append(seq, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return seq, nil
}

// EncodeKeys writes the index of timeline keys.
func EncodeKeys(keys []string, w io.Writer) error {
	return encodeArray(len(keys), w, func(i int) (any, error) { return keys[i], nil })
}

// DecodeKeys reads the index of timeline keys.
func DecodeKeys(r io.Reader) ([]string, error) {
	keys := make([]string, 0)

	err := decodeArray(r, func(c *json.Decoder) error {
		var key string
		if err := c.Decode(&key); err != nil {
			return fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

//------------------------------------------------------------------------------

func encodeArray(n int, w io.Writer, item func(int) (any, error)) error {
	if _, err := w.Write([]byte("[\n")); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		v, err := item(i)
		if err != nil {
			return err
		}

		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: %w", timeline.ErrEncoding, err)
		}

		if _, err := w.Write(b); err != nil {
			return err
		}

		if i < n-1 {
			if _, err := w.Write([]byte(",\n")); err != nil {
				return err
			}
		}
	}

	if _, err := w.Write([]byte("\n]")); err != nil {
		return err
	}

	return nil
}

func decodeArray(r io.Reader, item func(*json.Decoder) error) error {
	c := json.NewDecoder(r)
	t, err := c.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
	}
	if d, ok := t.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("%w: invalid JSON array", timeline.ErrDecoding)
	}

	for c.More() {
		if err := item(c); err != nil {
			return err
		}
	}

	t, err = c.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
	}
	if d, ok := t.(json.Delim); !ok || d != ']' {
		return fmt.Errorf("%w: invalid JSON array", timeline.ErrDecoding)
	}

	return nil
}
