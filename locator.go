//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"context"
	"math"
)

// number of records after the timestamp required to decide right adjacency
const lookahead = 2

// Neighbors of a timestamp.
type Neighbors struct {
	// all records with Start < ts, ascending
	Before []Record
	// first records with Start >= ts, ascending
	After []Record
}

// All records of the neighborhood, ascending.
func (nb Neighbors) All() []Record {
	all := make([]Record, 0, len(nb.Before)+len(nb.After))
	all = append(all, nb.Before...)
	return append(all, nb.After...)
}

// Locate reads records needed to decide how the point ts interacts with the
// timeline. Every record that starts before ts is returned since any of them
// might still cover ts.
func Locate(ctx context.Context, r Reader, key string, ts int64) (Neighbors, error) {
	var (
		nb  Neighbors
		err error
	)

	if ts > math.MinInt64 {
		nb.Before, err = r.Scan(ctx, key, math.MinInt64, ts-1, 0)
		if err != nil {
			return Neighbors{}, err
		}
	}

	nb.After, err = r.Scan(ctx, key, ts, math.MaxInt64, lookahead)
	if err != nil {
		return Neighbors{}, err
	}

	return nb, nil
}
