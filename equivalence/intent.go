// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package equivalence

import (
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Direction is the order of a sort key. The server accepts the integers 1 and -1.
type Direction int

// Sort directions.
const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Valid reports whether d is Ascending or Descending.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// SortKey is a single (field, direction) pair.
type SortKey struct {
	Field     string
	Direction Direction
}

// Asc returns an ascending sort key on field.
func Asc(field string) SortKey { return SortKey{Field: field, Direction: Ascending} }

// Desc returns a descending sort key on field.
func Desc(field string) SortKey { return SortKey{Field: field, Direction: Descending} }

// Validation errors returned by Intent.Validate and CountPipeline.
var (
	ErrNegativeSkip     = errors.New("skip must not be negative")
	ErrNegativeLimit    = errors.New("limit must not be negative")
	ErrBadDirection     = errors.New("sort direction must be 1 or -1")
	ErrEmptySortField   = errors.New("sort field must not be empty")
	ErrDuplicateSortKey = errors.New("sort field specified more than once")
	ErrBadCountField    = errors.New("count field must be a non-empty name without '$' prefix or '.'")
	ErrBadPage          = errors.New("page number must not be negative and page size must be positive")
)

// Intent is a single query described independently of how it is sent. Sort
// keys are ordered by precedence: Sort[0] is the primary key and later keys
// break ties. A zero Limit means no limit and a zero Skip skips nothing.
type Intent struct {
	Filter     bson.D
	Projection bson.D
	Sort       []SortKey
	Skip       int64
	Limit      int64
}

// Validate checks that the intent can be expressed in both forms.
func (i Intent) Validate() error {
	if i.Skip < 0 {
		return errors.Wrapf(ErrNegativeSkip, "skip %d", i.Skip)
	}
	if i.Limit < 0 {
		return errors.Wrapf(ErrNegativeLimit, "limit %d", i.Limit)
	}

	seen := make(map[string]struct{}, len(i.Sort))
	for idx, key := range i.Sort {
		if key.Field == "" {
			return errors.Wrapf(ErrEmptySortField, "sort key %d", idx)
		}
		if !key.Direction.Valid() {
			return errors.Wrapf(ErrBadDirection, "sort key %q has direction %d", key.Field, int(key.Direction))
		}
		if _, ok := seen[key.Field]; ok {
			return errors.Wrapf(ErrDuplicateSortKey, "sort key %q", key.Field)
		}
		seen[key.Field] = struct{}{}
	}
	return nil
}

// Deterministic reports whether the result order is fixed by the query. Without
// a sort the server returns documents in storage order.
func (i Intent) Deterministic() bool {
	return len(i.Sort) > 0
}

// FilterDocument returns the filter, or an empty document when none is set.
func (i Intent) FilterDocument() bson.D {
	if i.Filter == nil {
		return bson.D{}
	}
	return i.Filter
}

// SortDocument returns the sort specification as an ordered document. Element
// order follows the Sort slice, which is what gives the first key precedence.
func (i Intent) SortDocument() bson.D {
	if len(i.Sort) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(i.Sort))
	for _, key := range i.Sort {
		doc = append(doc, bson.E{Key: key.Field, Value: int(key.Direction)})
	}
	return doc
}

// FindOptions returns the cursor form of the intent. Only the options the
// intent sets are populated.
func (i Intent) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(i.Projection) > 0 {
		opts.SetProjection(i.Projection)
	}
	if len(i.Sort) > 0 {
		opts.SetSort(i.SortDocument())
	}
	if i.Skip > 0 {
		opts.SetSkip(i.Skip)
	}
	if i.Limit > 0 {
		opts.SetLimit(i.Limit)
	}
	return opts
}

// Pipeline returns the aggregation form of the intent.
//
// Stages are emitted as $match, $project, $sort, $skip, $limit. When the
// projection removes or recomputes a field the sort depends on, $project
// moves after $limit so the pipeline sorts on the same values the cursor does.
func (i Intent) Pipeline() mongo.Pipeline {
	pipeline := mongo.Pipeline{Stage(StageMatch, i.FilterDocument())}

	projectLate := len(i.Projection) > 0 && !i.projectionKeepsSortKeys()
	if len(i.Projection) > 0 && !projectLate {
		pipeline = append(pipeline, Stage(StageProject, i.Projection))
	}
	if len(i.Sort) > 0 {
		pipeline = append(pipeline, Stage(StageSort, i.SortDocument()))
	}
	if i.Skip > 0 {
		pipeline = append(pipeline, Stage(StageSkip, i.Skip))
	}
	if i.Limit > 0 {
		pipeline = append(pipeline, Stage(StageLimit, i.Limit))
	}
	if projectLate {
		pipeline = append(pipeline, Stage(StageProject, i.Projection))
	}
	return pipeline
}

func (i Intent) projectionKeepsSortKeys() bool {
	for _, key := range i.Sort {
		if !ProjectionKeeps(i.Projection, key.Field) {
			return false
		}
	}
	return true
}

// WithPage returns a copy of the intent that selects one page of results.
// Pages are numbered from zero.
func (i Intent) WithPage(number, size int64) (Intent, error) {
	skip, limit, err := Page(number, size)
	if err != nil {
		return Intent{}, err
	}
	i.Skip, i.Limit = skip, limit
	return i, nil
}

// Page converts a zero-based page number and a page size into skip and limit
// values: page 0 skips nothing, page 1 skips size documents, and so on.
func Page(number, size int64) (skip, limit int64, err error) {
	if number < 0 || size <= 0 {
		return 0, 0, errors.Wrapf(ErrBadPage, "page %d of size %d", number, size)
	}
	return number * size, size, nil
}
