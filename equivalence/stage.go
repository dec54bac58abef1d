// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package equivalence

import (
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pipeline stage names.
const (
	StageMatch   = "$match"
	StageProject = "$project"
	StageSort    = "$sort"
	StageSkip    = "$skip"
	StageLimit   = "$limit"
	StageCount   = "$count"
)

// Stage returns a single-element stage document {name: value}.
func Stage(name string, value interface{}) bson.D {
	return bson.D{{Key: name, Value: value}}
}

// CountPipeline returns the pipeline that replaces the deprecated cursor
// count. It yields a single document {field: n}, or no document at all when
// nothing matches.
func CountPipeline(filter bson.D, field string) (mongo.Pipeline, error) {
	return Intent{Filter: filter}.CountPipeline(field)
}

// CountPipeline returns the intent's pipeline followed by {$count: field}.
func (i Intent) CountPipeline(field string) (mongo.Pipeline, error) {
	if field == "" || strings.HasPrefix(field, "$") || strings.Contains(field, ".") {
		return nil, errors.Wrapf(ErrBadCountField, "field %q", field)
	}
	return append(i.Pipeline(), Stage(StageCount, field)), nil
}

// CountOptions returns the cursor-side equivalent of CountPipeline, for use
// with Collection.CountDocuments.
func (i Intent) CountOptions() *options.CountOptions {
	opts := options.Count()
	if i.Skip > 0 {
		opts.SetSkip(i.Skip)
	}
	if i.Limit > 0 {
		opts.SetLimit(i.Limit)
	}
	return opts
}

// ProjectionKeeps reports whether documents returned under projection still
// carry the stored value of field, which may be a dotted path. An empty
// projection keeps everything. _id is kept unless the projection excludes it
// explicitly. A computed value, such as "$released" or {"$slice": 1}, on the
// field or one of its parents does not keep it.
func ProjectionKeeps(projection bson.D, field string) bool {
	if len(projection) == 0 {
		return true
	}

	if field == "_id" || strings.HasPrefix(field, "_id.") {
		for _, e := range projection {
			if e.Key == "_id" {
				if include, literal := projectionValue(e.Value); !include || !literal {
					return false
				}
			}
		}
		return true
	}

	inclusion := false
	for _, e := range projection {
		if e.Key == "_id" {
			continue
		}
		// computed fields put the projection in inclusion mode too
		if include, _ := projectionValue(e.Value); include {
			inclusion = true
			break
		}
	}

	for _, e := range projection {
		if e.Key == "_id" {
			continue
		}
		switch {
		case e.Key == field, strings.HasPrefix(field, e.Key+"."):
			// field is the projected path or lives beneath it
			include, literal := projectionValue(e.Value)
			return include && literal
		case strings.HasPrefix(e.Key, field+"."):
			// only part of field survives, so its value changes
			return false
		}
	}
	return !inclusion
}

// projectionValue interprets a projection value. The second result is false
// for expressions such as "$title" or {"$slice": 1}, which include the field
// with a value that may differ from the stored one.
func projectionValue(v interface{}) (include bool, literal bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, true
	case int32:
		return x != 0, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0, true
	case Direction:
		return x != 0, true
	default:
		return true, false
	}
}
