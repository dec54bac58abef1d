// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package lesson

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memCollection answers the query shapes the lessons use from an in-memory
// slice: top-level equality filters (matching array elements too), inclusion
// and exclusion projections, sorts, skip, limit and $count.
type memCollection struct {
	docs []bson.D

	// reverseAggregate makes Aggregate scan documents in reverse storage
	// order, like a server that picked a different plan.
	reverseAggregate bool
	// tamper, when set, rewrites Aggregate results before they are returned.
	tamper func([]bson.D) []bson.D

	findErr, aggregateErr, countErr error

	mu        sync.Mutex
	finds     []*options.FindOptions
	pipelines []mongo.Pipeline
}

var _ Collection = (*memCollection)(nil)

func newMemCollection(docs []interface{}) *memCollection {
	mc := &memCollection{}
	for _, d := range docs {
		mc.docs = append(mc.docs, d.(bson.D))
	}
	return mc
}

func (mc *memCollection) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if mc.findErr != nil {
		return nil, mc.findErr
	}
	opt := options.MergeFindOptions(opts...)
	mc.mu.Lock()
	mc.finds = append(mc.finds, opt)
	mc.mu.Unlock()

	docs := match(mc.docs, filter.(bson.D))
	if opt.Sort != nil {
		docs = sortDocs(docs, opt.Sort.(bson.D))
	}
	if opt.Skip != nil {
		docs = skip(docs, *opt.Skip)
	}
	if opt.Limit != nil {
		docs = limit(docs, *opt.Limit)
	}
	if opt.Projection != nil {
		docs = project(docs, opt.Projection.(bson.D))
	}
	return cursor(docs)
}

func (mc *memCollection) Aggregate(_ context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	if mc.aggregateErr != nil {
		return nil, mc.aggregateErr
	}
	stages := pipeline.(mongo.Pipeline)
	mc.mu.Lock()
	mc.pipelines = append(mc.pipelines, stages)
	mc.mu.Unlock()

	docs := append([]bson.D(nil), mc.docs...)
	if mc.reverseAggregate {
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
	}

	for _, stage := range stages {
		e := stage[0]
		switch e.Key {
		case "$match":
			docs = match(docs, e.Value.(bson.D))
		case "$project":
			docs = project(docs, e.Value.(bson.D))
		case "$sort":
			docs = sortDocs(docs, e.Value.(bson.D))
		case "$skip":
			docs = skip(docs, e.Value.(int64))
		case "$limit":
			docs = limit(docs, e.Value.(int64))
		case "$count":
			n := len(docs)
			docs = nil
			if n > 0 {
				docs = []bson.D{{{e.Value.(string), int32(n)}}}
			}
		default:
			return nil, fmt.Errorf("unsupported stage %s", e.Key)
		}
	}
	if mc.tamper != nil {
		docs = mc.tamper(docs)
	}
	return cursor(docs)
}

func (mc *memCollection) CountDocuments(_ context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	if mc.countErr != nil {
		return 0, mc.countErr
	}
	opt := options.MergeCountOptions(opts...)
	docs := match(mc.docs, filter.(bson.D))
	if opt.Skip != nil {
		docs = skip(docs, *opt.Skip)
	}
	if opt.Limit != nil {
		docs = limit(docs, *opt.Limit)
	}
	return int64(len(docs)), nil
}

func cursor(docs []bson.D) (*mongo.Cursor, error) {
	out := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func lookup(doc bson.D, key string) (interface{}, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func match(docs []bson.D, filter bson.D) []bson.D {
	var out []bson.D
	for _, doc := range docs {
		ok := true
		for _, cond := range filter {
			v, found := lookup(doc, cond.Key)
			if !found || !matchesValue(v, cond.Value) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out
}

func matchesValue(v, want interface{}) bool {
	if arr, ok := v.(bson.A); ok {
		for _, elem := range arr {
			if compareValues(elem, want) == 0 {
				return true
			}
		}
		return false
	}
	return compareValues(v, want) == 0
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	}
	return true
}

func project(docs []bson.D, projection bson.D) []bson.D {
	spec := make(map[string]bool, len(projection))
	inclusion := false
	for _, e := range projection {
		spec[e.Key] = truthy(e.Value)
		if e.Key != "_id" && truthy(e.Value) {
			inclusion = true
		}
	}

	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		var projected bson.D
		for _, e := range doc {
			include, listed := spec[e.Key]
			switch {
			case e.Key == "_id":
				if !listed || include {
					projected = append(projected, e)
				}
			case inclusion:
				if listed && include {
					projected = append(projected, e)
				}
			default:
				if !listed {
					projected = append(projected, e)
				}
			}
		}
		out = append(out, projected)
	}
	return out
}

func sortDocs(docs []bson.D, keys bson.D) []bson.D {
	out := append([]bson.D(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			a, _ := lookup(out[i], k.Key)
			b, _ := lookup(out[j], k.Key)
			c := compareValues(a, b)
			if k.Value.(int) < 0 {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

func skip(docs []bson.D, n int64) []bson.D {
	if n >= int64(len(docs)) {
		return nil
	}
	return docs[n:]
}

func limit(docs []bson.D, n int64) []bson.D {
	if n < int64(len(docs)) {
		return docs[:n]
	}
	return docs
}

func compareValues(a, b interface{}) int {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func asInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}
