// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package lesson

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ikmak/mongo-cursor-lessons/internal/extjson"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"golang.org/x/sync/errgroup"
)

// Mode is how strictly the two forms of a lesson are compared.
type Mode int

// Comparison modes.
const (
	// Ordered requires the same documents in the same order.
	Ordered Mode = iota
	// Unordered requires the same documents in any order.
	Unordered
	// Cardinality only requires the same number of documents. Used for skip
	// or limit without a sort, where the server picks which documents are
	// dropped.
	Cardinality
)

func (m Mode) String() string {
	switch m {
	case Ordered:
		return "ordered"
	case Unordered:
		return "unordered"
	case Cardinality:
		return "cardinality"
	default:
		return "unknown"
	}
}

// ModeFor returns the comparison mode that is sound for l.
func ModeFor(l Lesson) Mode {
	switch {
	case l.IsCount(), l.Intent.Deterministic():
		return Ordered
	case l.Intent.Skip == 0 && l.Intent.Limit == 0:
		return Unordered
	default:
		return Cardinality
	}
}

// Result is the outcome of comparing one lesson's two forms.
type Result struct {
	Lesson string
	Mode   Mode
	Equal  bool

	CursorDocs   int
	PipelineDocs int

	// Diff is a go-cmp diff of the Extended JSON documents, set on mismatch.
	Diff string

	CursorLatency   time.Duration
	PipelineLatency time.Duration
}

// Report collects the results of a Verify call.
type Report struct {
	Results []Result
}

// OK reports whether every lesson matched.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Equal {
			return false
		}
	}
	return true
}

// Failed returns the lessons whose forms disagreed.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Equal {
			failed = append(failed, res)
		}
	}
	return failed
}

// Summary holds round trip latency statistics for each form.
type Summary struct {
	CursorMedian   time.Duration
	CursorP95      time.Duration
	PipelineMedian time.Duration
	PipelineP95    time.Duration
}

// Summary computes latency statistics over the report. It fails on an empty
// report.
func (r Report) Summary() (Summary, error) {
	cursor := make(stats.Float64Data, 0, len(r.Results))
	pipeline := make(stats.Float64Data, 0, len(r.Results))
	for _, res := range r.Results {
		cursor = append(cursor, float64(res.CursorLatency))
		pipeline = append(pipeline, float64(res.PipelineLatency))
	}

	var s Summary
	var err error
	if s.CursorMedian, s.CursorP95, err = medianP95(cursor); err != nil {
		return Summary{}, errors.Wrap(err, FormCursor)
	}
	if s.PipelineMedian, s.PipelineP95, err = medianP95(pipeline); err != nil {
		return Summary{}, errors.Wrap(err, FormPipeline)
	}
	return s, nil
}

func medianP95(data stats.Float64Data) (time.Duration, time.Duration, error) {
	median, err := stats.Median(data)
	if err != nil {
		return 0, 0, err
	}
	p95, err := stats.PercentileNearestRank(data, 95)
	if err != nil {
		return 0, 0, err
	}
	return time.Duration(median), time.Duration(p95), nil
}

// Verifier runs both forms of each lesson and checks they agree.
type Verifier struct {
	Coll Collection
	Log  logrus.FieldLogger
}

// Verify compares the lessons one at a time; the two forms of a lesson are
// sent concurrently. A driver error stops verification and is returned along
// with the results gathered so far.
func (v *Verifier) Verify(ctx context.Context, lessons ...Lesson) (Report, error) {
	var report Report
	for _, l := range lessons {
		res, err := v.verifyOne(ctx, l)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (v *Verifier) verifyOne(ctx context.Context, l Lesson) (Result, error) {
	if err := l.Validate(); err != nil {
		return Result{}, err
	}
	pipeline, err := l.Pipeline()
	if err != nil {
		return Result{}, err
	}

	res := Result{Lesson: l.Name, Mode: ModeFor(l)}
	entry := logger(v.Log).WithFields(logrus.Fields{"lesson": l.Name, "mode": res.Mode})
	if res.Mode == Cardinality {
		entry.Warn("skip or limit without a sort; comparing document counts only")
	}

	var cursorDocs, pipelineDocs []bson.Raw
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() { res.CursorLatency = time.Since(start) }()

		if l.IsCount() {
			n, err := v.Coll.CountDocuments(gctx, l.Intent.FilterDocument(), l.Intent.CountOptions())
			if err == nil {
				var doc bson.Raw
				if doc, err = countDocument(l.CountField, n); err == nil {
					cursorDocs = []bson.Raw{doc}
				}
			}
			return errors.Wrapf(err, "lesson %s: %s form", l.Name, FormCursor)
		}

		cur, err := v.Coll.Find(gctx, l.Intent.FilterDocument(), l.Intent.FindOptions())
		if err == nil {
			cursorDocs, err = extjson.Drain(gctx, cur)
		}
		return errors.Wrapf(err, "lesson %s: %s form", l.Name, FormCursor)
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { res.PipelineLatency = time.Since(start) }()

		cur, err := v.Coll.Aggregate(gctx, pipeline)
		if err == nil {
			pipelineDocs, err = extjson.Drain(gctx, cur)
		}
		return errors.Wrapf(err, "lesson %s: %s form", l.Name, FormPipeline)
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if l.IsCount() && len(pipelineDocs) == 0 {
		// $count emits nothing when no document matched
		zero, err := countDocument(l.CountField, 0)
		if err != nil {
			return Result{}, errors.Wrapf(err, "lesson %s: %s form", l.Name, FormPipeline)
		}
		pipelineDocs = []bson.Raw{zero}
	}
	if l.IsCount() {
		cursorDocs, pipelineDocs = normalizeCounts(l.CountField, cursorDocs), normalizeCounts(l.CountField, pipelineDocs)
	}

	res.CursorDocs, res.PipelineDocs = len(cursorDocs), len(pipelineDocs)
	res.Equal, res.Diff = compare(res.Mode, cursorDocs, pipelineDocs)

	entry.WithFields(logrus.Fields{
		"equal":         res.Equal,
		"cursor_docs":   res.CursorDocs,
		"pipeline_docs": res.PipelineDocs,
	}).Debug("compared")
	return res, nil
}

// normalizeCounts rewrites {field: n} documents so that int32 and int64
// counts compare equal.
func normalizeCounts(field string, docs []bson.Raw) []bson.Raw {
	out := make([]bson.Raw, 0, len(docs))
	for _, doc := range docs {
		val, err := doc.LookupErr(field)
		if err != nil {
			out = append(out, doc)
			continue
		}
		var n int64
		switch val.Type {
		case bsontype.Int32:
			n = int64(val.Int32())
		case bsontype.Int64:
			n = val.Int64()
		default:
			out = append(out, doc)
			continue
		}
		norm, err := countDocument(field, n)
		if err != nil {
			out = append(out, doc)
			continue
		}
		out = append(out, norm)
	}
	return out
}

func compare(mode Mode, cursor, pipeline []bson.Raw) (bool, string) {
	switch mode {
	case Cardinality:
		if len(cursor) == len(pipeline) {
			return true, ""
		}
		return false, cmp.Diff(len(cursor), len(pipeline))
	case Unordered:
		cursor, pipeline = sortedCopy(cursor), sortedCopy(pipeline)
	}

	equal := len(cursor) == len(pipeline)
	for i := 0; equal && i < len(cursor); i++ {
		equal = bytes.Equal(cursor[i], pipeline[i])
	}
	if equal {
		return true, ""
	}
	return false, cmp.Diff(toJSON(cursor), toJSON(pipeline))
}

func sortedCopy(docs []bson.Raw) []bson.Raw {
	out := make([]bson.Raw, len(docs))
	copy(out, docs)
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

func toJSON(docs []bson.Raw) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.String())
	}
	return out
}
