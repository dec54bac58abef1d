// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package lesson

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ikmak/mongo-cursor-lessons/internal/extjson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// Form names used in log fields and errors.
const (
	FormCursor   = "cursor"
	FormPipeline = "pipeline"
)

// Runner prints lessons one after another. Each query finishes and is
// printed before the next one is sent.
type Runner struct {
	Coll Collection
	Out  io.Writer
	Log  logrus.FieldLogger
}

// Run prints every lesson in order and stops at the first error.
func (r *Runner) Run(ctx context.Context, lessons ...Lesson) error {
	for _, l := range lessons {
		if err := r.runOne(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, l Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "== %s ==\n", l.Title)
	if l.Narration != "" {
		fmt.Fprintf(r.Out, "%s\n", l.Narration)
	}
	if !l.IsCount() && !l.Intent.Deterministic() && (l.Intent.Skip > 0 || l.Intent.Limit > 0) {
		fmt.Fprintln(r.Out, "(no sort: which documents come back depends on storage order)")
	}

	fmt.Fprintf(r.Out, "\n%s\n", l.CursorString())
	if err := r.printCursorForm(ctx, l); err != nil {
		return errors.Wrapf(err, "lesson %s: %s form", l.Name, FormCursor)
	}

	fmt.Fprintf(r.Out, "\n%s\n", l.PipelineString())
	if err := r.printPipelineForm(ctx, l); err != nil {
		return errors.Wrapf(err, "lesson %s: %s form", l.Name, FormPipeline)
	}
	fmt.Fprintln(r.Out)
	return nil
}

func (r *Runner) printCursorForm(ctx context.Context, l Lesson) error {
	start := time.Now()
	entry := logger(r.Log).WithFields(logrus.Fields{"lesson": l.Name, "form": FormCursor})

	if l.IsCount() {
		n, err := r.Coll.CountDocuments(ctx, l.Intent.FilterDocument(), l.Intent.CountOptions())
		if err != nil {
			return err
		}
		entry.WithField("elapsed", time.Since(start)).Debug("counted")
		doc, err := countDocument(l.CountField, n)
		if err != nil {
			return err
		}
		return writeDocs(r.Out, doc)
	}

	cur, err := r.Coll.Find(ctx, l.Intent.FilterDocument(), l.Intent.FindOptions())
	if err != nil {
		return err
	}
	docs, err := extjson.Drain(ctx, cur)
	if err != nil {
		return err
	}
	entry.WithFields(logrus.Fields{"docs": len(docs), "elapsed": time.Since(start)}).Debug("query finished")
	return writeDocs(r.Out, docs...)
}

func (r *Runner) printPipelineForm(ctx context.Context, l Lesson) error {
	start := time.Now()
	pipeline, err := l.Pipeline()
	if err != nil {
		return err
	}

	cur, err := r.Coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	docs, err := extjson.Drain(ctx, cur)
	if err != nil {
		return err
	}
	logger(r.Log).WithFields(logrus.Fields{
		"lesson":  l.Name,
		"form":    FormPipeline,
		"docs":    len(docs),
		"elapsed": time.Since(start),
	}).Debug("aggregation finished")
	return writeDocs(r.Out, docs...)
}

func writeDocs(w io.Writer, docs ...bson.Raw) error {
	return extjson.Write(w, docs...)
}

// countDocument builds the document $count would produce for n. The server
// emits an int32 when the count fits.
func countDocument(field string, n int64) (bson.Raw, error) {
	var value interface{} = n
	if n <= math.MaxInt32 {
		value = int32(n)
	}
	return bson.Marshal(bson.D{{field, value}})
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discard
	}
	return l
}
