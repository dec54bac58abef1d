// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Command cursorlesson shows cursor methods next to their aggregation
// pipeline equivalents against the sample_mflix movies collection.
//
// Usage:
//
//	cursorlesson [flags] [run|verify|table|count] [args...]
//
// run prints the named lessons (all by default) one after another. verify
// checks that both forms of each lesson return the same documents. table
// prints the equivalence table without connecting. count prints the $count
// result for a director, "Sam Raimi" unless one is given.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ikmak/mongo-cursor-lessons/equivalence"
	"github.com/ikmak/mongo-cursor-lessons/internal/config"
	"github.com/ikmak/mongo-cursor-lessons/internal/logutil"
	"github.com/ikmak/mongo-cursor-lessons/lesson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// errMismatch is returned by verify when a lesson's forms disagree.
var errMismatch = errors.New("cursor and pipeline forms disagree")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "cursorlesson: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, rest, err := config.Load("cursorlesson", args)
	if err != nil {
		return err
	}

	cmd := "run"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	var lessons []lesson.Lesson
	switch cmd {
	case "table":
		return printTable(stdout)
	case "run", "verify":
		if lessons, err = lesson.Select(rest...); err != nil {
			return err
		}
	case "count":
		lessons = []lesson.Lesson{countLesson(rest)}
	default:
		return errors.Errorf("unknown command %q (want run, verify, table or count)", cmd)
	}

	logger, err := logutil.New(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}

	client, err := lesson.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.WithError(err).Warn("disconnect failed")
		}
	}()
	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	return execute(ctx, cmd, coll, lessons, stdout, logger)
}

// execute runs an already selected command against coll.
func execute(ctx context.Context, cmd string, coll lesson.Collection, lessons []lesson.Lesson, out io.Writer, logger logrus.FieldLogger) error {
	if cmd == "verify" {
		return verify(ctx, coll, lessons, out, logger)
	}
	r := &lesson.Runner{Coll: coll, Out: out, Log: logger}
	return r.Run(ctx, lessons...)
}

// countLesson counts the films of the director named by args.
func countLesson(args []string) lesson.Lesson {
	director := "Sam Raimi"
	if len(args) > 0 {
		director = strings.Join(args, " ")
	}
	return lesson.Lesson{
		Name:       "count",
		Title:      "Counting films directed by " + director,
		Intent:     equivalence.Intent{Filter: bson.D{{"directors", director}}},
		CountField: "num_movies",
	}
}

func verify(ctx context.Context, coll lesson.Collection, lessons []lesson.Lesson, out io.Writer, logger logrus.FieldLogger) error {
	v := &lesson.Verifier{Coll: coll, Log: logger}
	report, err := v.Verify(ctx, lessons...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LESSON\tMODE\tRESULT\tCURSOR\tPIPELINE")
	for _, res := range report.Results {
		status := "ok"
		if !res.Equal {
			status = "MISMATCH"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d docs in %v\t%d docs in %v\n",
			res.Lesson, res.Mode, status,
			res.CursorDocs, res.CursorLatency, res.PipelineDocs, res.PipelineLatency)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range report.Failed() {
		fmt.Fprintf(out, "\n%s (-cursor +pipeline):\n%s", res.Lesson, res.Diff)
	}

	if summary, err := report.Summary(); err == nil {
		fmt.Fprintf(out, "\nround trip median/p95: cursor %v/%v, pipeline %v/%v\n",
			summary.CursorMedian, summary.CursorP95, summary.PipelineMedian, summary.PipelineP95)
	}

	if !report.OK() {
		return errMismatch
	}
	return nil
}

func printTable(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CURSOR\tPIPELINE\tRULE")
	for _, row := range equivalence.Table() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Cursor, row.Pipeline, row.Rule)
	}
	return tw.Flush()
}
