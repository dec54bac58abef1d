// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package lesson

import (
	"sort"
	"strings"

	"github.com/ikmak/mongo-cursor-lessons/equivalence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lesson is one query shown in both its cursor and its pipeline form.
type Lesson struct {
	Name      string
	Title     string
	Narration string
	Intent    equivalence.Intent

	// CountField marks a count lesson. The cursor form is CountDocuments and
	// the pipeline ends in {$count: CountField}.
	CountField string
}

// IsCount reports whether l counts documents instead of returning them.
func (l Lesson) IsCount() bool {
	return l.CountField != ""
}

// Pipeline returns the aggregation form of the lesson.
func (l Lesson) Pipeline() (mongo.Pipeline, error) {
	if l.IsCount() {
		return l.Intent.CountPipeline(l.CountField)
	}
	return l.Intent.Pipeline(), nil
}

// CursorString renders the cursor form of the lesson.
func (l Lesson) CursorString() string {
	if l.IsCount() {
		find := equivalence.Intent{Filter: l.Intent.Filter}.CursorString()
		return "countDocuments(" + strings.TrimPrefix(find, "find(")
	}
	return l.Intent.CursorString()
}

// PipelineString renders the aggregation form of the lesson.
func (l Lesson) PipelineString() string {
	pipeline, err := l.Pipeline()
	if err != nil {
		return err.Error()
	}
	return equivalence.PipelineString(pipeline)
}

// Validate checks the lesson can be run in both forms.
func (l Lesson) Validate() error {
	if err := l.Intent.Validate(); err != nil {
		return errors.Wrapf(err, "lesson %s", l.Name)
	}
	if l.IsCount() {
		if _, err := l.Pipeline(); err != nil {
			return errors.Wrapf(err, "lesson %s", l.Name)
		}
	}
	return nil
}

var (
	samRaimi = bson.D{{"directors", "Sam Raimi"}}
	tomHanks = bson.D{{"cast", "Tom Hanks"}}

	titleCast     = bson.D{{"_id", 0}, {"title", 1}, {"cast", 1}}
	yearTitleCast = bson.D{{"_id", 0}, {"year", 1}, {"title", 1}, {"cast", 1}}
	titleYearCast = bson.D{{"_id", 0}, {"title", 1}, {"year", 1}, {"cast", 1}}
)

// Catalogue returns the lessons in teaching order.
func Catalogue() []Lesson {
	return []Lesson{
		{
			Name:  "limit",
			Title: "Limiting",
			Narration: "find() with a predicate and a projection, capped at two documents with limit(). " +
				"The pipeline expresses the predicate as $match, the projection as $project and the cap as $limit.",
			Intent: equivalence.Intent{Filter: samRaimi, Projection: titleCast, Limit: 2},
		},
		{
			Name:  "sort",
			Title: "Sorting on one key",
			Narration: "sort() on a single key takes the field and a direction, 1 for ascending and -1 for descending. " +
				"$sort takes the same pair as a document.",
			Intent: equivalence.Intent{
				Filter:     samRaimi,
				Projection: yearTitleCast,
				Sort:       []equivalence.SortKey{equivalence.Asc("year")},
			},
		},
		{
			Name:  "sort-multi",
			Title: "Sorting on several keys",
			Narration: "Sorting on more than one key takes an ordered list of (field, direction) pairs. " +
				"$sort takes one document whose field order gives the precedence: year first, then title.",
			Intent: equivalence.Intent{
				Filter:     tomHanks,
				Projection: yearTitleCast,
				Sort:       []equivalence.SortKey{equivalence.Asc("year"), equivalence.Asc("title")},
			},
		},
		{
			Name:  "count",
			Title: "Counting",
			Narration: "The cursor count() method is deprecated. The $count stage returns a single document " +
				"holding the number of documents that reached it.",
			Intent:     equivalence.Intent{Filter: samRaimi, Projection: titleCast},
			CountField: "num_movies",
		},
		{
			Name:  "skip",
			Title: "Skipping without a sort",
			Narration: "skip() drops documents from the front of the cursor. Without a sort the documents " +
				"that get skipped depend on the order the server happens to return them in.",
			Intent: equivalence.Intent{Filter: samRaimi, Projection: titleCast, Skip: 14},
		},
		{
			Name:  "sort-skip",
			Title: "Skipping after a sort",
			Narration: "Sorting first makes skip() predictable: skipping ten drops the ten oldest films. " +
				"$skip follows $sort in the pipeline.",
			Intent: equivalence.Intent{
				Filter:     samRaimi,
				Projection: titleYearCast,
				Sort:       []equivalence.SortKey{equivalence.Asc("year")},
				Skip:       10,
			},
		},
		{
			Name:  "page",
			Title: "Paging",
			Narration: "With ten films per page, page n skips n*10 films and limits to ten. " +
				"This is the second page.",
			Intent: mustPage(equivalence.Intent{
				Filter:     samRaimi,
				Projection: titleYearCast,
				Sort:       []equivalence.SortKey{equivalence.Asc("year")},
			}, 1, 10),
		},
	}
}

func mustPage(i equivalence.Intent, number, size int64) equivalence.Intent {
	paged, err := i.WithPage(number, size)
	if err != nil {
		panic(err)
	}
	return paged
}

// Select returns the named lessons from the catalogue in the order given.
// With no names it returns the whole catalogue.
func Select(names ...string) ([]Lesson, error) {
	all := Catalogue()
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Lesson, len(all))
	for _, l := range all {
		byName[l.Name] = l
	}

	selected := make([]Lesson, 0, len(names))
	for _, name := range names {
		l, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("unknown lesson %q, available: %s", name, strings.Join(Names(), ", "))
		}
		selected = append(selected, l)
	}
	return selected, nil
}

// Names returns the lesson names sorted alphabetically.
func Names() []string {
	all := Catalogue()
	names := make([]string, 0, len(all))
	for _, l := range all {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}
