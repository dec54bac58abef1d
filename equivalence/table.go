// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package equivalence

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Row is one line of the cursor method to pipeline stage table.
type Row struct {
	Cursor   string
	Pipeline string
	Rule     string
}

var table = []Row{
	{
		Cursor:   "find(filter, projection)",
		Pipeline: `{$match: filter}, {$project: projection}`,
		Rule:     "filter and projection become separate stages, $match before $project unless a later stage needs a field the projection drops",
	},
	{
		Cursor:   ".limit(n)",
		Pipeline: "{$limit: n}",
		Rule:     "appended after $match/$project; caps the result count at n",
	},
	{
		Cursor:   ".sort(key, direction)",
		Pipeline: "{$sort: {key: direction}}",
		Rule:     "direction is 1 for ascending, -1 for descending",
	},
	{
		Cursor:   ".sort([(k1, d1), (k2, d2)])",
		Pipeline: "{$sort: {k1: d1, k2: d2}}",
		Rule:     "keys keep list order; k1 is primary and k2 breaks ties",
	},
	{
		Cursor:   ".skip(n)",
		Pipeline: "{$skip: n}",
		Rule:     "applies after the sort; without a sort the skipped documents depend on storage order",
	},
	{
		Cursor:   ".count() (deprecated)",
		Pipeline: `{$count: "field"}`,
		Rule:     "yields one document {field: n}",
	},
}

// Table returns the equivalence table.
func Table() []Row {
	rows := make([]Row, len(table))
	copy(rows, table)
	return rows
}

// CursorString renders the cursor form in shell syntax, for example
// find({"cast": "Tom Hanks"}, {"_id": 0}).sort({"year": 1}).skip(10).limit(2).
// Methods are listed in the order the server applies them.
func (i Intent) CursorString() string {
	var b strings.Builder
	b.WriteString("find(")
	b.WriteString(compact(i.FilterDocument()))
	if len(i.Projection) > 0 {
		b.WriteString(", ")
		b.WriteString(compact(i.Projection))
	}
	b.WriteString(")")
	if len(i.Sort) > 0 {
		fmt.Fprintf(&b, ".sort(%s)", compact(i.SortDocument()))
	}
	if i.Skip > 0 {
		fmt.Fprintf(&b, ".skip(%d)", i.Skip)
	}
	if i.Limit > 0 {
		fmt.Fprintf(&b, ".limit(%d)", i.Limit)
	}
	return b.String()
}

// PipelineString renders the aggregation form as a JSON array of stages.
func (i Intent) PipelineString() string {
	return PipelineString(i.Pipeline())
}

// PipelineString renders any pipeline as a JSON array of stages.
func PipelineString(pipeline mongo.Pipeline) string {
	stages := make([]string, 0, len(pipeline))
	for _, stage := range pipeline {
		stages = append(stages, compact(stage))
	}
	return "[" + strings.Join(stages, ", ") + "]"
}

func compact(doc bson.D) string {
	if doc == nil {
		doc = bson.D{}
	}
	out, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	// the relaxed writer emits {"a":1}; add the spacing the shell uses
	s := string(out)
	s = strings.ReplaceAll(s, `":`, `": `)
	s = strings.ReplaceAll(s, `,"`, `, "`)
	return s
}
