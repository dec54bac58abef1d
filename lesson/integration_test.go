// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package lesson

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ikmak/mongo-cursor-lessons/equivalence"
	"github.com/ikmak/mongo-cursor-lessons/internal/extjson"
	"github.com/ikmak/mongo-cursor-lessons/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func findDocs(t *testing.T, coll *mongo.Collection, intent equivalence.Intent) []bson.Raw {
	t.Helper()
	ctx := context.Background()
	cur, err := coll.Find(ctx, intent.FilterDocument(), intent.FindOptions())
	require.NoError(t, err)
	docs, err := extjson.Drain(ctx, cur)
	require.NoError(t, err)
	return docs
}

func aggregateDocs(t *testing.T, coll *mongo.Collection, pipeline mongo.Pipeline) []bson.Raw {
	t.Helper()
	ctx := context.Background()
	cur, err := coll.Aggregate(ctx, pipeline)
	require.NoError(t, err)
	docs, err := extjson.Drain(ctx, cur)
	require.NoError(t, err)
	return docs
}

func requireSameDocs(t *testing.T, expected, actual []bson.Raw) {
	t.Helper()
	if diff := cmp.Diff(toJSON(expected), toJSON(actual)); diff != "" {
		t.Fatalf("cursor and pipeline results differ (-cursor +pipeline):\n%s", diff)
	}
}

func TestLiveEquivalence(t *testing.T) {
	coll := testutil.SeedMovies(t)

	titleCast := bson.D{{"_id", 0}, {"title", 1}, {"cast", 1}}
	yearTitleCast := bson.D{{"_id", 0}, {"year", 1}, {"title", 1}, {"cast", 1}}

	t.Run("limit", func(t *testing.T) {
		intent := equivalence.Intent{Filter: samRaimi, Projection: titleCast, Limit: 2}
		cursorDocs := findDocs(t, coll, intent)
		require.Len(t, cursorDocs, 2)
		for _, doc := range cursorDocs {
			elems, err := doc.Elements()
			require.NoError(t, err)
			require.Len(t, elems, 2)
			assert.Equal(t, "title", elems[0].Key())
			assert.Equal(t, "cast", elems[1].Key())
		}
		requireSameDocs(t, cursorDocs, aggregateDocs(t, coll, intent.Pipeline()))
	})
	t.Run("single key sort", func(t *testing.T) {
		for _, dir := range []equivalence.Direction{equivalence.Ascending, equivalence.Descending} {
			intent := equivalence.Intent{
				Filter:     samRaimi,
				Projection: yearTitleCast,
				Sort:       []equivalence.SortKey{{Field: "year", Direction: dir}},
			}
			requireSameDocs(t, findDocs(t, coll, intent), aggregateDocs(t, coll, intent.Pipeline()))
		}
	})
	t.Run("multi key sort", func(t *testing.T) {
		intent := equivalence.Intent{
			Filter:     tomHanks,
			Projection: yearTitleCast,
			Sort:       []equivalence.SortKey{equivalence.Asc("year"), equivalence.Asc("title")},
		}
		cursorDocs := findDocs(t, coll, intent)
		require.Len(t, cursorDocs, testutil.TomHanksMovies)
		assert.Equal(t, "Big", cursorDocs[0].Lookup("title").StringValue())
		assert.Equal(t, "Punchline", cursorDocs[1].Lookup("title").StringValue())
		requireSameDocs(t, cursorDocs, aggregateDocs(t, coll, intent.Pipeline()))
	})
	t.Run("sort on a projected-away key", func(t *testing.T) {
		intent := equivalence.Intent{
			Filter:     samRaimi,
			Projection: titleCast,
			Sort:       []equivalence.SortKey{equivalence.Desc("year")},
			Limit:      3,
		}
		cursorDocs := findDocs(t, coll, intent)
		require.Len(t, cursorDocs, 3)
		assert.Equal(t, "Doctor Strange in the Multiverse of Madness", cursorDocs[0].Lookup("title").StringValue())
		requireSameDocs(t, cursorDocs, aggregateDocs(t, coll, intent.Pipeline()))
	})
	t.Run("skip after sort is stable", func(t *testing.T) {
		sorted := equivalence.Intent{Filter: samRaimi, Projection: yearTitleCast, Sort: []equivalence.SortKey{equivalence.Asc("year")}}
		full := findDocs(t, coll, sorted)
		require.Len(t, full, testutil.SamRaimiMovies)

		for n := int64(0); n <= testutil.SamRaimiMovies; n++ {
			skipped := sorted
			skipped.Skip = n
			cursorDocs := findDocs(t, coll, skipped)
			requireSameDocs(t, full[n:], cursorDocs)
			requireSameDocs(t, cursorDocs, aggregateDocs(t, coll, skipped.Pipeline()))
		}
	})
	t.Run("count", func(t *testing.T) {
		pipeline, err := equivalence.CountPipeline(samRaimi, "num_movies")
		require.NoError(t, err)
		docs := aggregateDocs(t, coll, pipeline)
		require.Len(t, docs, 1)
		assert.Equal(t, int32(testutil.SamRaimiMovies), docs[0].Lookup("num_movies").Int32())
	})
	t.Run("unsorted skip", func(t *testing.T) {
		intent := equivalence.Intent{Filter: samRaimi, Projection: titleCast, Skip: 14}
		assert.Len(t, findDocs(t, coll, intent), 1)
		assert.Len(t, aggregateDocs(t, coll, intent.Pipeline()), 1)
	})
}

func TestLiveCatalogue(t *testing.T) {
	coll := testutil.SeedMovies(t)
	ctx := context.Background()

	report, err := (&Verifier{Coll: coll}).Verify(ctx, Catalogue()...)
	require.NoError(t, err)
	assert.True(t, report.OK(), "failed: %+v", report.Failed())

	var out bytes.Buffer
	require.NoError(t, (&Runner{Coll: coll, Out: &out}).Run(ctx, Catalogue()...))
	assert.Contains(t, out.String(), `"num_movies": 15`)
}
