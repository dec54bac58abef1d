// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package equivalence maps cursor transformations onto aggregation pipeline
// stages.
//
// A query is described once as an Intent and rendered in two forms: the
// options handed to Collection.Find, and the stages handed to
// Collection.Aggregate. Both renderings come from the same Intent, so the
// filter, projection, sort keys and skip/limit values always agree:
//
//	intent := equivalence.Intent{
//		Filter:     bson.D{{"directors", "Sam Raimi"}},
//		Projection: bson.D{{"_id", 0}, {"title", 1}, {"cast", 1}},
//		Limit:      2,
//	}
//	cursor, err := coll.Find(ctx, intent.Filter, intent.FindOptions())
//	...
//	cursor, err = coll.Aggregate(ctx, intent.Pipeline())
//
// The cursor methods and their stage equivalents are:
//
//	.limit(n)                    {$limit: n}
//	.sort(k, d)                  {$sort: {k: d}}
//	.sort([(k1, d1), (k2, d2)])  {$sort: {k1: d1, k2: d2}}
//	.skip(n)                     {$skip: n}
//	.count()                     {$count: "field"}
//
// Skipping or limiting without a sort returns documents in whatever order the
// server produces them. The two forms then agree on how many documents come
// back, not necessarily on which ones.
package equivalence
