// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package extjson renders query results as indented relaxed Extended JSON.
package extjson

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Drain reads every remaining document from cur and closes it.
func Drain(ctx context.Context, cur *mongo.Cursor) ([]bson.Raw, error) {
	docs := make([]bson.Raw, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Write renders docs into w as an indented JSON array followed by exactly one
// newline.
func Write(w io.Writer, docs ...bson.Raw) error {
	out, err := Indent(docs)
	if err != nil {
		return err
	}
	out = append(bytes.TrimRight(out, "\n"), '\n')
	_, err = w.Write(out)
	return err
}

// Indent renders docs as a JSON array indented by two spaces. Field order is
// preserved.
func Indent(docs []bson.Raw) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		out, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", i)
		}
		buf.Write(out)
	}
	buf.WriteByte(']')
	return pretty.PrettyOptions(buf.Bytes(), prettyOptions), nil
}
