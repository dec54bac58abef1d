// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testutil holds helpers for tests that talk to a live server.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var liveClient *mongo.Client
var liveClientOnce sync.Once
var liveClientErr error

// AddOptionsToURI appends connection string options to a URI.
func AddOptionsToURI(uri string, opts ...string) string {
	if !strings.ContainsRune(uri, '?') {
		if uri[len(uri)-1] != '/' {
			uri += "/"
		}

		uri += "?"
	} else {
		uri += "&"
	}

	for _, opt := range opts {
		uri += opt
	}

	return uri
}

// AddTLSConfigToURI checks for the environmental variable indicating that the tests are being run
// on an SSL-enabled server, and if so, returns a new URI with the necessary configuration.
func AddTLSConfigToURI(uri string) string {
	caFile := os.Getenv("MONGO_GO_DRIVER_CA_FILE")
	if len(caFile) == 0 {
		return uri
	}

	return AddOptionsToURI(uri, "tls=true&tlsCAFile=", caFile)
}

// ConnString gets the globally configured connection string.
func ConnString() string {
	mongodbURI := os.Getenv("MONGODB_URI")
	if mongodbURI == "" {
		mongodbURI = "mongodb://localhost:27017"
	}

	return AddTLSConfigToURI(mongodbURI)
}

// DBName gets a database name that is unique to the test binary and the
// currently executing test.
func DBName(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(t.Name())
	db := fmt.Sprintf("cursor-lessons-%d-%s", os.Getpid(), name)
	if len(db) > 63 {
		db = db[:63]
	}
	return db
}

// Integration should be called at the beginning of integration
// tests to ensure that they are skipped if integration testing is
// turned off.
func Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// Client returns a client shared by every test in the binary. The test is
// skipped when no server answers at ConnString.
func Client(t *testing.T) *mongo.Client {
	Integration(t)

	liveClientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(ConnString()).
			SetServerSelectionTimeout(3 * time.Second)
		liveClient, liveClientErr = mongo.Connect(ctx, opts)
		if liveClientErr != nil {
			return
		}
		liveClientErr = liveClient.Ping(ctx, readpref.Primary())
	})

	if liveClientErr != nil {
		t.Skipf("no server at %s: %v", ConnString(), liveClientErr)
	}
	return liveClient
}

// SeedMovies fills a fresh database with the movies fixture and drops it
// when the test finishes.
func SeedMovies(t *testing.T) *mongo.Collection {
	client := Client(t)
	db := client.Database(DBName(t))
	coll := db.Collection("movies")

	ctx := context.Background()
	require.NoError(t, coll.Drop(ctx))
	_, err := coll.InsertMany(ctx, Movies())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
	})
	return coll
}
