// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package lesson runs the cursor method lessons against a movies collection,
// printing or comparing the cursor and pipeline form of every query.
package lesson

import (
	"context"
	"time"

	"github.com/ikmak/mongo-cursor-lessons/internal/config"
	"github.com/ikmak/mongo-cursor-lessons/internal/logutil"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection is the subset of *mongo.Collection the lessons read through.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

var _ Collection = (*mongo.Collection)(nil)

const pingRetries = 5

// Connect opens a client for cfg and waits until the deployment answers a
// ping. Only the ping is retried; queries made through the client never are.
// The whole wait is bounded by cfg.Timeout, split evenly between attempts.
// When every attempt fails, the last error from the driver is returned.
func Connect(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	attemptTimeout := cfg.Timeout / (pingRetries + 1)
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(attemptTimeout).
		SetServerSelectionTimeout(attemptTimeout)
	if cfg.DriverLogging {
		clientOpts.SetLoggerOptions(logutil.DriverOptions(logger))
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting")
	}

	var lastErr error
	attempt := 0
	b := retry.NewFibonacci(250 * time.Millisecond)
	err = retry.Do(ctx, retry.WithMaxRetries(pingRetries, b), func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			lastErr = err
			logger.WithError(err).WithField("attempt", attempt).Warn("ping failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		if lastErr != nil {
			err = lastErr
		}
		return nil, errors.Wrapf(err, "pinging deployment after %d attempts", attempt)
	}

	logger.WithFields(logrus.Fields{
		"database":   cfg.Database,
		"collection": cfg.Collection,
		"attempts":   attempt,
	}).Debug("connected")
	return client, nil
}
