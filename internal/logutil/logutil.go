// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package logutil builds the logrus logger used by the lesson runner and
// bridges it into the driver's logging.
package logutil

import (
	"io"

	"github.com/bombsimon/logrusr/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// New returns a logger writing text records at the named level to out.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger, nil
}

// DriverOptions returns logger options that send driver log messages to
// logger. Command started/succeeded/failed messages are only enabled when
// logger is at debug level or finer.
func DriverOptions(logger *logrus.Logger) *options.LoggerOptions {
	sink := logrusr.New(logger).GetSink()

	opts := options.
		Logger().
		SetSink(sink).
		SetMaxDocumentLength(256)

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		opts.SetComponentLevel(options.LogComponentCommand, options.LogLevelDebug)
	}
	return opts
}
