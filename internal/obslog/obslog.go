// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package obslog installs the process-wide logger exactly once, so
// that repeated worker or orchestrator construction within the same
// process never double-installs logging state. Components still take
// a log.Logger field at construction time rather than reaching for a
// package global, the way threshold.ThresholdClient and
// graph.GraphQLPrecompile do.
package obslog

import (
	"sync"

	log "github.com/luxfi/log"
)

var (
	once   sync.Once
	global log.Logger
)

// Init installs the process-wide logger on first call; subsequent
// calls are no-ops and return the logger installed by the first call.
func Init() log.Logger {
	once.Do(func() {
		global = log.NewTestLogger(log.InfoLevel)
	})
	return global
}

// L returns the process-wide logger, installing it on first use.
func L() log.Logger {
	if global == nil {
		return Init()
	}
	return global
}
