/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2023-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace provides the interpreter's per-instruction tracing output,
// layered thinly over log so that -trace output shares the same threshold
// and writer machinery as ordinary logging.
package trace

import "ristretto/log"

// TRACE_INST re-exports log's instruction-trace level for call sites that only
// care about tracing, not the full level vocabulary.
const TRACE_INST = log.TRACE_INST

// Trace emits a single instruction-trace line. Call sites in interpreter
// build the message eagerly only when tracing is enabled by the caller,
// since formatting a trace line for every opcode is otherwise wasteful.
func Trace(msg string) error {
	return log.Log(msg, log.TRACE_INST)
}
