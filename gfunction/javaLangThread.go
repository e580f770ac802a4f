/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"runtime"
	"time"

	"ristretto/excNames"
)

func Load_Lang_Thread() {

	MethodSignatures["java/lang/Thread.registerNatives()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/Thread.sleep(J)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  threadSleep,
		}

	MethodSignatures["java/lang/Thread.yield()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  threadYield,
		}

	MethodSignatures["java/lang/Thread.currentThread()Ljava/lang/Thread;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  trapFunction,
		}
}

// "java/lang/Thread.sleep(J)V" — a suspension point: the goroutine
// blocks here while the thread's roots stay visible to the collector
// through the frame-stack root registered at thread start.
func threadSleep(params []any) any {
	millis, ok := params[0].(int64)
	if !ok {
		return getGErrBlk(excNames.IllegalArgumentException, "parameter must be a long")
	}
	if millis < 0 {
		return getGErrBlk(excNames.IllegalArgumentException, "timeout value is negative")
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return nil
}

// "java/lang/Thread.yield()V" — the explicit cooperative suspension
// point.
func threadYield([]any) any {
	runtime.Gosched()
	return nil
}
