// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reliability

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"confstore/pkg/log"
)

var (
	// PanicCounter counts panics recovered across all goroutines.
	PanicCounter int64
	// PanicHandler, if set, is invoked after every recovered panic.
	PanicHandler func(goroutineName string, panicValue interface{}, stack []byte)
)

// RecoverPanic recovers a panic and logs it. Call as the first deferred
// statement in any long-running goroutine: defer RecoverPanic("sweeper").
func RecoverPanic(goroutineName string) {
	if r := recover(); r != nil {
		atomic.AddInt64(&PanicCounter, 1)
		stack := debug.Stack()

		log.Error("panic recovered",
			log.Goroutine(goroutineName),
			log.String("panic_value", fmt.Sprintf("%v", r)),
			log.String("stack", string(stack)),
			log.Component("panic-recovery"))

		if PanicHandler != nil {
			PanicHandler(goroutineName, r, stack)
		}
	}
}

// SafeGo launches fn in a goroutine that recovers and logs any panic instead
// of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer RecoverPanic(name)
		fn()
	}()
}

// SafeGoWithRestart launches fn in a goroutine that restarts itself on panic,
// up to maxRestarts times (0 means unlimited).
func SafeGoWithRestart(name string, fn func(), maxRestarts int) {
	restartCount := 0

	var worker func()
	worker = func() {
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&PanicCounter, 1)
				stack := debug.Stack()

				log.Error("panic recovered in restartable goroutine",
					log.Goroutine(name),
					log.Int("restart_count", restartCount),
					log.String("panic_value", fmt.Sprintf("%v", r)),
					log.String("stack", string(stack)),
					log.Component("panic-recovery"))

				if PanicHandler != nil {
					PanicHandler(name, r, stack)
				}

				restartCount++
				if maxRestarts == 0 || restartCount < maxRestarts {
					log.Info("restarting goroutine",
						log.Goroutine(name),
						log.Int("attempt", restartCount+1),
						log.Component("panic-recovery"))
					go worker()
				} else {
					log.Warn("goroutine reached max restarts, not restarting",
						log.Goroutine(name),
						log.Int("max_restarts", maxRestarts),
						log.Component("panic-recovery"))
				}
			}
		}()

		fn()
	}

	go worker()
}

// GetPanicCount returns the number of panics recovered so far.
func GetPanicCount() int64 {
	return atomic.LoadInt64(&PanicCounter)
}

// ResetPanicCount zeroes the panic counter, mainly for tests.
func ResetPanicCount() {
	atomic.StoreInt64(&PanicCounter, 0)
}
