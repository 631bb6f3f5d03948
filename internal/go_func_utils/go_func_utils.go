package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn in a new goroutine. A panic inside fn is written to logger
// together with the goroutine name and stack before it is re-raised, so that
// crashes are not lost behind the curses dashboard.
func SafeGo(logger *log.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
