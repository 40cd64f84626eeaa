// Package nlog is a minimal leveled logger shared by every madwave package.
// It mirrors the calling convention the rest of the corpus expects from a
// process-wide logger (Infoln/Infof/Errorln/Warningln) without dragging in
// a structured-logging dependency nothing downstream consumes.
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Verbosity gates FastV-style hot-path logging checks.
var verbosity atomic.Int32

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func SetVerbosity(v int) { verbosity.Store(int32(v)) }

// FastV reports whether a hot-path log statement gated at level v should run.
func FastV(v int, _ string) bool { return int32(v) <= verbosity.Load() }

func write(level, module, s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %-5s %s: %s\n", time.Now().Format("15:04:05.000"), level, module, s)
}

func Infoln(module string, args ...any)              { write("INFO", module, fmt.Sprintln(args...)) }
func Infof(module, format string, args ...any)        { write("INFO", module, fmt.Sprintf(format, args...)) }
func Warningln(module string, args ...any)            { write("WARN", module, fmt.Sprintln(args...)) }
func Warningf(module, format string, args ...any)      { write("WARN", module, fmt.Sprintf(format, args...)) }
func Errorln(module string, args ...any)              { write("ERROR", module, fmt.Sprintln(args...)) }
func Errorf(module, format string, args ...any)       { write("ERROR", module, fmt.Sprintf(format, args...)) }
