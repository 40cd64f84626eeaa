//go:build linux

package rml

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/madwave-project/madwave/internal/nlog"
)

// pinIOThread locks the calling goroutine to its current OS thread and pins
// that thread to a single logical CPU, per §5 ("I/O thread... pinned to a
// logical CPU"). Call it as the first statement of the goroutine that will
// become the I/O loop.
func pinIOThread() {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(0)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		nlog.Warningln(module, "failed to pin RML I/O thread:", err)
	}
}
