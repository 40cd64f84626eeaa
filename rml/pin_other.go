//go:build !linux

package rml

// pinIOThread is a no-op off Linux; CPU pinning is a best-effort placement
// hint, not a correctness requirement.
func pinIOThread() {}
