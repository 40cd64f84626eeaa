// Package cos ("common os/small stuff") holds the handful of parsing and
// arithmetic helpers every other package needs and that do not deserve a
// package of their own.
package cos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// ParseSize parses a size with an optional KB/MB/GB suffix, as recognized by
// the MAX_MSG_LEN configuration option (§4.1).
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("cos.ParseSize: empty size")
	}
	mult := int64(1)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "GB"):
		mult, s = GB, s[:len(s)-2]
	case strings.HasSuffix(upper, "MB"):
		mult, s = MB, s[:len(s)-2]
	case strings.HasSuffix(upper, "KB"):
		mult, s = KB, s[:len(s)-2]
	case strings.HasSuffix(upper, "B"):
		s = s[:len(s)-1]
	}
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cos.ParseSize: invalid size %q", s)
	}
	return n * mult, nil
}

// RoundUp rounds n up to the nearest multiple of align (align must be a
// power of two), as required for the RML's aligned receive buffers.
func RoundUp(n, align int64) int64 {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// FmtErrUnknown names the unknown thing in error messages.
const FmtErrUnknown = "unknown %s %q"

func ErrUnknown(kind, name string) error {
	return fmt.Errorf(FmtErrUnknown, kind, name)
}
