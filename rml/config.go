package rml

import (
	"os"

	"github.com/madwave-project/madwave/internal/cos"
)

// Config is the recognized environment configuration of §4.1.
type Config struct {
	MaxMsgLen int64 // eager buffer size, KB/MB/GB-suffixed in the environment
	NRecv     int   // eager receive buffer count, minimum 2; validated by New, which posts no separate buffers
	Alignment int64
	OOOMax    int // bound on the per-peer out-of-order parking queue
}

const (
	defaultMaxMsgLen = 3 * 512 * 1024
	defaultAlignment = 64
	defaultOOOMax    = 4096
)

// DefaultConfig returns §4.1's documented defaults, then applies MAX_MSG_LEN
// and N_RECV from the environment if present, reading process environment
// at startup the way a config layer normally does.
func DefaultConfig() Config {
	c := Config{
		MaxMsgLen: int64(cos.RoundUp(defaultMaxMsgLen, defaultAlignment)),
		NRecv:     2,
		Alignment: defaultAlignment,
		OOOMax:    defaultOOOMax,
	}
	if s := os.Getenv("MAX_MSG_LEN"); s != "" {
		if n, err := cos.ParseSize(s); err == nil {
			c.MaxMsgLen = cos.RoundUp(n, c.Alignment)
		}
	}
	if s := os.Getenv("N_RECV"); s != "" {
		if n, err := cos.ParseSize(s); err == nil && n >= 2 {
			c.NRecv = int(n)
		}
	}
	return c
}
