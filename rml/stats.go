package rml

import "github.com/prometheus/client_golang/prometheus"

// Stats mirrors §4.1's per-process counters, exported as prometheus
// counters.
type Stats struct {
	NMsgSent  prometheus.Counter
	NByteSent prometheus.Counter
	NMsgRecv  prometheus.Counter
	NByteRecv prometheus.Counter
}

// NewStats registers a fresh set of per-engine counters. reg may be nil, in
// which case the counters are created but not exported (useful in tests
// that construct many short-lived engines against the default registry).
func NewStats(reg prometheus.Registerer, rank int) *Stats {
	labels := prometheus.Labels{"rank": itoa(rank)}
	s := &Stats{
		NMsgSent:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "madwave", Subsystem: "rml", Name: "nmsg_sent", ConstLabels: labels}),
		NByteSent: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "madwave", Subsystem: "rml", Name: "nbyte_sent", ConstLabels: labels}),
		NMsgRecv:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "madwave", Subsystem: "rml", Name: "nmsg_recv", ConstLabels: labels}),
		NByteRecv: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "madwave", Subsystem: "rml", Name: "nbyte_recv", ConstLabels: labels}),
	}
	if reg != nil {
		reg.MustRegister(s.NMsgSent, s.NByteSent, s.NMsgRecv, s.NByteRecv)
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
