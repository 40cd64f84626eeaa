// Package rml implements the Reliable Messaging Layer of §4.1: a single
// background I/O goroutine per process draining a stream of short active
// messages out of the fabric's receive channel, with a
// rendezvous side-channel for oversized payloads and per-peer FIFO
// ordering on request.
package rml

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/transport"
)

const module = "rml"

// Handler processes one delivered message. src is the sending rank; attr is
// the caller-supplied low 15 bits (the ordering bits are stripped before the
// handler sees it).
type Handler func(src int, attr uint32, payload []byte)

type pendingMsg struct {
	hdr     header
	payload []byte
}

type hugeReq struct {
	src   int
	nbyte int
}

// Engine is one process's RML endpoint.
type Engine struct {
	fabric transport.Fabric
	cfg    Config
	stats  *Stats

	handlersMu sync.RWMutex
	handlers   map[int32]Handler

	// sendMu guards sequence-number increment and send submission together,
	// so that two concurrent ordered sends to the same peer cannot race
	// each other into a different wire order than they were issued in.
	sendMu       sync.Mutex
	sendCounters map[int]uint16

	recvMu       sync.Mutex
	recvCounters map[int]uint16
	oooQueue     map[int][]pendingMsg

	hugeQueue chan hugeReq

	hugeSendMuMu sync.Mutex
	hugeSendMu   map[int]*sync.Mutex // one rendezvous at a time per destination

	hugeAcksMu sync.Mutex
	hugeAcks   map[int]chan struct{} // keyed by the responder's rank

	finished atomic.Bool
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs and starts the background I/O goroutine(s). reg may be nil.
func New(fabric transport.Fabric, cfg Config, reg prometheus.Registerer) *Engine {
	debug.Assert(cfg.NRecv >= 2, "rml.New: N_RECV must be >= 2")
	e := &Engine{
		fabric:       fabric,
		cfg:          cfg,
		stats:        NewStats(reg, fabric.Rank()),
		handlers:     map[int32]Handler{},
		sendCounters: map[int]uint16{},
		recvCounters: map[int]uint16{},
		oooQueue:     map[int][]pendingMsg{},
		hugeQueue:    make(chan hugeReq, 1024),
		hugeSendMu:   map[int]*sync.Mutex{},
		hugeAcks:     map[int]chan struct{}{},
		doneCh:       make(chan struct{}),
	}
	e.wg.Add(2)
	go e.ioLoop()
	go e.hugeLoop()
	return e
}

// RegisterHandler binds a handler id to a callback. A message that arrives
// for an id before its handler is registered is logged and dropped, not
// held, so the owning container/tree object registers before any peer
// sends to it.
func (e *Engine) RegisterHandler(id int32, h Handler) {
	e.handlersMu.Lock()
	e.handlers[id] = h
	e.handlersMu.Unlock()
}

// Send implements the eager protocol of §4.1. ordered requests per-peer FIFO
// delivery; unordered is used for latency-insensitive bulk transfers.
func (e *Engine) Send(ctx context.Context, dst int, handlerID int32, attr uint32, ordered bool, payload []byte) error {
	if int64(len(payload)) > e.cfg.MaxMsgLen {
		return e.sendHuge(ctx, dst, handlerID, attr, ordered, payload)
	}

	e.sendMu.Lock()
	if ordered {
		seq := e.sendCounters[dst]
		e.sendCounters[dst] = seq + 1
		attr = withSeq(attr, seq)
	}
	hdr := header{Src: int32(e.fabric.Rank()), Handler: handlerID, Attr: attr}
	buf := hdr.MarshalMsg(make([]byte, 0, 16+len(payload)))
	buf = append(buf, payload...)
	err := e.fabric.Send(ctx, dst, transport.RMITag, buf)
	e.sendMu.Unlock()

	if err == nil {
		e.stats.NMsgSent.Inc()
		e.stats.NByteSent.Add(float64(len(buf)))
	}
	return err
}

func (e *Engine) dispatch(src int, h header, payload []byte) {
	e.handlersMu.RLock()
	handler, ok := e.handlers[h.Handler]
	e.handlersMu.RUnlock()
	if !ok {
		// No object registered yet for this id: the message is logged and
		// dropped. It is neither held for a later registration nor retried.
		nlog.Warningln(module, fmt.Sprintf("no handler registered for id=%d from src=%d, dropping", h.Handler, src))
		return
	}
	handler(src, h.userAttr(), payload)
}

func (e *Engine) ioLoop() {
	defer e.wg.Done()
	pinIOThread()
	ch := e.fabric.Recv(transport.RMITag)
	for {
		select {
		case <-e.doneCh:
			return
		case buf, ok := <-ch:
			if !ok {
				return
			}
			e.onRMITagMsg(buf)
		}
	}
}

func (e *Engine) onRMITagMsg(buf []byte) {
	var hdr header
	rest, err := hdr.UnmarshalMsg(buf)
	debug.AssertNoErr(err)
	e.stats.NMsgRecv.Inc()
	e.stats.NByteRecv.Add(float64(len(buf)))

	switch hdr.Handler {
	case huegeCtrlHandler:
		e.onHugeCtrl(hdr, rest)
	case hugeAckHandler:
		e.onHugeAck(hdr)
	default:
		e.onEager(hdr, rest)
	}
}

func (e *Engine) onEager(hdr header, payload []byte) {
	if !hdr.ordered() {
		e.dispatch(int(hdr.Src), hdr, payload)
		return
	}

	e.recvMu.Lock()
	src := int(hdr.Src)
	want := e.recvCounters[src]
	if hdr.seq() != want {
		q := e.oooQueue[src]
		debug.Assertf(len(q) < e.cfg.OOOMax, "rml: out-of-order queue overflow from src=%d", src)
		q = append(q, pendingMsg{hdr: hdr, payload: payload})
		sort.Slice(q, func(i, j int) bool { return q[i].hdr.seq() < q[j].hdr.seq() })
		e.oooQueue[src] = q
		e.recvMu.Unlock()
		return
	}
	e.recvCounters[src] = want + 1
	ready := []pendingMsg{{hdr: hdr, payload: payload}}
	q := e.oooQueue[src]
	for len(q) > 0 && q[0].hdr.seq() == e.recvCounters[src] {
		ready = append(ready, q[0])
		q = q[1:]
		e.recvCounters[src]++
	}
	e.oooQueue[src] = q
	e.recvMu.Unlock()

	for _, m := range ready {
		e.dispatch(src, m.hdr, m.payload)
	}
}

// End stops the I/O goroutines: it sets the finished flag, closes doneCh,
// and waits for both goroutines to return.
func (e *Engine) End() {
	e.finished.Store(true)
	close(e.doneCh)
	e.wg.Wait()
}

func (e *Engine) Stats() *Stats { return e.stats }
