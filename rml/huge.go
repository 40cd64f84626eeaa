package rml

import (
	"context"
	"sync"

	"github.com/tinylib/msgp/msgp"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/transport"
)

// sendHuge implements the three-step rendezvous of §4.1: a small control
// record announces the size, the destination posts a receive and acks, and
// only then does the sender transmit the real payload.
func (e *Engine) sendHuge(ctx context.Context, dst int, handlerID int32, attr uint32, ordered bool, payload []byte) error {
	e.sendMu.Lock()
	if ordered {
		seq := e.sendCounters[dst]
		e.sendCounters[dst] = seq + 1
		attr = withSeq(attr, seq)
	}
	dataHdr := header{Src: int32(e.fabric.Rank()), Handler: handlerID, Attr: attr}
	e.sendMu.Unlock()

	mu := e.hugeSendLock(dst)
	mu.Lock()
	defer mu.Unlock()

	ack := make(chan struct{}, 1)
	e.hugeAcksMu.Lock()
	e.hugeAcks[dst] = ack
	e.hugeAcksMu.Unlock()

	ctrlHdr := header{Src: int32(e.fabric.Rank()), Handler: huegeCtrlHandler}
	ctrlBody := msgp.AppendInt64(nil, int64(len(payload)))
	ctrlBuf := ctrlHdr.MarshalMsg(make([]byte, 0, 16+len(ctrlBody)))
	ctrlBuf = append(ctrlBuf, ctrlBody...)
	if err := e.fabric.Send(ctx, dst, transport.RMITag, ctrlBuf); err != nil {
		return err
	}

	select {
	case <-ack:
	case <-ctx.Done():
		return ctx.Err()
	}

	dataBuf := dataHdr.MarshalMsg(make([]byte, 0, 16+len(payload)))
	dataBuf = append(dataBuf, payload...)
	if err := e.fabric.Send(ctx, dst, transport.RMIHugeDatTag, dataBuf); err != nil {
		return err
	}
	e.stats.NMsgSent.Inc()
	e.stats.NByteSent.Add(float64(len(dataBuf)))
	return nil
}

func (e *Engine) hugeSendLock(dst int) *sync.Mutex {
	e.hugeSendMuMu.Lock()
	defer e.hugeSendMuMu.Unlock()
	mu, ok := e.hugeSendMu[dst]
	if !ok {
		mu = &sync.Mutex{}
		e.hugeSendMu[dst] = mu
	}
	return mu
}

// onHugeCtrl enqueues an incoming huge-message announcement; the dedicated
// hugeLoop goroutine drains this FIFO and services one rendezvous at a time,
// per §4.1 ("when a slot is free").
func (e *Engine) onHugeCtrl(hdr header, rest []byte) {
	nbyte, _, err := msgp.ReadInt64Bytes(rest)
	debug.AssertNoErr(err)
	select {
	case e.hugeQueue <- hugeReq{src: int(hdr.Src), nbyte: int(nbyte)}:
	default:
		debug.Assertf(false, "rml: huge-message queue overflow from src=%d", hdr.Src)
	}
}

func (e *Engine) onHugeAck(hdr header) {
	e.hugeAcksMu.Lock()
	ch, ok := e.hugeAcks[int(hdr.Src)]
	e.hugeAcksMu.Unlock()
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// hugeLoop services §4.1's huge queue: for each pending request it acks the
// sender, then waits for the matching payload on the rendezvous tag before
// dispatching it exactly like an eager message (ordering included).
func (e *Engine) hugeLoop() {
	defer e.wg.Done()
	datCh := e.fabric.Recv(transport.RMIHugeDatTag)
	for {
		select {
		case <-e.doneCh:
			return
		case req := <-e.hugeQueue:
			e.serviceHugeRequest(req, datCh)
		}
	}
}

func (e *Engine) serviceHugeRequest(req hugeReq, datCh <-chan []byte) {
	ack := header{Src: int32(e.fabric.Rank()), Handler: hugeAckHandler}
	buf := ack.MarshalMsg(nil)
	if err := e.fabric.Send(context.Background(), req.src, transport.RMITag, buf); err != nil {
		debug.Assertf(false, "rml: huge ack send failed: %v", err)
		return
	}

	select {
	case <-e.doneCh:
		return
	case raw := <-datCh:
		var hdr header
		rest, err := hdr.UnmarshalMsg(raw)
		debug.AssertNoErr(err)
		debug.Assertf(int(hdr.Src) == req.src, "rml: huge data from unexpected src %d, want %d", hdr.Src, req.src)
		e.stats.NMsgRecv.Inc()
		e.stats.NByteRecv.Add(float64(len(raw)))
		e.onEager(hdr, rest)
	}
}
