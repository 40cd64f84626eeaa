package rml

import "github.com/tinylib/msgp/msgp"

// reservedHandler values, a small reserved opcode range below the
// application handler ID space.
const (
	huegeCtrlHandler = -1 // {src,nbyte} control record announcing a huge send
	hugeAckHandler   = -2 // zero-byte ack that the huge-data buffer is posted
)

// attrOrderedFlag marks an attr as carrying a stamped sequence number in its
// high 16 bits, per §4.1 ("stamps attr |= (seq << 16)").
const attrOrderedFlag = uint32(1) << 15

// header is the small prefix written ahead of every eager/huge-control
// payload. The real RMI layer recovers the sender rank from the transport's
// receive status; the in-process `transport/local` fabric does not carry
// one, so header carries Src explicitly — the one deliberate deviation from
// §4.1's wire shape, needed only because of the simulated fabric.
//
// MarshalMsg/UnmarshalMsg are hand-written against the msgp runtime (no
// code generation is run in this environment) rather than reached for
// encoding/gob, matching the corpus's actual choice of wire format
// (tinylib/msgp) for compact binary framing.
type header struct {
	Src     int32
	Handler int32
	Attr    uint32
}

func (h header) MarshalMsg(b []byte) []byte {
	b = msgp.AppendInt32(b, h.Src)
	b = msgp.AppendInt32(b, h.Handler)
	b = msgp.AppendUint32(b, h.Attr)
	return b
}

func (h *header) UnmarshalMsg(b []byte) ([]byte, error) {
	var err error
	h.Src, b, err = msgp.ReadInt32Bytes(b)
	if err != nil {
		return b, err
	}
	h.Handler, b, err = msgp.ReadInt32Bytes(b)
	if err != nil {
		return b, err
	}
	h.Attr, b, err = msgp.ReadUint32Bytes(b)
	return b, err
}

func (h header) seq() uint16    { return uint16(h.Attr >> 16) }
func (h header) ordered() bool  { return h.Attr&attrOrderedFlag != 0 }
func (h header) userAttr() uint32 { return h.Attr & 0x7fff }

func withSeq(attr uint32, seq uint16) uint32 {
	return (attr & 0x7fff) | attrOrderedFlag | (uint32(seq) << 16)
}
