package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrParse is returned when a frame's payload does not decode into a valid
// ClientRequest or ServerReply.
var ErrParse = errors.New("wire: malformed payload")

// NotFound is the sentinel value returned on the wire for a missing key.
// internal/kv reports a miss as (nil, false); internal/shard puts this string
// into the GET reply's Value, and ServerReply's encode/decode carry it like
// any other value.
const NotFound = "NOT-FOUND"

// OpType enumerates the operation kinds carried by an Op.
type OpType uint8

const (
	OpInit OpType = iota + 1
	OpGet
	OpPut
	OpTxnStart
	OpTxnPut
	OpTxnGet
	OpTxnGetAndExecute
	OpTxnCommit
	OpTxnAbort
)

func (t OpType) String() string {
	switch t {
	case OpInit:
		return "INIT"
	case OpGet:
		return "GET"
	case OpPut:
		return "PUT"
	case OpTxnStart:
		return "TXN_START"
	case OpTxnPut:
		return "TXN_PUT"
	case OpTxnGet:
		return "TXN_GET"
	case OpTxnGetAndExecute:
		return "TXN_GET_AND_EXECUTE"
	case OpTxnCommit:
		return "TXN_COMMIT"
	case OpTxnAbort:
		return "TXN_ABORT"
	default:
		return fmt.Sprintf("OpType(%d)", uint8(t))
	}
}

// presence bits for Op's optional fields.
const (
	hasValue uint8 = 1 << iota
	hasClientID
	hasTxnID
	hasOpID
	hasPort
)

// Op is a single operation within a ClientRequest. Key is always present;
// the remaining fields are optional and only populated according to the
// operation's Type.
type Op struct {
	Type     OpType
	Key      uint32
	Value    []byte
	ClientID int32
	TxnID    int32
	OpID     uint32
	Port     int32

	hasValue    bool
	hasClientID bool
	hasTxnID    bool
	hasOpID     bool
	hasPort     bool
}

// WithValue returns a copy of op with Value set and marked present.
func (op Op) WithValue(v []byte) Op {
	op.Value, op.hasValue = v, true
	return op
}

// WithClientID returns a copy of op with ClientID set and marked present.
func (op Op) WithClientID(id int32) Op {
	op.ClientID, op.hasClientID = id, true
	return op
}

// WithTxnID returns a copy of op with TxnID set and marked present.
func (op Op) WithTxnID(id int32) Op {
	op.TxnID, op.hasTxnID = id, true
	return op
}

// WithOpID returns a copy of op with OpID set and marked present.
func (op Op) WithOpID(id uint32) Op {
	op.OpID, op.hasOpID = id, true
	return op
}

// WithPort returns a copy of op with Port set and marked present.
func (op Op) WithPort(port int32) Op {
	op.Port, op.hasPort = port, true
	return op
}

func (op Op) presence() uint8 {
	var p uint8
	if op.hasValue {
		p |= hasValue
	}
	if op.hasClientID {
		p |= hasClientID
	}
	if op.hasTxnID {
		p |= hasTxnID
	}
	if op.hasOpID {
		p |= hasOpID
	}
	if op.hasPort {
		p |= hasPort
	}
	return p
}

func (op Op) encodedLen() int {
	n := 1 /*presence*/ + 1 /*type*/ + 4 /*key*/
	if op.hasValue {
		n += 4 + len(op.Value)
	}
	if op.hasClientID {
		n += 4
	}
	if op.hasTxnID {
		n += 4
	}
	if op.hasOpID {
		n += 4
	}
	if op.hasPort {
		n += 4
	}
	return n
}

func (op Op) appendTo(buf []byte) []byte {
	buf = append(buf, op.presence(), uint8(op.Type))
	buf = binary.BigEndian.AppendUint32(buf, op.Key)
	if op.hasValue {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(op.Value)))
		buf = append(buf, op.Value...)
	}
	if op.hasClientID {
		buf = binary.BigEndian.AppendUint32(buf, uint32(op.ClientID))
	}
	if op.hasTxnID {
		buf = binary.BigEndian.AppendUint32(buf, uint32(op.TxnID))
	}
	if op.hasOpID {
		buf = binary.BigEndian.AppendUint32(buf, op.OpID)
	}
	if op.hasPort {
		buf = binary.BigEndian.AppendUint32(buf, uint32(op.Port))
	}
	return buf
}

func decodeOp(buf []byte) (Op, []byte, error) {
	if len(buf) < 6 {
		return Op{}, nil, fmt.Errorf("%w: op header truncated", ErrParse)
	}
	presence := buf[0]
	var op Op
	op.Type = OpType(buf[1])
	op.Key = binary.BigEndian.Uint32(buf[2:6])
	buf = buf[6:]

	if presence&hasValue != 0 {
		if len(buf) < 4 {
			return Op{}, nil, fmt.Errorf("%w: value length truncated", ErrParse)
		}
		n := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < n {
			return Op{}, nil, fmt.Errorf("%w: value truncated", ErrParse)
		}
		op.Value = append([]byte(nil), buf[:n]...)
		op.hasValue = true
		buf = buf[n:]
	}
	if presence&hasClientID != 0 {
		if len(buf) < 4 {
			return Op{}, nil, fmt.Errorf("%w: client_id truncated", ErrParse)
		}
		op.ClientID = int32(binary.BigEndian.Uint32(buf[:4]))
		op.hasClientID = true
		buf = buf[4:]
	}
	if presence&hasTxnID != 0 {
		if len(buf) < 4 {
			return Op{}, nil, fmt.Errorf("%w: txn_id truncated", ErrParse)
		}
		op.TxnID = int32(binary.BigEndian.Uint32(buf[:4]))
		op.hasTxnID = true
		buf = buf[4:]
	}
	if presence&hasOpID != 0 {
		if len(buf) < 4 {
			return Op{}, nil, fmt.Errorf("%w: op_id truncated", ErrParse)
		}
		op.OpID = binary.BigEndian.Uint32(buf[:4])
		op.hasOpID = true
		buf = buf[4:]
	}
	if presence&hasPort != 0 {
		if len(buf) < 4 {
			return Op{}, nil, fmt.Errorf("%w: port truncated", ErrParse)
		}
		op.Port = int32(binary.BigEndian.Uint32(buf[:4]))
		op.hasPort = true
		buf = buf[4:]
	}
	return op, buf, nil
}

// HasClientID reports whether ClientID was set on this Op.
func (op Op) HasClientID() bool { return op.hasClientID }

// HasTxnID reports whether TxnID was set on this Op.
func (op Op) HasTxnID() bool { return op.hasTxnID }

// HasOpID reports whether OpID was set on this Op.
func (op Op) HasOpID() bool { return op.hasOpID }

// HasPort reports whether Port was set on this Op.
func (op Op) HasPort() bool { return op.hasPort }

// HasValue reports whether Value was set on this Op.
func (op Op) HasValue() bool { return op.hasValue }

// ClientRequest is a sequence of Ops. In practice every request the shard
// server and master handle carries exactly one Op; the repeated shape is
// kept for forward compatibility with batched requests.
type ClientRequest struct {
	Ops []Op
}

// Encode serializes r into its wire payload (without the length envelope).
func (r ClientRequest) Encode() []byte {
	total := 4
	for _, op := range r.Ops {
		total += op.encodedLen()
	}
	buf := make([]byte, 0, total)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Ops)))
	for _, op := range r.Ops {
		buf = op.appendTo(buf)
	}
	return buf
}

// DecodeClientRequest parses a ClientRequest from a frame's payload.
func DecodeClientRequest(payload []byte) (ClientRequest, error) {
	if len(payload) < 4 {
		return ClientRequest{}, fmt.Errorf("%w: request header truncated", ErrParse)
	}
	count := binary.BigEndian.Uint32(payload[:4])
	buf := payload[4:]
	ops := make([]Op, 0, count)
	for i := uint32(0); i < count; i++ {
		op, rest, err := decodeOp(buf)
		if err != nil {
			return ClientRequest{}, err
		}
		ops = append(ops, op)
		buf = rest
	}
	return ClientRequest{Ops: ops}, nil
}

// ServerReply is the response a shard server sends for GET/PUT/TXN_* ops.
type ServerReply struct {
	Value   []byte
	Success bool
	OpID    uint32
}

// Encode serializes the reply into its wire payload.
func (r ServerReply) Encode() []byte {
	buf := make([]byte, 0, 4+len(r.Value)+1+4)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Value)))
	buf = append(buf, r.Value...)
	if r.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint32(buf, r.OpID)
	return buf
}

// DecodeServerReply parses a ServerReply from a frame's payload.
func DecodeServerReply(payload []byte) (ServerReply, error) {
	if len(payload) < 4 {
		return ServerReply{}, fmt.Errorf("%w: reply truncated", ErrParse)
	}
	n := binary.BigEndian.Uint32(payload[:4])
	payload = payload[4:]
	if uint32(len(payload)) < n+5 {
		return ServerReply{}, fmt.Errorf("%w: reply truncated", ErrParse)
	}
	value := append([]byte(nil), payload[:n]...)
	payload = payload[n:]
	success := payload[0] != 0
	opID := binary.BigEndian.Uint32(payload[1:5])
	return ServerReply{Value: value, Success: success, OpID: opID}, nil
}
