package workload

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DAG trace binary layout. Everything is fixed-width big-endian, matching
// internal/wire's length-prefixed framing conventions:
//
//	Test  := txn_count:u32 Txn*
//	Txn   := txn_id:u64 is_txn:u8 depends_count:u32 depends_on:u64*
//	         cmd_count:u32 Cmd*
//	Cmd   := op:u8 key:u32 value_len:u32 value:byte*
//
// op is the Cmd.Op byte value, in the same order as the OpType constants.
// There is no magic number or version byte; a DAG trace file is exactly one
// Test and nothing else.

// EncodeDAGTrace serializes inputs into the binary DAG trace format.
func EncodeDAGTrace(inputs []NodeInput) []byte {
	buf := make([]byte, 0, 64*len(inputs))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(inputs)))
	for _, n := range inputs {
		buf = binary.BigEndian.AppendUint64(buf, n.ID)
		if n.IsTxn {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(n.DependsOn)))
		for _, dep := range n.DependsOn {
			buf = binary.BigEndian.AppendUint64(buf, dep)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(n.Cmds)))
		for _, c := range n.Cmds {
			buf = append(buf, byte(c.Op))
			buf = binary.BigEndian.AppendUint32(buf, c.Key)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Value)))
			buf = append(buf, c.Value...)
		}
	}
	return buf
}

// ParseDAGTrace decodes a binary DAG trace ("Test" of "Txn" of "Cmd") into
// the NodeInput shape NewGraph consumes — the same shape ParseYAMLTrace
// produces for hand-authored fixtures.
func ParseDAGTrace(r io.Reader) ([]NodeInput, error) {
	br := newByteReader(r)

	txnCount, err := br.u32()
	if err != nil {
		return nil, fmt.Errorf("workload: dag trace: read txn count: %w", err)
	}

	inputs := make([]NodeInput, txnCount)
	for i := range inputs {
		id, err := br.u64()
		if err != nil {
			return nil, fmt.Errorf("workload: dag trace: txn %d: read id: %w", i, err)
		}
		isTxnByte, err := br.u8()
		if err != nil {
			return nil, fmt.Errorf("workload: dag trace: txn %d: read is_txn: %w", i, err)
		}

		depCount, err := br.u32()
		if err != nil {
			return nil, fmt.Errorf("workload: dag trace: txn %d: read depends_on count: %w", i, err)
		}
		deps := make([]uint64, depCount)
		for d := range deps {
			dep, err := br.u64()
			if err != nil {
				return nil, fmt.Errorf("workload: dag trace: txn %d: read dependency %d: %w", i, d, err)
			}
			deps[d] = dep
		}

		cmdCount, err := br.u32()
		if err != nil {
			return nil, fmt.Errorf("workload: dag trace: txn %d: read cmd count: %w", i, err)
		}
		cmds := make([]Cmd, cmdCount)
		for c := range cmds {
			opByte, err := br.u8()
			if err != nil {
				return nil, fmt.Errorf("workload: dag trace: txn %d: cmd %d: read op: %w", i, c, err)
			}
			key, err := br.u32()
			if err != nil {
				return nil, fmt.Errorf("workload: dag trace: txn %d: cmd %d: read key: %w", i, c, err)
			}
			value, err := br.bytes()
			if err != nil {
				return nil, fmt.Errorf("workload: dag trace: txn %d: cmd %d: read value: %w", i, c, err)
			}
			cmds[c] = Cmd{Op: OpType(opByte), Key: key, Value: value}
		}

		inputs[i] = NodeInput{ID: id, IsTxn: isTxnByte != 0, DependsOn: deps, Cmds: cmds}
	}
	return inputs, nil
}

// byteReader is a minimal big-endian field reader shared by the decode steps
// above; it exists so each field read reports which one failed and why,
// rather than bottoming out in a single opaque io.ReadFull error.
type byteReader struct {
	r io.Reader
}

func newByteReader(r io.Reader) *byteReader { return &byteReader{r: r} }

func (b *byteReader) u8() (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) u32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (b *byteReader) u64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func (b *byteReader) bytes() ([]byte, error) {
	n, err := b.u32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
