package workload

import (
	"encoding/binary"
	"testing"
)

func keyBytes(k uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, k)
	return b
}

func TestApplyArithmetic(t *testing.T) {
	state := State{1: "10", 2: "3"}
	if !apply(state, Cmd{Op: OpAdd, Key: 1, Value: keyBytes(2)}, nil) {
		t.Fatal("add failed")
	}
	if state[1] != "13" {
		t.Fatalf("k1 = %q, want \"13\"", state[1])
	}
}

func TestApplyDivByZeroYieldsZero(t *testing.T) {
	state := State{1: "10", 2: "0"}
	apply(state, Cmd{Op: OpDiv, Key: 1, Value: keyBytes(2)}, nil)
	if state[1] != "0" {
		t.Fatalf("k1 = %q, want \"0\" (division by zero yields zero, not a crash)", state[1])
	}
}

func TestApplyBitwiseNot(t *testing.T) {
	state := State{1: "0"}
	if !apply(state, Cmd{Op: OpNot, Key: 1}, nil) {
		t.Fatal("not failed")
	}
	if state[1] != "-1" {
		t.Fatalf("^0 = %q, want \"-1\"", state[1])
	}
}

func TestApplyMissingOperandFails(t *testing.T) {
	state := State{1: "5"}
	if apply(state, Cmd{Op: OpAdd, Key: 1, Value: keyBytes(99)}, nil) {
		t.Fatal("add should fail when the second operand key is absent")
	}
}

type fixedPrompter struct{ ack int }

func (f fixedPrompter) Prompt(OpType, uint32) int { return f.ack }

func TestApplyPauseUsesPrompter(t *testing.T) {
	state := State{}
	if apply(state, Cmd{Op: OpPause, Key: 1}, fixedPrompter{ack: 0}) {
		t.Fatal("pause with ack=0 should report failure")
	}
	if !apply(state, Cmd{Op: OpPause, Key: 1}, fixedPrompter{ack: 1}) {
		t.Fatal("pause with ack=1 should report success")
	}
}

func TestApplyPutAndGet(t *testing.T) {
	state := State{}
	apply(state, Cmd{Op: OpPut, Key: 5, Value: []byte("hello")}, nil)
	if state[5] != "hello" {
		t.Fatalf("k5 = %q, want \"hello\"", state[5])
	}
	if !apply(state, Cmd{Op: OpGet, Key: 5}, nil) {
		t.Fatal("get on present key should succeed")
	}
	if apply(state, Cmd{Op: OpGet, Key: 6}, nil) {
		t.Fatal("get on absent key should fail")
	}
}
