package workload

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdPrompterRoundTrip(t *testing.T) {
	var out bytes.Buffer
	p := NewStdPrompter(&out, strings.NewReader("1\n"))
	if ack := p.Prompt(OpKill, 9); ack != 1 {
		t.Fatalf("ack = %d, want 1", ack)
	}
	if !strings.Contains(out.String(), "CMD: kill 9") {
		t.Fatalf("unexpected prompt text: %q", out.String())
	}
}

func TestStdPrompterMalformedAckIsZero(t *testing.T) {
	p := NewStdPrompter(&bytes.Buffer{}, strings.NewReader("not-a-number"))
	if ack := p.Prompt(OpPause, 1); ack != 0 {
		t.Fatalf("ack = %d, want 0 on malformed input", ack)
	}
}
