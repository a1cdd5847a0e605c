package diag

import (
	"strings"
	"testing"

	"rv39kernel/internal/console"
)

type captureSink struct {
	buf []byte
}

func (c *captureSink) WriteByte(b byte)       { c.buf = append(c.buf, b) }
func (c *captureSink) ReadByte() (byte, bool) { return 0, false }

func TestLogfWritesTaggedLine(t *testing.T) {
	cap := &captureSink{}
	console.SetSink(cap)

	Logf("booted with %d pages", 4)
	if got := string(cap.buf); !strings.HasPrefix(got, "[kernel] booted with 4 pages\n") {
		t.Fatalf("Logf output = %q", got)
	}
}

func TestWarnfWritesTaggedLine(t *testing.T) {
	cap := &captureSink{}
	console.SetSink(cap)

	Warnf("retrying %s", "frame alloc")
	if got := string(cap.buf); !strings.HasPrefix(got, "[kernel][warn] retrying frame alloc\n") {
		t.Fatalf("Warnf output = %q", got)
	}
}

func TestUsageReportFormatsSeparators(t *testing.T) {
	got := UsageReport("heap", 1234567, 1000, 900)
	if !strings.Contains(got, "heap:") || !strings.Contains(got, "1,234,567") {
		t.Fatalf("UsageReport = %q, want thousands separators", got)
	}
}

func TestOopsDumpsStackAndResets(t *testing.T) {
	cap := &captureSink{}
	console.SetSink(cap)

	var resetCode uint32
	resetCalled := false
	origReset := SystemReset
	SystemReset = func(code uint32) {
		resetCalled = true
		resetCode = code
	}
	defer func() { SystemReset = origReset }()

	Oops("boom")

	out := string(cap.buf)
	if !strings.Contains(out, "panic: boom") {
		t.Fatalf("Oops output = %q, want panic message", out)
	}
	if !strings.Contains(out, "<- ") {
		t.Fatalf("Oops output = %q, want at least one stack frame", out)
	}
	if !resetCalled {
		t.Fatal("Oops did not call SystemReset")
	}
	_ = resetCode
}
