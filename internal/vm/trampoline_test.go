package vm

import (
	"testing"

	"rv39kernel/internal/mem"
)

func TestSetAndGetTrampolineFrame(t *testing.T) {
	SetTrampolineFrame(mem.PPN(42))
	if got := TrampolineFrame(); got != 42 {
		t.Fatalf("TrampolineFrame() = %d, want 42", got)
	}
}
