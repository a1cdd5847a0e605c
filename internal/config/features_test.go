package config

import (
	"strings"
	"testing"
)

func TestProbeFeaturesMentionsISA(t *testing.T) {
	got := ProbeFeatures()
	if !strings.HasPrefix(got, "riscv64:") {
		t.Fatalf("ProbeFeatures() = %q, want a riscv64-prefixed banner", got)
	}
}
