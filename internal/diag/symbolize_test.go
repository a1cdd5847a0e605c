package diag

import "testing"

func TestSymbolicNamePassesThroughUnmangled(t *testing.T) {
	if got := SymbolicName("main"); got != "main" {
		t.Fatalf("SymbolicName(main) = %q, want unchanged", got)
	}
}

func TestSymbolicNameDemanglesCxx(t *testing.T) {
	got := SymbolicName("_Znwm")
	if got == "_Znwm" {
		t.Fatal("expected a mangled C++ symbol to be demangled")
	}
}
