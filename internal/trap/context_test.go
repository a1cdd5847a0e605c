package trap

import "testing"

func TestNewContext(t *testing.T) {
	c := NewContext(0x1000, 0x2000, 0x3000, 0x4000, 0x5000, 0x20)
	if c.X[2] != 0x2000 {
		t.Fatalf("sp = %#x, want user stack top", c.X[2])
	}
	if c.Sepc != 0x1000 || c.KernelSatp != 0x3000 || c.KernelSP != 0x4000 || c.TrapHandlerAddr != 0x5000 {
		t.Fatalf("context fields mismatch: %+v", c)
	}
	if c.Sstatus != 0x20 {
		t.Fatalf("Sstatus = %#x", c.Sstatus)
	}
}

func TestGotoRestore(t *testing.T) {
	tc := GotoRestore(0xabc0, 0xdef0)
	if tc.RA != 0xdef0 || tc.SP != 0xabc0 {
		t.Fatalf("GotoRestore = %+v", tc)
	}
	for i, s := range tc.S {
		if s != 0 {
			t.Fatalf("S[%d] = %#x, want zero for a fresh task context", i, s)
		}
	}
}
