package syscall

import (
	"testing"
	"time"

	"rv39kernel/internal/config"
	"rv39kernel/internal/trap"
)

func TestDispatchUnknownSyscallReturnsError(t *testing.T) {
	ctx := &trap.Context{}
	got := Dispatch(ctx, 0xffff, 0, 0, 0)
	if int64(got) != -1 {
		t.Fatalf("Dispatch(unknown) = %d, want -1", int64(got))
	}
}

func TestDispatchGetTimeTracksBootTime(t *testing.T) {
	SetBootTime(time.Now().Add(-250 * time.Millisecond))
	got := Dispatch(&trap.Context{}, config.SysGetTime, 0, 0, 0)
	if int64(got) < 200 {
		t.Fatalf("GetTime = %dms, want at least ~250ms since boot", int64(got))
	}
}

func TestSetAppLookupWiresLookupFunc(t *testing.T) {
	defer SetAppLookup(func(string) ([]byte, bool) { return nil, false })

	want := []byte{1, 2, 3}
	SetAppLookup(func(name string) ([]byte, bool) {
		if name == "hello" {
			return want, true
		}
		return nil, false
	})

	data, ok := appByName("hello")
	if !ok || string(data) != string(want) {
		t.Fatalf("appByName(hello) = %v, %v, want %v, true", data, ok, want)
	}
	if _, ok := appByName("missing"); ok {
		t.Fatal("appByName(missing) reported ok")
	}
}

func TestSetShutdownWiresHook(t *testing.T) {
	defer SetShutdown(func(bool) {})

	var gotGraceful bool
	called := false
	SetShutdown(func(graceful bool) {
		called = true
		gotGraceful = graceful
	})

	shutdown(true)
	if !called || !gotGraceful {
		t.Fatalf("called=%v gotGraceful=%v, want true/true", called, gotGraceful)
	}
}
