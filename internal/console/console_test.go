package console

import "testing"

type fakeSink struct {
	written []byte
	toRead  []byte
}

func (f *fakeSink) WriteByte(b byte) { f.written = append(f.written, b) }

func (f *fakeSink) ReadByte() (byte, bool) {
	if len(f.toRead) == 0 {
		return 0, false
	}
	b := f.toRead[0]
	f.toRead = f.toRead[1:]
	return b, true
}

func TestWrite(t *testing.T) {
	fs := &fakeSink{}
	SetSink(fs)
	defer SetSink(noopSink{})

	Write([]byte("hi"))
	if string(fs.written) != "hi" {
		t.Fatalf("written = %q", fs.written)
	}
}

func TestPollRXAndReadAvailable(t *testing.T) {
	fs := &fakeSink{toRead: []byte("abc")}
	SetSink(fs)
	defer SetSink(noopSink{})
	rxBuf = newRing(8)

	PollRX()
	got := ReadAvailable(2)
	if string(got) != "ab" {
		t.Fatalf("ReadAvailable(2) = %q", got)
	}
	got = ReadAvailable(5)
	if string(got) != "c" {
		t.Fatalf("ReadAvailable(5) after partial drain = %q", got)
	}
	got = ReadAvailable(1)
	if len(got) != 0 {
		t.Fatalf("ReadAvailable on empty ring = %q, want empty", got)
	}
}

func TestRingFullDropsOverflow(t *testing.T) {
	r := newRing(2)
	if !r.push('a') || !r.push('b') {
		t.Fatal("expected first two pushes to succeed")
	}
	if r.push('c') {
		t.Fatal("push into a full ring should fail")
	}
	b, ok := r.pop()
	if !ok || b != 'a' {
		t.Fatalf("pop = %q, %v, want 'a', true", b, ok)
	}
}
