package main

import (
	"bufio"
	"os"
)

// hostUART stands in for the memory-mapped UART the spec treats as an
// out-of-scope external collaborator: this kernel runs as a hosted Go
// program rather than on bare Sv39 silicon, so its console boundary is
// the host process's own stdio instead of a real register pair.
// WriteByte is synchronous; ReadByte is backed by a background reader
// goroutine so it can report "nothing waiting" instead of blocking,
// matching console.Sink's contract.
type hostUART struct {
	out *bufio.Writer
	rx  chan byte
}

func newHostUART() *hostUART {
	u := &hostUART{out: bufio.NewWriter(os.Stdout), rx: make(chan byte, 256)}
	go u.pump()
	return u
}

func (u *hostUART) pump() {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		u.rx <- b
	}
}

func (u *hostUART) WriteByte(b byte) {
	u.out.WriteByte(b)
	if b == '\n' {
		u.out.Flush()
	}
}

func (u *hostUART) ReadByte() (byte, bool) {
	select {
	case b := <-u.rx:
		return b, true
	default:
		return 0, false
	}
}
