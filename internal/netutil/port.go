package netutil

import (
	"fmt"
	"net"
)

// FreePort asks the kernel for a free TCP port on 127.0.0.1 and returns it.
//
// The listener used to obtain the port is closed before returning, so a
// small window exists in which another process could claim the port. The
// controller narrows that window by holding a cross-process spawn lock while
// the port is allocated and the emulator binds it.
func FreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("resolve tcp address: %w", err)
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listen on tcp address: %w", err)
	}
	defer func() { _ = l.Close() }()

	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected address type: %T", l.Addr())
	}
	return tcpAddr.Port, nil
}
