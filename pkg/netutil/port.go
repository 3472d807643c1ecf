package netutil

import (
	"net"

	"github.com/pkg/errors"
)

// GetAvailablePortForAddress asks the kernel for a free TCP port on host. The
// port is released before returning, so it's only suitable for tests.
func GetAvailablePortForAddress(host string) (int32, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, errors.Wrapf(err, "error listening on %s", host)
	}
	defer listener.Close()

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, errors.Errorf("unexpected listener address %v", listener.Addr())
	}
	return int32(addr.Port), nil
}
