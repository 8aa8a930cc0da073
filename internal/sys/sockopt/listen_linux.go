//go:build linux

package sockopt

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen 创建一个设置了 SO_REUSEADDR 并使用指定 backlog 的 TCP 监听器。
func Listen(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}

	family := unix.AF_INET
	var sockaddr unix.Sockaddr
	switch {
	case tcpAddr.IP == nil || tcpAddr.IP.To4() != nil:
		a4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		if tcpAddr.IP != nil {
			copy(a4.Addr[:], tcpAddr.IP.To4())
		}
		sockaddr = a4
	default:
		family = unix.AF_INET6
		a6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(a6.Addr[:], tcpAddr.IP.To16())
		sockaddr = a6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sockaddr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	// net.FileListener dups the descriptor, the file is closed either way.
	f := os.NewFile(uintptr(fd), "tcp:"+addr)
	defer f.Close()
	return net.FileListener(f)
}
