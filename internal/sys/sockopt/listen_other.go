//go:build !linux

package sockopt

import "net"

// Listen 在非Linux系统上退回到 net.Listen，backlog 由系统决定。
func Listen(addr string, backlog int) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
