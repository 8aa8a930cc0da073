package shared

import (
	"net"
	"sync/atomic"
)

// CountedConn 是一个 net.Conn 的包装器，用于原子地统计接收和发送的字节数。
type CountedConn struct {
	net.Conn
	received *atomic.Uint64
	sent     *atomic.Uint64
}

// NewCountedConn 创建一个新的 CountedConn 实例。
func NewCountedConn(conn net.Conn, received, sent *atomic.Uint64) *CountedConn {
	return &CountedConn{
		Conn:     conn,
		received: received,
		sent:     sent,
	}
}

// Read 从底层连接读取数据，并增加接收计数。
func (c *CountedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.received.Add(uint64(n))
	}
	return n, err
}

// Write 将数据写入底层连接，并增加发送计数。
func (c *CountedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.sent.Add(uint64(n))
	}
	return n, err
}
