package types

import "sync/atomic"

// ListenerInfo holds the runtime listening info of the gateway.
type ListenerInfo struct {
	Address string
	Port    int
}

// Kind 表示一次请求被归入的处理路径
type Kind string

const (
	KindMultipart Kind = "MULTIPART"
	KindGeneric   Kind = "GENERIC"
	KindEmpty     Kind = "EMPTY"
)

// Stats holds the counters shared by all connection handlers.
type Stats struct {
	ActiveConnections atomic.Int64
	Accepted          atomic.Uint64
	Succeeded         atomic.Uint64
	Failed            atomic.Uint64
	FilesWritten      atomic.Uint64
	BytesReceived     atomic.Uint64
	BytesSent         atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats, safe to marshal.
type StatsSnapshot struct {
	ActiveConnections int64  `json:"active_connections"`
	Accepted          uint64 `json:"accepted"`
	Succeeded         uint64 `json:"succeeded"`
	Failed            uint64 `json:"failed"`
	FilesWritten      uint64 `json:"files_written"`
	BytesReceived     uint64 `json:"bytes_received"`
	BytesSent         uint64 `json:"bytes_sent"`
}

// Snapshot 返回当前计数器的一份拷贝
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ActiveConnections: s.ActiveConnections.Load(),
		Accepted:          s.Accepted.Load(),
		Succeeded:         s.Succeeded.Load(),
		Failed:            s.Failed.Load(),
		FilesWritten:      s.FilesWritten.Load(),
		BytesReceived:     s.BytesReceived.Load(),
		BytesSent:         s.BytesSent.Load(),
	}
}

// StatsProvider is implemented by anything that can report live receiver stats.
type StatsProvider interface {
	Stats() StatsSnapshot
}
