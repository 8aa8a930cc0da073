package gateway

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"socketdrop/internal/core/framing"
	"socketdrop/internal/core/intake"
	"socketdrop/internal/service/web"
	"socketdrop/internal/shared"
	"socketdrop/internal/shared/logger"
	"socketdrop/internal/shared/types"
	"socketdrop/internal/sys/sockopt"
)

// Response is written verbatim to every successfully handled, non-empty request.
const Response = "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nData received successfully."

// Store persists one payload and returns where it went.
type Store interface {
	Save(ext string, data []byte) (string, error)
}

type Gateway struct {
	listener     net.Listener
	listenerInfo *types.ListenerInfo
	cfg          *types.Config
	framer       *framing.Framer
	store        Store
	hub          *web.Hub
	stats        types.Stats
	closeOnce    sync.Once
	waitGroup    sync.WaitGroup
}

// New 创建网关。framing 模式无法识别时返回错误。
func New(cfg *types.Config, store Store, hub *web.Hub) (*Gateway, error) {
	mode, err := framing.ParseMode(cfg.ListenerConf.Framing)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		cfg:    cfg,
		framer: framing.New(cfg.CommonConf.BufferSize, mode),
		store:  store,
		hub:    hub,
	}, nil
}

// InitializeListener 负责监听端口并准备服务，但不阻塞。
// 它返回实际监听的端口号。
func (g *Gateway) InitializeListener() (int, error) {
	listenAddr := net.JoinHostPort(g.cfg.ListenerConf.Host, fmt.Sprintf("%d", g.cfg.ListenerConf.Port))
	listener, err := sockopt.Listen(listenAddr, g.cfg.ListenerConf.Backlog)
	if err != nil {
		return 0, fmt.Errorf("gateway failed to listen on %s: %w", listenAddr, err)
	}
	if limit := g.cfg.CommonConf.MaxConnections; limit > 0 {
		listener = netutil.LimitListener(listener, limit)
	}
	g.listener = listener

	tcpAddr := listener.Addr().(*net.TCPAddr)
	g.listenerInfo = &types.ListenerInfo{
		Address: tcpAddr.IP.String(),
		Port:    tcpAddr.Port,
	}
	logger.Info().Str("listen_addr", listener.Addr().String()).Msg(">>> Server started, waiting for uploads.")

	return g.listenerInfo.Port, nil
}

// Serve 启动阻塞的 accept 循环。必须在 InitializeListener 之后调用。
func (g *Gateway) Serve() {
	if g.listener == nil {
		logger.Error().Msg("Gateway.Serve() called before InitializeListener()")
		return
	}
	g.waitGroup.Add(1)
	g.acceptLoop()
}

// GetListenerInfo 返回网关的监听信息。
func (g *Gateway) GetListenerInfo() *types.ListenerInfo {
	return g.listenerInfo
}

// Start initializes the listener and blocks in the accept loop.
func (g *Gateway) Start() error {
	if _, err := g.InitializeListener(); err != nil {
		return err
	}
	g.Serve()
	return nil
}

// Stats implements types.StatsProvider.
func (g *Gateway) Stats() types.StatsSnapshot {
	return g.stats.Snapshot()
}

func (g *Gateway) acceptLoop() {
	defer g.waitGroup.Done()
	for {
		logger.Debug().Msg("Waiting for client connection...")
		conn, err := g.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Info().Msg("Gateway listener is closing.")
				return
			}
			logger.Warn().Err(err).Msg("Gateway failed to accept connection")
			continue
		}
		g.stats.Accepted.Add(1)
		g.waitGroup.Add(1)
		go g.handleConnection(conn)
	}
}

// handleConnection runs one connection through
// Accepted → Reading → Classifying → Persisting → Responding → Closed.
// Any failure goes straight to Closed without a response.
func (g *Gateway) handleConnection(rawConn net.Conn) {
	defer g.waitGroup.Done()
	g.stats.ActiveConnections.Add(1)
	defer g.stats.ActiveConnections.Add(-1)

	conn := shared.NewCountedConn(rawConn, &g.stats.BytesReceived, &g.stats.BytesSent)
	defer conn.Close()

	traceID := uuid.NewString()
	clientIP := rawConn.RemoteAddr().String()
	l := log.With().Str("trace_id", traceID).Str("client_ip", clientIP).Logger()
	l.Info().Msg("Connection accepted")

	entry := &web.UploadLogEntry{
		Timestamp: time.Now(),
		TraceID:   traceID,
		ClientIP:  clientIP,
	}
	defer func() {
		l.Debug().Str("outcome", entry.Outcome).Msg("Connection closed")
		g.hub.BroadcastUploadLog(entry)
	}()

	// Reading
	if timeout := g.cfg.ListenerConf.ReadTimeout; timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(time.Duration(timeout) * time.Second))
	}
	raw, err := g.framer.ReadRequest(conn)
	if err != nil {
		g.fail(l, entry, "read_error", err, "Failed to read request")
		return
	}
	entry.Bytes = len(raw)
	if len(raw) == 0 {
		entry.Kind = string(types.KindEmpty)
		entry.Outcome = "empty"
		l.Info().Msg("Received empty request, closing without response")
		return
	}
	l.Info().Int("bytes", len(raw)).Msg("Request received, processing")

	// Classifying
	req, err := intake.Extract(raw)
	if err != nil {
		entry.Kind = string(types.KindMultipart)
		g.fail(l, entry, "malformed", err, "Rejected request")
		return
	}
	entry.Kind = string(req.Kind)
	g.logClassified(l, req)

	// Persisting
	for _, p := range req.Payloads {
		path, err := g.store.Save(p.Ext, p.Data)
		if err != nil {
			g.fail(l, entry, "persist_error", err, "Failed to persist payload")
			return
		}
		g.stats.FilesWritten.Add(1)
		entry.Files = append(entry.Files, path)
		l.Info().Str("path", path).Int("size", len(p.Data)).Msg("Payload saved")
	}

	// Responding
	if _, err := conn.Write([]byte(Response)); err != nil {
		g.fail(l, entry, "write_error", err, "Failed to write response")
		return
	}
	g.stats.Succeeded.Add(1)
	entry.Outcome = "ok"
}

func (g *Gateway) logClassified(l zerolog.Logger, req *intake.Request) {
	switch req.Kind {
	case types.KindMultipart:
		ev := l.Info().Str("boundary", req.Boundary).Int("parts", req.Parts).Int("images", len(req.Payloads))
		if len(req.Payloads) == 0 {
			ev.Msg("Multipart request carries no image part, nothing to save")
			return
		}
		ev.Msg("Multipart upload detected")
	default:
		if req.IsText {
			l.Info().Str("data", req.Text).Msg("Received text data")
		} else {
			l.Info().Msg("Received data is not valid UTF-8 text, skipping text log")
		}
	}
}

func (g *Gateway) fail(l zerolog.Logger, entry *web.UploadLogEntry, outcome string, err error, msg string) {
	g.stats.Failed.Add(1)
	entry.Outcome = outcome
	entry.Error = err.Error()
	l.Warn().Err(err).Str("outcome", outcome).Msg(msg)
}

// Close 停止接收新连接，并等待正在处理的连接结束。
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		if g.listener != nil {
			g.listener.Close()
		}
		g.waitGroup.Wait()
		log.Info().Msg("Gateway has been shut down")
	})
}
