package web

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"socketdrop/internal/shared/logger"
	"socketdrop/internal/shared/types"
)

// loggingListener logs accepted monitor connections at debug level.
type loggingListener struct {
	net.Listener
}

func (l loggingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		logger.Debug().Msgf("[WebServer] Connection accepted from: %s", conn.RemoteAddr())
	}
	return conn, err
}

// basicAuthMiddleware 检查 user 和 pass 是否已配置。
// 如果配置了，它将强制执行 HTTP Basic Authentication。
func basicAuthMiddleware(next http.Handler, user, pass string) http.Handler {
	if user == "" || pass == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux builds the monitor routes.
func NewMux(cfg types.WebConf, stats types.StatsProvider, hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	status := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats.Stats())
	})
	mux.Handle("/api/status", basicAuthMiddleware(status, cfg.User, cfg.Password))

	mux.Handle("/ws", basicAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}), cfg.User, cfg.Password))

	return mux
}

// StartServer 启动监控服务，web port 为 0 时直接返回 nil。
// 返回的 listener 由调用方关闭。
func StartServer(wg *sync.WaitGroup, cfg types.WebConf, stats types.StatsProvider, hub *Hub) (net.Listener, error) {
	if cfg.Port <= 0 {
		logger.Info().Msg("[WebServer] Monitor is disabled (web port is 0 or not set).")
		return nil, nil
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start monitor on %s: %w", addr, err)
	}
	logger.Info().Msgf("Monitor is listening on http://%s", addr)

	mux := NewMux(cfg, stats, hub)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := http.Serve(loggingListener{Listener: listener}, mux); err != nil && err != http.ErrServerClosed {
			logger.Debug().Err(err).Msg("Monitor server stopped.")
		}
	}()
	return listener, nil
}
