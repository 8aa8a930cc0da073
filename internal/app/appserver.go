package app

import (
	"fmt"
	"net"
	"sync"

	"socketdrop/internal/core/gateway"
	"socketdrop/internal/core/store"
	"socketdrop/internal/service/web"
	"socketdrop/internal/shared/logger"
	"socketdrop/internal/shared/types"
)

// AppServer is the application's main struct.
type AppServer struct {
	cfg *types.Config

	store   *store.FileStore
	gateway *gateway.Gateway
	hub     *web.Hub

	webListener net.Listener

	waitGroup sync.WaitGroup
	stopOnce  sync.Once
}

// New 根据配置创建 AppServer，输出目录作为注入的配置值传入 FileStore。
func New(cfg *types.Config) (*AppServer, error) {
	s := &AppServer{
		cfg:   cfg,
		store: store.NewFileStore(cfg.StorageConf.Dir),
	}
	if cfg.WebConf.Port > 0 {
		s.hub = web.NewHub()
	}

	gw, err := gateway.New(cfg, s.store, s.hub)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	s.gateway = gw
	return s, nil
}

// Start prepares the output directory, binds the upload port and starts serving
// in the background. It returns the bound port.
func (s *AppServer) Start() (int, error) {
	created, err := s.store.EnsureDir()
	switch {
	case err != nil:
		// Later saves fail per request; startup continues.
		logger.Error().Err(err).Str("dir", s.store.Dir()).Msg("Failed to create output directory")
	case created:
		logger.Info().Str("dir", s.store.Dir()).Msg("Output directory created")
	}

	port, err := s.gateway.InitializeListener()
	if err != nil {
		return 0, err
	}

	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		s.gateway.Serve()
	}()

	if s.hub != nil {
		go s.hub.Run()
		l, err := web.StartServer(&s.waitGroup, s.cfg.WebConf, s.gateway, s.hub)
		if err != nil {
			logger.Warn().Err(err).Msg("Monitor failed to start, continuing without it")
		}
		s.webListener = l
	}
	return port, nil
}

// Run is the server's entry point. It blocks until Stop is called.
func (s *AppServer) Run() {
	logger.Info().Msg("Starting socketdrop receiver...")
	if _, err := s.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Gateway failed to initialize listener")
	}
	s.Wait()
}

// Stop gracefully shuts down the server.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		if s.gateway != nil {
			s.gateway.Close()
		}
		if s.webListener != nil {
			s.webListener.Close()
		}
		if s.hub != nil {
			s.hub.Stop()
		}
	})
}

func (s *AppServer) Wait() {
	s.waitGroup.Wait()
}

// Stats returns the gateway counters.
func (s *AppServer) Stats() types.StatsSnapshot {
	return s.gateway.Stats()
}
