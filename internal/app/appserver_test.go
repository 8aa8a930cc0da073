package app

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"socketdrop/internal/shared/types"
)

func TestAppServer_CreatesDirAndServes(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.ListenerConf.Port = 0
	cfg.StorageConf.Dir = filepath.Join(t.TempDir(), "request")

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	port, err := s.Start()
	if err != nil {
		t.Fatalf("Start() returned an error: %v", err)
	}
	defer s.Stop()

	if info, err := os.Stat(cfg.StorageConf.Dir); err != nil || !info.IsDir() {
		t.Fatalf("Expected output dir to exist, err=%v", err)
	}

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("ping"))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, _ := io.ReadAll(conn)
	if len(resp) == 0 {
		t.Fatal("Expected a response from the receiver")
	}

	if got := s.Stats().FilesWritten; got != 1 {
		t.Errorf("Expected 1 file written, got %d", got)
	}
}

func TestAppServer_StopUnblocksWait(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.ListenerConf.Port = 0
	cfg.StorageConf.Dir = t.TempDir()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() returned an error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return after Stop()")
	}
}

func TestAppServer_BindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	cfg := types.DefaultConfig()
	cfg.ListenerConf.Port = l.Addr().(*net.TCPAddr).Port
	cfg.StorageConf.Dir = t.TempDir()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}
	if _, err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Expected Start() to fail on an occupied port")
	}
}
