package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mintwatch/internal/config"
	"mintwatch/internal/daemon"
	"mintwatch/internal/ipc"
	"mintwatch/internal/logging"
	"mintwatch/internal/mint"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/pipeline"
	"mintwatch/internal/testsupport"
	"mintwatch/internal/upload"
)

type stubUploader struct {
	mu sync.Mutex
	n  int
}

func (s *stubUploader) Upload(context.Context, []byte, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("ipfs://cid%d", s.n), nil
}

func (s *stubUploader) Fetch(context.Context, string) (*upload.FetchResult, error) {
	return &upload.FetchResult{Status: http.StatusNotFound, Header: http.Header{}}, nil
}

type stubMinter struct{}

func (stubMinter) CreateAsset(context.Context, mint.Request) (mint.Receipt, error) {
	return mint.Receipt{Signature: "sig", MintAddress: "mint"}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *mintlog.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	ctrl := pipeline.New(cfg, pipeline.Dependencies{Uploader: &stubUploader{}, Minter: stubMinter{}, Store: store}, logger)
	d, err := daemon.New(cfg, store, logger, ctrl, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon Start: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
