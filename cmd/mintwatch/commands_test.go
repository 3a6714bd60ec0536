package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"mintwatch/internal/ipc"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/testsupport"
)

func TestStatusReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "[OK] Running")
	requireContains(t, out, "[OK] Active")
	requireContains(t, out, env.cfg.Paths.InboxDir)
	requireContains(t, out, "No folders in progress")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var resp ipc.StatusResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !resp.Running || !resp.WatcherActive {
		t.Fatalf("expected running daemon with active watcher, got %+v", resp.Status)
	}
	if resp.PID == 0 {
		t.Fatal("expected pid in status")
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"status"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("status without daemon should not fail: %v", err)
	}
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "mintwatch daemon")
}

func TestMintedListsRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.AppendMint(t, env.store, "sunset", "MintSunset")
	testsupport.AppendMint(t, env.store, "harbor", "MintHarbor")

	out, _, err := runCLI(t, []string{"minted"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("minted: %v", err)
	}
	requireContains(t, out, "MintSunset")
	requireContains(t, out, "MintHarbor")
	requireContains(t, out, "Showing 2 of 2 minted")
	if strings.Index(out, "sunset") > strings.Index(out, "harbor") {
		t.Fatalf("expected completion order, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"minted", "--limit", "1", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("minted --json: %v", err)
	}
	var resp ipc.MintedResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode minted: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].Folder != "harbor" || resp.Total != 2 {
		t.Fatalf("unexpected minted response: %+v", resp)
	}
}

func TestMintedEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"minted"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("minted: %v", err)
	}
	requireContains(t, out, "Nothing minted yet")
}

func TestFailuresListsJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.store.RecordFailure(context.Background(), mintlog.Failure{
		Folder:  "broken",
		State:   "validating",
		Kind:    "invalid_metadata",
		Message: "name must be a non-empty string",
	}); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	out, _, err := runCLI(t, []string{"failures"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	requireContains(t, out, "broken")
	requireContains(t, out, "invalid_metadata")
}

func TestWatcherStopAndStart(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"watcher", "stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watcher stop: %v", err)
	}
	requireContains(t, out, "Watcher stopped")
	if env.daemon.WatcherActive() {
		t.Fatal("expected watcher to be inactive")
	}

	out, _, err = runCLI(t, []string{"watcher", "stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second watcher stop: %v", err)
	}
	requireContains(t, out, "not running")

	if _, _, err := runCLI(t, []string{"watcher", "start"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("watcher start: %v", err)
	}
	if !env.daemon.WatcherActive() {
		t.Fatal("expected watcher to be active again")
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestClientCommandsRequireDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"minted"}, cfg.SocketPath(), configPath)
	if err == nil {
		t.Fatal("expected error without a daemon")
	}
	requireContains(t, err.Error(), "not found")
}
