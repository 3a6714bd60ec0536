package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"mintwatch/internal/config"
	"mintwatch/internal/daemon"
	"mintwatch/internal/ipc"
	"mintwatch/internal/pipeline"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderStatusShowsTasksAndErrors(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := &ipc.StatusResponse{
		PID: 4242,
		Status: daemon.Status{
			Running:       true,
			WatcherActive: false,
			Inbox:         "/srv/inbox",
			Network:       config.ClusterMainnet,
			Uptime:        90 * time.Second,
			Stats:         pipeline.Stats{TotalMinted: 1200, TotalProcessed: 1199, Errors: 2},
			InFlight:      1,
			LastError:     "upload failed: uploading: media",
			Tasks: []pipeline.Task{
				{Folder: "cat", State: pipeline.StateUploading, RequestID: "run-1", UpdatedAt: now.Add(-time.Minute)},
			},
		},
	}

	var b strings.Builder
	renderStatus(&b, resp, now, false)
	out := b.String()

	for _, want := range []string{
		"Running (pid 4242)",
		"[WARN] Paused",
		"[WARN] mainnet-beta",
		"1,200",
		"[WARN] 2",
		"[ERROR] upload failed",
		"cat",
		"uploading",
		"1 minute ago",
		"1m30s",
	} {
		requireContains(t, out, want)
	}
}

func TestRenderTableTruncatesWideColumns(t *testing.T) {
	long := strings.Repeat("x", 50)
	out := renderTable([]column{{header: "Folder", maxWidth: 10}, {header: "N", align: alignRight}}, [][]string{{long, "7"}})
	if strings.Contains(out, long) {
		t.Fatalf("expected truncated cell, got:\n%s", out)
	}
	requireContains(t, out, "Folder")
	requireContains(t, out, "7")
}
