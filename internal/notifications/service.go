package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mintwatch/internal/config"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/services"
)

const userAgent = "mintwatch/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyMinted(ctx context.Context, rec *mintlog.Record) error
	NotifyFolderFailed(ctx context.Context, folder, state string, err error) error
	NotifyDaemonStarted(ctx context.Context, inbox string, pending int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		minted:   cfg.Notifications.Minted,
		failures: cfg.Notifications.Failures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	minted   bool
	failures bool
}

func (n *ntfyService) NotifyMinted(ctx context.Context, rec *mintlog.Record) error {
	if !n.minted || rec == nil {
		return nil
	}
	message := fmt.Sprintf("🪙 Minted: %s\nFolder: %s\nMint: %s", strings.TrimSpace(rec.Name), rec.Folder, rec.MintAddress)
	return n.send(ctx, payload{
		title:   "mintwatch - Minted",
		message: message,
		tags:    []string{"mintwatch", "mint", "completed"},
		click:   rec.ExplorerURL,
	})
}

func (n *ntfyService) NotifyFolderFailed(ctx context.Context, folder, state string, err error) error {
	if !n.failures {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "❌ %s failed", strings.TrimSpace(folder))
	if state = strings.TrimSpace(state); state != "" {
		builder.WriteString(" while ")
		builder.WriteString(state)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
		if hint := services.Hint(err); hint != "" {
			builder.WriteString("\nNext: ")
			builder.WriteString(hint)
		}
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "mintwatch - Failed",
		message:  builder.String(),
		tags:     []string{"mintwatch", "error", services.Kind(err)},
		priority: "high",
	})
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, inbox string, pending int) error {
	return n.send(ctx, payload{
		title:    "mintwatch - Watching",
		message:  fmt.Sprintf("👀 Watching %s (%d folders waiting)", inbox, pending),
		tags:     []string{"mintwatch", "daemon", "started"},
		priority: "low",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mintwatch - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mintwatch", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyMinted(context.Context, *mintlog.Record) error             { return nil }
func (noopService) NotifyFolderFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyDaemonStarted(context.Context, string, int) error          { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
