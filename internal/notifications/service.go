package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"foldersort/internal/config"
)

const userAgent = "foldersort/1.0"

// Notifier delivers run notifications.
type Notifier interface {
	NotifyRun(ctx context.Context, run Summary) error
	TestNotification(ctx context.Context) error
}

// Summary is the part of a finished run worth announcing.
type Summary struct {
	RunID    string
	Kind     string
	Root     string
	Source   string
	Status   string
	Planned  int
	Moved    int
	Failures int
	Duration time.Duration
	Err      string
}

// New builds an ntfy notifier, or a no-op when no topic is configured.
func New(cfg config.Notifications) Notifier {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopNotifier{}
	}
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyNotifier{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.NotifyOnSuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyNotifier struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
}

func (n *ntfyNotifier) NotifyRun(ctx context.Context, run Summary) error {
	if run.Status == "succeeded" && !n.onSuccess {
		return nil
	}
	return n.send(ctx, runPayload(run))
}

func (n *ntfyNotifier) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "foldersort - Test",
		message:  "Notification test",
		tags:     []string{"foldersort", "test"},
		priority: "low",
	})
}

func runPayload(run Summary) payload {
	subject := run.Source
	if subject == "" {
		subject = run.Root
	}
	duration := run.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	data := payload{tags: []string{"foldersort", run.Kind, run.Status}}
	switch run.Status {
	case "succeeded":
		data.title = "foldersort - Sorted"
		data.message = fmt.Sprintf("Sorted %s: %d files moved in %s", subject, run.Moved, duration)
	case "partial":
		data.title = "foldersort - Sorted with errors"
		data.message = fmt.Sprintf("Sorted %s: %d of %d files moved, %d problems", subject, run.Moved, run.Planned, run.Failures)
		data.priority = "high"
	case "canceled":
		data.title = "foldersort - Canceled"
		data.message = fmt.Sprintf("Sort of %s canceled after %d of %d files", subject, run.Moved, run.Planned)
	default:
		data.title = "foldersort - Failed"
		var b strings.Builder
		fmt.Fprintf(&b, "Sort of %s failed", subject)
		if msg := strings.TrimSpace(run.Err); msg != "" {
			b.WriteString(": ")
			b.WriteString(msg)
		}
		data.message = b.String()
		data.priority = "high"
	}
	if run.RunID != "" {
		data.message += "\nRun: " + run.RunID
	}
	return data
}

func (n *ntfyNotifier) send(ctx context.Context, data payload) error {
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

type noopNotifier struct{}

func (noopNotifier) NotifyRun(context.Context, Summary) error { return nil }
func (noopNotifier) TestNotification(context.Context) error  { return nil }
