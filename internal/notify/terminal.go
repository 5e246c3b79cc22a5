package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TerminalNotifier prints one colored line per notification.
type TerminalNotifier struct {
	mu           sync.Mutex
	out          io.Writer
	colorEnabled bool
	bellEnabled  bool
}

// NewTerminalNotifier creates a TerminalNotifier writing to out.
func NewTerminalNotifier(out io.Writer, colorEnabled bool) *TerminalNotifier {
	return &TerminalNotifier{out: out, colorEnabled: colorEnabled}
}

// SetBellEnabled rings the terminal bell for error notifications.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

func (tn *TerminalNotifier) Name() string    { return "terminal" }
func (tn *TerminalNotifier) IsEnabled() bool { return tn.out != nil }

func (tn *TerminalNotifier) Send(ctx context.Context, n Notification) error {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	line := FormatNotification(n, tn.colorEnabled)
	if tn.bellEnabled && n.Type == NotificationError {
		line = "\a" + line
	}
	_, err := fmt.Fprintln(tn.out, line)
	return err
}

// FormatNotification formats a notification for terminal display.
func FormatNotification(n Notification, colorEnabled bool) string {
	var sb strings.Builder

	timestamp := n.Timestamp.Format("15:04:05")

	var typeIndicator string
	var c *color.Color
	switch n.Type {
	case NotificationTrade:
		typeIndicator = "TRADE"
		c = color.New(color.FgMagenta, color.Bold)
	case NotificationWorkflow:
		typeIndicator = "WORKFLOW"
		c = color.New(color.FgCyan, color.Bold)
	case NotificationError:
		typeIndicator = "ERROR"
		c = color.New(color.FgRed, color.Bold)
	default:
		typeIndicator = "INFO"
		c = color.New(color.FgWhite)
	}

	header := fmt.Sprintf("[%s] %-8s", timestamp, typeIndicator)
	if colorEnabled {
		c.EnableColor()
		header = c.Sprint(header)
	}
	sb.WriteString(header)

	if n.Title != "" {
		sb.WriteString(" | ")
		sb.WriteString(n.Title)
	}
	if n.Message != "" {
		sb.WriteString(" | ")
		sb.WriteString(n.Message)
	}

	return sb.String()
}
