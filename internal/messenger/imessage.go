package messenger

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	appLog "github.com/sreeprasad/luma-notifier/internal/log"
)

const defaultSendTimeout = 30 * time.Second

// IMessageSender delivers messages through the macOS Messages app by
// driving it with AppleScript. When the iMessage send fails (for example
// the contact is not reachable over iMessage), it retries once over the
// SMS service and reports the combined outcome.
type IMessageSender struct {
	Timeout time.Duration

	// run executes an AppleScript and returns stderr text on failure.
	// Overridable in tests.
	run func(ctx context.Context, script string) error
}

// NewIMessageSender returns a sender with the given per-attempt timeout
// (defaultSendTimeout when zero).
func NewIMessageSender(timeout time.Duration) *IMessageSender {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &IMessageSender{Timeout: timeout, run: runOsascript}
}

// Send implements Messenger.
func (s *IMessageSender) Send(ctx context.Context, text, contact string) error {
	runScript := s.run
	if runScript == nil {
		runScript = runOsascript
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	err := runScript(attemptCtx, imessageScript(text, contact))
	cancel()
	if err == nil {
		return nil
	}
	appLog.Warn("iMessage send failed, trying SMS service", "err", err)

	attemptCtx, cancel = context.WithTimeout(ctx, s.Timeout)
	smsErr := runScript(attemptCtx, smsScript(text, contact))
	cancel()
	if smsErr == nil {
		return nil
	}
	return fmt.Errorf("imessage: %w (sms fallback: %v)", err, smsErr)
}

func runOsascript(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, msg)
	}
	return nil
}

func imessageScript(text, contact string) string {
	return fmt.Sprintf(`tell application "Messages"
	set targetService to 1st account whose service type = iMessage
	set targetBuddy to participant "%s" of targetService
	send "%s" to targetBuddy
end tell`, escapeAppleScript(contact), escapeAppleScript(text))
}

func smsScript(text, contact string) string {
	return fmt.Sprintf(`tell application "Messages"
	send "%s" to buddy "%s" of service "SMS"
end tell`, escapeAppleScript(text), escapeAppleScript(contact))
}

// escapeAppleScript makes a value safe inside an AppleScript double-quoted
// string literal.
func escapeAppleScript(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
