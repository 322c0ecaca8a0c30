package messenger

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleSender prints messages instead of delivering them. Used for
// dry runs and tests.
type ConsoleSender struct {
	Out io.Writer
}

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{Out: os.Stdout}
}

// Send implements Messenger.
func (s *ConsoleSender) Send(_ context.Context, text, contact string) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintf(out, "--- message to %s ---\n%s\n", contact, text)
	return err
}
