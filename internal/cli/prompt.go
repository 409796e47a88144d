package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// readLine reads one trimmed line from r, giving up when ctx is done.
// The read itself keeps running until the line arrives.
func readLine(ctx context.Context, r *bufio.Reader) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		value, err := r.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Confirm asks a yes/no question and reports whether the answer was yes.
// An empty answer is no. Any other answer asks again.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, question string) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		if _, err := fmt.Fprintf(out, "%s ", FormatPrompt(question+" [y/N]")); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := readLine(ctx, reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, fmt.Errorf("input terminated")
			}
			return false, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}

		if _, err := fmt.Fprintln(out, FormatError("Please answer y or n.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
