package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// message is one newline-delimited JSON object from mpv: either a reply
// (request_id + error) or an event.
type message struct {
	RequestID int64  `json:"request_id"`
	Error     string `json:"error"`
	Data      any    `json:"data"`
	Event     string `json:"event"`
	Name      string `json:"name"`
}

type command struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	replyTimeout = 2 * time.Second
)

var requestIDs atomic.Int64

// sendCommand runs one IPC command on a fresh connection, retrying
// transient connection failures.
func sendCommand(ctx context.Context, socketPath string, args ...any) (any, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		data, err, retry := doSendCommand(ctx, socketPath, args)
		if err == nil {
			return data, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// doSendCommand performs a single attempt. retry is false once mpv has
// answered, since its verdict will not change.
func doSendCommand(ctx context.Context, socketPath string, args []any) (data any, err error, retry bool) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err), true
	}
	defer conn.Close()

	id := requestIDs.Add(1)
	payload, err := json.Marshal(command{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err), false
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err), true
	}

	deadline := time.Now().Add(replyTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err), true
	}

	// events broadcast to every client may precede the reply
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, &CommandError{Command: fmt.Sprint(args[0]), Reason: msg.Error}, false
		}
		return msg.Data, nil, false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err), true
	}
	return nil, fmt.Errorf("read: connection closed before reply"), true
}

// CommandError is mpv refusing a command.
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.Command, e.Reason)
}
