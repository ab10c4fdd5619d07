package mpv

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/errors"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// Options configures a spawned mpv process.
type Options struct {
	// Path is the mpv executable. Defaults to "mpv".
	Path string
	// Volume is the initial output volume in percent.
	Volume int
	// SocketDir holds the IPC socket. Defaults to the temp directory.
	SocketDir string
	// ExtraArgs are appended to the mpv command line.
	ExtraArgs []string
	// Headers are sent with every HTTP request mpv makes.
	Headers map[string]string
	Log     *logrus.Entry
}

// Start launches an idle, paused, audio-only mpv and attaches to its IPC
// socket.
func Start(ctx context.Context, opts Options) (*Handle, error) {
	if opts.Path == "" {
		opts.Path = "mpv"
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("generate socket name: %w", err)
	}
	dir := opts.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}
	socketPath := filepath.Join(dir, fmt.Sprintf("earshot-%x.sock", suffix))

	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--really-quiet",
		"--pause",
		"--keep-open=yes",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}
	if opts.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", opts.Volume))
	}
	if h := headerFields(opts.Headers); h != "" {
		args = append(args, fmt.Sprintf("--http-header-fields=%s", h))
	}
	args = append(args, opts.ExtraArgs...)

	cmd := exec.Command(opts.Path, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w: %w", errors.ErrPlayerUnavailable, err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := waitForSocket(ctx, socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			opts.Log.Warn("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		_ = os.Remove(socketPath)
		return nil, fmt.Errorf("mpv socket not ready: %w: %w", errors.ErrPlayerUnavailable, err)
	}

	h, err := Attach(socketPath, opts.Log)
	if err != nil {
		_ = killProcess(cmd)
		_ = os.Remove(socketPath)
		return nil, err
	}
	h.cmd = cmd
	h.exited = exited
	h.ownsSocket = true

	opts.Log.WithFields(logrus.Fields{
		"pid":    cmd.Process.Pid,
		"socket": socketPath,
	}).Debug("mpv started")

	go func() {
		<-exited
		h.processExited()
	}()

	return h, nil
}

// waitForSocket polls until the IPC socket accepts connections.
func waitForSocket(ctx context.Context, socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

func headerFields(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s: %s", k, strings.ReplaceAll(headers[k], ",", "%2C"))
	}
	return b.String()
}

// sanitizeLocator keeps a locator from being read as an mpv flag and
// limits remote streams to http(s).
func sanitizeLocator(locator string) (string, error) {
	l := strings.TrimSpace(locator)
	if l == "" {
		return "", fmt.Errorf("empty locator")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in locator")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("locator must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid locator: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported locator scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
