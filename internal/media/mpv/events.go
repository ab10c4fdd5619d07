package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// observed are the properties the handle tracks.
var observed = []string{"duration", "pause", "paused-for-cache", "eof-reached", "idle-active"}

// listener keeps one connection open and reports property changes.
// observe_property is scoped to the connection that sent it, so the
// observers are registered on the read connection itself.
type listener struct {
	conn     net.Conn
	callback func(name string, data any)
	log      *logrus.Entry

	stopOnce sync.Once
	done     chan struct{}
}

func listen(socketPath string, callback func(name string, data any), log *logrus.Entry) (*listener, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("event listener connect: %w", err)
	}

	for i, prop := range observed {
		payload, _ := json.Marshal(command{Command: []any{"observe_property", i + 1, prop}})
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return nil, fmt.Errorf("observe %s: %w", prop, err)
		}
	}

	l := &listener{
		conn:     conn,
		callback: callback,
		log:      log,
		done:     make(chan struct{}),
	}
	go l.readLoop()
	log.WithField("properties", observed).Debug("mpv event listener started")
	return l, nil
}

func (l *listener) stop() {
	l.stopOnce.Do(func() {
		l.conn.Close()
		<-l.done
	})
}

func (l *listener) readLoop() {
	defer close(l.done)

	scanner := bufio.NewScanner(l.conn)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		switch msg.Event {
		case "":
			// reply to an observe_property
		case "property-change":
			if msg.Name != "" {
				l.callback(msg.Name, msg.Data)
			}
		default:
			l.callback(msg.Event, nil)
		}
	}
	if err := scanner.Err(); err != nil {
		l.log.WithError(err).Debug("event listener stopped")
	}
}
