//go:build !wasm

package tinyflag

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cdvelop/tinystring"
)

const maxRetryDelay = 30 * time.Second

// stream is an EventSource over a streaming HTTP response. It reconnects
// with exponential backoff until Close is called.
type stream struct {
	client *http.Client
	url    string
	opts   EventSourceOptions

	state  atomic.Int32
	cancel context.CancelFunc

	mu                sync.Mutex
	listeners         map[string][]func(*StreamEvent)
	lastEventID       string
	retry             time.Duration
	reconnectAttempts int
}

func dialStream(client *http.Client, url string, opts EventSourceOptions, retry time.Duration) *stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{
		client:    client,
		url:       url,
		opts:      opts,
		cancel:    cancel,
		listeners: make(map[string][]func(*StreamEvent)),
		retry:     retry,
	}
	s.state.Store(int32(StateConnecting))
	go s.run(ctx)
	return s
}

func (s *stream) ReadyState() ReadyState {
	return ReadyState(s.state.Load())
}

func (s *stream) AddEventListener(event string, fn func(*StreamEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], fn)
}

// Close stops the stream for good.
func (s *stream) Close() {
	s.state.Store(int32(StateClosed))
	s.cancel()
}

func (s *stream) dispatch(e *StreamEvent) {
	s.mu.Lock()
	ls := append(([]func(*StreamEvent))(nil), s.listeners[e.Type]...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(e)
	}
}

func (s *stream) run(ctx context.Context) {
	defer s.state.Store(int32(StateClosed))
	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		s.state.Store(int32(StateConnecting))
		s.dispatch(&StreamEvent{Type: "error", Data: err.Error()})

		select {
		case <-time.After(s.nextDelay()):
		case <-ctx.Done():
			return
		}
	}
}

func (s *stream) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	delay := s.retry * (1 << s.reconnectAttempts)
	if delay > maxRetryDelay || delay <= 0 {
		delay = maxRetryDelay
	}
	if delay < maxRetryDelay {
		s.reconnectAttempts++
	}
	return delay
}

func (s *stream) connect(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	req, err := newHTTPRequest(ctx, s.opts.Method, s.url, s.opts.Headers, bodyReader(s.opts.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if s.opts.SkipDefaultHeaders == nil || !*s.opts.SkipDefaultHeaders {
		req.Header.Set("Cache-Control", "no-cache")
	}
	s.mu.Lock()
	if s.lastEventID != "" {
		req.Header.Set("Last-Event-ID", s.lastEventID)
	}
	s.mu.Unlock()

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tinystring.Errf("stream: unexpected status %d", resp.StatusCode)
	}

	s.state.Store(int32(StateOpen))
	s.mu.Lock()
	s.reconnectAttempts = 0
	s.mu.Unlock()
	s.dispatch(&StreamEvent{Type: "open"})

	// The heartbeat timer drops connections that stopped sending bytes; the
	// silent timer drops connections that only send keepalive comments.
	var idle, silent *time.Timer
	if s.opts.HeartbeatTimeout > 0 {
		idle = time.AfterFunc(s.opts.HeartbeatTimeout, cancel)
		defer idle.Stop()
	}
	if s.opts.SilentTimeout > 0 {
		silent = time.AfterFunc(s.opts.SilentTimeout, cancel)
		defer silent.Stop()
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		if idle != nil {
			idle.Reset(s.opts.HeartbeatTimeout)
		}
		line := scanner.Text()
		if line == "" {
			if s.flushEvent(&event, &data) && silent != nil {
				silent.Reset(s.opts.SilentTimeout)
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
		case "id":
			if !strings.Contains(value, "\x00") {
				s.mu.Lock()
				s.lastEventID = value
				s.mu.Unlock()
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
				s.mu.Lock()
				s.retry = time.Duration(ms) * time.Millisecond
				s.mu.Unlock()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return tinystring.Err("stream: connection closed by server")
}

// flushEvent dispatches the buffered event and reports whether there was one.
func (s *stream) flushEvent(event *string, data *strings.Builder) bool {
	defer func() {
		*event = ""
		data.Reset()
	}()
	if data.Len() == 0 {
		return false
	}
	typ := *event
	if typ == "" {
		typ = "message"
	}
	s.mu.Lock()
	lastID := s.lastEventID
	s.mu.Unlock()
	s.dispatch(&StreamEvent{
		Type:        typ,
		Data:        strings.TrimSuffix(data.String(), "\n"),
		LastEventID: lastID,
	})
	return true
}

func bodyReader(body string) io.Reader {
	if body == "" {
		return nil
	}
	return strings.NewReader(body)
}
