package tinyflag

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

// Common test helpers and fakes

// testLog is a simple logger for testing
func testLog(t *testing.T) func(args ...any) {
	return func(args ...any) {
		t.Log(args...)
	}
}

type fakeXHR struct {
	credentials bool
	calls       *[]bool
	status      int
	body        string
}

func (x *fakeXHR) WithCredentials() bool { return x.credentials }

func (x *fakeXHR) Do(ctx context.Context, r *Request, synchronous bool) (*Response, error) {
	if x.calls != nil {
		*x.calls = append(*x.calls, synchronous)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return NewResponse(x.status, x.body, h.Get), nil
}

type fakeFetchResponse struct {
	status  int
	headers map[string]string
	body    string
	err     error
}

func (f *fakeFetchResponse) Status() int              { return f.status }
func (f *fakeFetchResponse) Header(key string) string { return f.headers[key] }
func (f *fakeFetchResponse) Text() (string, error)    { return f.body, f.err }

type fakeEventSource struct {
	url   string
	opts  EventSourceOptions
	state ReadyState
	kind  string
}

func (f *fakeEventSource) ReadyState() ReadyState                        { return f.state }
func (f *fakeEventSource) AddEventListener(string, func(e *StreamEvent)) {}
func (f *fakeEventSource) Close()                                        { f.state = StateClosed }

func fakeEventSourceClass(kind string, supported map[string]bool) *EventSourceClass {
	return &EventSourceClass{
		New: func(url string, opts EventSourceOptions) EventSource {
			return &fakeEventSource{url: url, opts: opts, state: StateConnecting, kind: kind}
		},
		Connecting:       StateConnecting,
		Open:             StateOpen,
		Closed:           StateClosed,
		SupportedOptions: supported,
	}
}

type fakeTarget struct {
	mu        sync.Mutex
	listeners map[string][]func()
}

func (f *fakeTarget) AddEventListener(event string, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners == nil {
		f.listeners = make(map[string][]func())
	}
	f.listeners[event] = append(f.listeners[event], fn)
}

func (f *fakeTarget) fire(event string) {
	f.mu.Lock()
	ls := append([]func(){}, f.listeners[event]...)
	f.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

func (f *fakeTarget) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners[event])
}

type fakeDocument struct {
	fakeTarget
	readyState string
	visibility string
}

func (d *fakeDocument) ReadyState() string      { return d.readyState }
func (d *fakeDocument) VisibilityState() string { return d.visibility }

type fakeConsole struct {
	mu    sync.Mutex
	logs  []string
	warns []string
	errs  []string
}

func (c *fakeConsole) Log(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, fmt.Sprint(args...))
}

func (c *fakeConsole) Warn(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, fmt.Sprint(args...))
}

func (c *fakeConsole) Error(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, fmt.Sprint(args...))
}

type failingStorage struct{ err error }

func (f failingStorage) GetItem(string) (string, bool, error) { return "", false, f.err }
func (f failingStorage) SetItem(string, string) error         { return f.err }
func (f failingStorage) RemoveItem(string) error              { return f.err }

type panickingStorage struct{}

func (panickingStorage) GetItem(string) (string, bool, error) { panic("SecurityError") }
func (panickingStorage) SetItem(string, string) error         { panic("SecurityError") }
func (panickingStorage) RemoveItem(string) error              { panic("SecurityError") }

// fakeCoreClient records what the shim does to it.
type fakeCoreClient struct {
	mu       sync.Mutex
	started  int
	flushes  int
	flushErr error
	onFlush  func()
}

func (c *fakeCoreClient) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}

func (c *fakeCoreClient) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.flushes++
	fn := c.onFlush
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return c.flushErr
}

func (c *fakeCoreClient) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// fakeCore hands back the same client and emitter on every call.
type fakeCore struct {
	client   *fakeCoreClient
	emitter  *EventEmitter
	err      error
	platform *Platform
	schema   OptionSchema
	envID    string
	calls    int
}

func newFakeCore() *fakeCore {
	return &fakeCore{client: &fakeCoreClient{}, emitter: NewEmitter()}
}

func (f *fakeCore) Initialize(envID string, user User, opts *Options, p *Platform, schema OptionSchema) (*CoreResult, error) {
	f.calls++
	f.envID = envID
	f.platform = p
	f.schema = schema
	if f.err != nil {
		return nil, f.err
	}
	return &CoreResult{Client: f.client, Options: opts, Emitter: f.emitter}, nil
}
