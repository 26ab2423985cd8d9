package tinyflag

import (
	"context"
	"time"
)

// Env is the host environment the platform probes. A nil field means the
// host does not provide that API.
type Env struct {
	// XMLHttpRequest constructs a legacy request object.
	XMLHttpRequest func() XHR

	// Fetch performs a fetch-style request.
	Fetch Fetcher

	EventSource         *EventSourceClass
	EventSourcePolyfill *EventSourceClass

	// LocalStorage returns the host storage. Returning an error means the
	// storage exists but touching it failed (privacy mode, sandboxed frames).
	LocalStorage func() (Storage, error)

	Navigator  *Navigator
	DoNotTrack any

	Location func() string
	Document Document
	Window   EventTarget

	// Image loads url through an image element.
	Image func(url string)

	Console Console
}

// null is the JS null value, distinct from a nil (undefined) field.
type null struct{}

// Null marks a host value that is present but JS null.
var Null any = null{}

// Navigator carries the Do-Not-Track values reported by the host navigator.
type Navigator struct {
	DoNotTrack   any
	MsDoNotTrack any
}

// XHR is a legacy request object.
type XHR interface {
	// WithCredentials reports whether the object exposes withCredentials,
	// which is how CORS support is detected.
	WithCredentials() bool
	// Do sends r. When synchronous is true the call completes before the
	// page is allowed to continue.
	Do(ctx context.Context, r *Request, synchronous bool) (*Response, error)
}

// Fetcher sends a request through a fetch-style API.
type Fetcher func(ctx context.Context, r *Request) (FetchResponse, error)

// FetchResponse is the host's fetch response before it is adapted.
type FetchResponse interface {
	Status() int
	Header(key string) string
	Text() (string, error)
}

// EventSourceClass is a streaming constructor plus its ready-state constants.
type EventSourceClass struct {
	New        func(url string, opts EventSourceOptions) EventSource
	Connecting ReadyState
	Open       ReadyState
	Closed     ReadyState

	// SupportedOptions lists the options a polyfill understands.
	SupportedOptions map[string]bool
}

// ReadyState of an EventSource connection.
type ReadyState int

const (
	StateConnecting ReadyState = 0
	StateOpen       ReadyState = 1
	StateClosed     ReadyState = 2
)

// EventSource is a live streaming connection handle.
type EventSource interface {
	ReadyState() ReadyState
	AddEventListener(event string, fn func(e *StreamEvent))
	Close()
}

// StreamEvent is one message received on an EventSource.
type StreamEvent struct {
	Type        string
	Data        string
	LastEventID string
}

// EventSourceOptions are passed to the streaming constructor.
type EventSourceOptions struct {
	Method  string
	Body    string
	Headers map[string]string

	// HeartbeatTimeout drops a connection after this long without any bytes.
	// SilentTimeout drops it after this long without a dispatched event, so
	// keepalive comments alone do not hold it open.
	HeartbeatTimeout time.Duration
	SilentTimeout    time.Duration

	// SkipDefaultHeaders keeps polyfills from adding headers that break
	// cross-origin requests. nil means use the platform default.
	SkipDefaultHeaders *bool
}

// Storage is the synchronous host key/value storage.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Document is the host document.
type Document interface {
	ReadyState() string
	VisibilityState() string
	EventTarget
}

// EventTarget accepts event listeners.
type EventTarget interface {
	AddEventListener(event string, fn func())
}

// Console is the host console.
type Console interface {
	Log(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

// Request is an outgoing HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the uniform HTTP response handed to the core.
type Response struct {
	Status int
	Body   string

	header func(key string) string
}

// NewResponse builds a Response whose headers are read through header,
// which may be nil. An http.Header's Get method fits.
func NewResponse(status int, body string, header func(key string) string) *Response {
	return &Response{Status: status, Body: body, header: header}
}

// Header returns the value of response header key.
func (r *Response) Header(key string) string {
	if r == nil || r.header == nil {
		return ""
	}
	return r.header(key)
}
