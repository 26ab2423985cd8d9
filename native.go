//go:build !wasm

package tinyflag

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// NativeConfig configures the host used outside the browser.
type NativeConfig struct {
	// HTTPClient defaults to an HTTP/2 capable client with no overall
	// timeout, since streams stay open.
	HTTPClient *http.Client

	// RequestTimeout bounds each non-streaming request. Default 30s.
	RequestTimeout time.Duration

	// RetryDelay is the initial stream reconnect delay. Default 1s.
	RetryDelay time.Duration

	// DoNotTrack is reported as the global doNotTrack value.
	DoNotTrack any

	// URL is the current location, if any.
	URL string

	// Storage defaults to a MemoryStorage.
	Storage Storage

	// Output receives console lines. Default stderr.
	Output io.Writer
}

func defaultEnv() *Env {
	return NativeEnv(nil)
}

// NativeEnv returns an Env backed by net/http. It offers fetch, streaming
// with REPORT support, storage and a console; there is no document, so the
// page lifecycle hooks are never installed.
func NativeEnv(c *NativeConfig) *Env {
	if c == nil {
		c = &NativeConfig{}
	}
	client := c.HTTPClient
	if client == nil {
		client = newHTTPClient()
	}
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := c.RetryDelay
	if retry <= 0 {
		retry = time.Second
	}
	store := c.Storage
	if store == nil {
		store = NewMemoryStorage()
	}
	out := c.Output
	if out == nil {
		out = os.Stderr
	}

	streams := &EventSourceClass{
		New: func(url string, opts EventSourceOptions) EventSource {
			return dialStream(client, url, opts, retry)
		},
		Connecting: StateConnecting,
		Open:       StateOpen,
		Closed:     StateClosed,
		SupportedOptions: map[string]bool{
			"method":  true,
			"body":    true,
			"headers": true,
		},
	}

	env := &Env{
		Fetch:               nativeFetch(client, timeout),
		EventSource:         streams,
		EventSourcePolyfill: streams,
		LocalStorage:        func() (Storage, error) { return store, nil },
		DoNotTrack:          c.DoNotTrack,
		Image:               nativePing(client, timeout),
		Console:             writerConsole{w: out},
	}
	if c.URL != "" {
		url := c.URL
		env.Location = func() string { return url }
	}
	return env
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	// On failure the transport stays HTTP/1.1.
	_ = http2.ConfigureTransport(tr)
	return &http.Client{Transport: tr}
}

func newHTTPRequest(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func nativeFetch(client *http.Client, timeout time.Duration) Fetcher {
	return func(ctx context.Context, r *Request) (FetchResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var body io.Reader
		if r.Body != nil {
			body = strings.NewReader(string(r.Body))
		}
		req, err := newHTTPRequest(ctx, r.Method, r.URL, r.Headers, body)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &nativeResponse{status: resp.StatusCode, header: resp.Header, body: string(data)}, nil
	}
}

type nativeResponse struct {
	status int
	header http.Header
	body   string
}

func (r *nativeResponse) Status() int              { return r.status }
func (r *nativeResponse) Header(key string) string { return r.header.Get(key) }
func (r *nativeResponse) Text() (string, error)    { return r.body, nil }

// nativePing issues a fire-and-forget GET, the closest thing to loading an
// image.
func nativePing(client *http.Client, timeout time.Duration) func(url string) {
	return func(url string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			req, err := newHTTPRequest(ctx, http.MethodGet, url, nil, nil)
			if err != nil {
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
}

type writerConsole struct {
	w io.Writer
}

func (c writerConsole) Log(args ...any)   { fmt.Fprintln(c.w, args...) }
func (c writerConsole) Warn(args ...any)  { fmt.Fprintln(c.w, append([]any{"WARN:"}, args...)...) }
func (c writerConsole) Error(args ...any) { fmt.Fprintln(c.w, append([]any{"ERROR:"}, args...)...) }
