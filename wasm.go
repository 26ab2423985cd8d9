//go:build wasm

package tinyflag

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/cdvelop/tinystring"
)

func defaultEnv() *Env {
	return BrowserEnv()
}

// BrowserEnv probes the JS global scope and returns the APIs it found.
func BrowserEnv() *Env {
	g := hostGlobal()
	env := &Env{
		DoNotTrack: jsAny(g.Get("doNotTrack")),
	}

	if ctor := g.Get("XMLHttpRequest"); defined(ctor) {
		env.XMLHttpRequest = func() XHR { return &jsXHR{v: ctor.New()} }
	}
	if fetch := g.Get("fetch"); defined(fetch) {
		env.Fetch = jsFetch(g)
	}
	if ctor := g.Get("EventSource"); defined(ctor) {
		env.EventSource = jsEventSourceClass(ctor)
	}
	if ctor := g.Get("EventSourcePolyfill"); defined(ctor) {
		env.EventSourcePolyfill = jsEventSourceClass(ctor)
	}

	if ls, err := jsLocalStorage(g); err != nil {
		env.LocalStorage = func() (Storage, error) { return nil, err }
	} else if defined(ls) {
		env.LocalStorage = func() (Storage, error) { return jsStorage{v: ls}, nil }
	}

	if nav := g.Get("navigator"); defined(nav) {
		env.Navigator = &Navigator{
			DoNotTrack:   jsAny(nav.Get("doNotTrack")),
			MsDoNotTrack: jsAny(nav.Get("msDoNotTrack")),
		}
	}
	if defined(g.Get("location")) {
		env.Location = func() string { return g.Get("location").Get("href").String() }
	}
	if doc := g.Get("document"); defined(doc) && defined(doc.Get("addEventListener")) {
		env.Document = jsDocument{jsTarget{v: doc}}
	}
	if defined(g.Get("addEventListener")) {
		env.Window = jsTarget{v: g}
	}
	if img := g.Get("Image"); defined(img) {
		env.Image = func(url string) { img.New().Set("src", url) }
	}
	if c := g.Get("console"); defined(c) {
		env.Console = jsConsole{v: c}
	}
	return env
}

// hostGlobal resolves the global object the way bundled scripts do:
// self, then window, then global.
func hostGlobal() js.Value {
	for _, name := range []string{"self", "window", "global"} {
		if v := js.Global().Get(name); defined(v) {
			return v
		}
	}
	return js.Global()
}

func defined(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

// jsAny converts a primitive JS value. undefined becomes nil, null Null.
func jsAny(v js.Value) any {
	switch v.Type() {
	case js.TypeUndefined:
		return nil
	case js.TypeNull:
		return Null
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	default:
		return v.String()
	}
}

// catch runs fn and turns a thrown JS exception into an error.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			err = tinystring.Errf("js exception: %v", r)
		}
	}()
	fn()
	return nil
}

func jsLocalStorage(g js.Value) (ls js.Value, err error) {
	err = catch(func() { ls = g.Get("localStorage") })
	return ls, err
}

// await waits for promise to settle.
func await(ctx context.Context, promise js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	then := js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- result{v: args[0]}
		return nil
	})
	fail := js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- result{err: js.Error{Value: args[0]}}
		return nil
	})
	defer then.Release()
	defer fail.Release()

	promise.Call("then", then, fail)
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

func jsBody(b []byte) any {
	if b == nil {
		return js.Null()
	}
	return string(b)
}

type jsXHR struct {
	v js.Value
}

func (x *jsXHR) WithCredentials() bool {
	return js.Global().Get("Reflect").Call("has", x.v, "withCredentials").Bool()
}

func (x *jsXHR) Do(ctx context.Context, r *Request, synchronous bool) (*Response, error) {
	done := make(chan error, 1)
	onload := js.FuncOf(func(this js.Value, args []js.Value) any {
		done <- nil
		return nil
	})
	onerror := js.FuncOf(func(this js.Value, args []js.Value) any {
		done <- tinystring.Errf("xhr network error: %s", r.URL)
		return nil
	})
	defer onload.Release()
	defer onerror.Release()

	err := catch(func() {
		x.v.Call("open", r.Method, r.URL, !synchronous)
		for k, v := range r.Headers {
			x.v.Call("setRequestHeader", k, v)
		}
		if !synchronous {
			x.v.Set("onload", onload)
			x.v.Set("onerror", onerror)
		}
		x.v.Call("send", jsBody(r.Body))
	})
	if err != nil {
		return nil, err
	}

	if !synchronous {
		select {
		case err := <-done:
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			x.v.Call("abort")
			return nil, ctx.Err()
		}
	}

	return NewResponse(x.v.Get("status").Int(), x.v.Get("responseText").String(), func(key string) string {
		h := x.v.Call("getResponseHeader", key)
		if !defined(h) {
			return ""
		}
		return h.String()
	}), nil
}

func jsFetch(g js.Value) Fetcher {
	return func(ctx context.Context, r *Request) (FetchResponse, error) {
		headers := make(map[string]any, len(r.Headers))
		for k, v := range r.Headers {
			headers[k] = v
		}
		init := map[string]any{
			"method":  r.Method,
			"headers": headers,
			"body":    jsBody(r.Body),
		}
		var promise js.Value
		if err := catch(func() { promise = g.Call("fetch", r.URL, init) }); err != nil {
			return nil, err
		}
		res, err := await(ctx, promise)
		if err != nil {
			return nil, err
		}
		return &jsFetchResponse{ctx: ctx, v: res}, nil
	}
}

type jsFetchResponse struct {
	ctx context.Context
	v   js.Value
}

func (f *jsFetchResponse) Status() int {
	return f.v.Get("status").Int()
}

func (f *jsFetchResponse) Header(key string) string {
	h := f.v.Get("headers").Call("get", key)
	if !defined(h) {
		return ""
	}
	return h.String()
}

func (f *jsFetchResponse) Text() (string, error) {
	v, err := await(f.ctx, f.v.Call("text"))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func jsEventSourceClass(ctor js.Value) *EventSourceClass {
	class := &EventSourceClass{
		New: func(url string, opts EventSourceOptions) EventSource {
			return &jsEventSource{v: ctor.New(url, jsStreamInit(opts))}
		},
		Connecting: ReadyState(intOr(ctor.Get("CONNECTING"), int(StateConnecting))),
		Open:       ReadyState(intOr(ctor.Get("OPEN"), int(StateOpen))),
		Closed:     ReadyState(intOr(ctor.Get("CLOSED"), int(StateClosed))),
	}
	if so := ctor.Get("supportedOptions"); defined(so) {
		class.SupportedOptions = make(map[string]bool)
		keys := js.Global().Get("Object").Call("keys", so)
		for i := 0; i < keys.Length(); i++ {
			k := keys.Index(i).String()
			class.SupportedOptions[k] = so.Get(k).Truthy()
		}
	}
	return class
}

func intOr(v js.Value, def int) int {
	if v.Type() != js.TypeNumber {
		return def
	}
	return v.Int()
}

func jsStreamInit(opts EventSourceOptions) map[string]any {
	init := map[string]any{
		"heartbeatTimeout": opts.HeartbeatTimeout.Milliseconds(),
		"silentTimeout":    opts.SilentTimeout.Milliseconds(),
	}
	if opts.SkipDefaultHeaders != nil {
		init["skipDefaultHeaders"] = *opts.SkipDefaultHeaders
	}
	if opts.Method != "" {
		init["method"] = opts.Method
	}
	if opts.Body != "" {
		init["body"] = opts.Body
	}
	if len(opts.Headers) > 0 {
		h := make(map[string]any, len(opts.Headers))
		for k, v := range opts.Headers {
			h[k] = v
		}
		init["headers"] = h
	}
	return init
}

type jsEventSource struct {
	v     js.Value
	funcs []js.Func
}

func (e *jsEventSource) ReadyState() ReadyState {
	return ReadyState(e.v.Get("readyState").Int())
}

func (e *jsEventSource) AddEventListener(event string, fn func(*StreamEvent)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := &StreamEvent{Type: event}
		if len(args) > 0 {
			if d := args[0].Get("data"); d.Type() == js.TypeString {
				ev.Data = d.String()
			}
			if id := args[0].Get("lastEventId"); id.Type() == js.TypeString {
				ev.LastEventID = id.String()
			}
		}
		fn(ev)
		return nil
	})
	e.funcs = append(e.funcs, f)
	e.v.Call("addEventListener", event, f)
}

func (e *jsEventSource) Close() {
	e.v.Call("close")
	for _, f := range e.funcs {
		f.Release()
	}
	e.funcs = nil
}

type jsStorage struct {
	v js.Value
}

func (s jsStorage) GetItem(key string) (val string, ok bool, err error) {
	err = catch(func() {
		v := s.v.Call("getItem", key)
		if defined(v) {
			val, ok = v.String(), true
		}
	})
	return val, ok, err
}

func (s jsStorage) SetItem(key, value string) error {
	return catch(func() { s.v.Call("setItem", key, value) })
}

func (s jsStorage) RemoveItem(key string) error {
	return catch(func() { s.v.Call("removeItem", key) })
}

// jsTarget listeners stay registered for the page lifetime.
type jsTarget struct {
	v js.Value
}

func (t jsTarget) AddEventListener(event string, fn func()) {
	t.v.Call("addEventListener", event, js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	}))
}

type jsDocument struct {
	jsTarget
}

func (d jsDocument) ReadyState() string {
	return d.v.Get("readyState").String()
}

func (d jsDocument) VisibilityState() string {
	return d.v.Get("visibilityState").String()
}

type jsConsole struct {
	v js.Value
}

func (c jsConsole) Log(args ...any)   { c.v.Call("log", fmt.Sprint(args...)) }
func (c jsConsole) Warn(args ...any)  { c.v.Call("warn", fmt.Sprint(args...)) }
func (c jsConsole) Error(args ...any) { c.v.Call("error", fmt.Sprint(args...)) }
