package tinyflag

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	sdkName      = "go-wasm-client-sdk"
	platformName = "WASM"
	userAgent    = "GoWASMClient"
)

// Platform is the capability descriptor handed to the core. Function fields
// are nil when the host lacks the matching API.
type Platform struct {
	env  *Env
	opts *Options

	HTTPStrategy HTTPStrategy
	HTTPRequest  func(ctx context.Context, r *Request) (*Response, error)

	// HTTPFallbackPing fires a best-effort GET through an image load.
	HTTPFallbackPing func(url string)

	EventSourceFactory      func(url string, opts EventSourceOptions) EventSource
	EventSourceIsActive     func(es EventSource) bool
	EventSourceAllowsReport bool

	LocalStorage  *LocalStorage
	StorageStatus StorageStatus

	UserAgent                  string
	Version                    string
	DiagnosticSDKData          SDKData
	DiagnosticPlatformData     PlatformData
	DiagnosticUseCombinedEvent bool

	syncFlush atomic.Bool

	corsOnce sync.Once
	cors     bool
}

// NewPlatform probes env and builds the descriptor. opts may be nil.
func NewPlatform(env *Env, opts *Options) *Platform {
	if env == nil {
		env = &Env{}
	}
	if opts == nil {
		opts = &Options{}
	}
	p := &Platform{
		env:                        env,
		opts:                       opts,
		UserAgent:                  userAgent,
		Version:                    Version,
		DiagnosticSDKData:          SDKData{Name: sdkName, Version: Version},
		DiagnosticPlatformData:     PlatformData{Name: platformName},
		DiagnosticUseCombinedEvent: true,
	}

	p.setupHTTP()

	if env.Image != nil {
		img := env.Image
		p.HTTPFallbackPing = func(url string) { img(url) }
	}

	p.setupEventSource()
	p.setupStorage()
	return p
}

func (p *Platform) setupHTTP() {
	switch {
	case p.env.XMLHttpRequest != nil:
		newXHR := p.env.XMLHttpRequest
		disableSync := p.opts.DisableSyncEventPost
		p.HTTPStrategy = HTTPLegacy
		p.HTTPRequest = func(ctx context.Context, r *Request) (*Response, error) {
			synchronous := p.syncFlush.Load() && !disableSync
			return newXHR().Do(ctx, r, synchronous)
		}
	case p.env.Fetch != nil:
		fetch := p.env.Fetch
		p.HTTPStrategy = HTTPFetch
		p.HTTPRequest = func(ctx context.Context, r *Request) (*Response, error) {
			res, err := fetch(ctx, r)
			if err != nil {
				return nil, err
			}
			return adaptFetchResponse(res)
		}
	default:
		p.HTTPStrategy = HTTPUnavailable
	}
}

func adaptFetchResponse(res FetchResponse) (*Response, error) {
	body, err := res.Text()
	if err != nil {
		return nil, err
	}
	return NewResponse(res.Status(), body, res.Header), nil
}

// HTTPAllowsPost reports whether cross-origin POSTs are possible. The probe
// runs on first call so stubs installed after construction are seen. A
// legacy request object decides through withCredentials; fetch always can.
func (p *Platform) HTTPAllowsPost() bool {
	p.corsOnce.Do(func() {
		switch {
		case p.env.XMLHttpRequest != nil:
			p.cors = p.env.XMLHttpRequest().WithCredentials()
		case p.env.Fetch != nil:
			p.cors = true
		}
	})
	return p.cors
}

// SetSynchronousFlush asks legacy requests to be sent synchronously until
// the flag is cleared again.
func (p *Platform) SetSynchronousFlush(v bool) {
	p.syncFlush.Store(v)
}

// flushesSynchronously reports whether a request issued with the flag raised
// completes without yielding to the host event loop.
func (p *Platform) flushesSynchronously() bool {
	return p.HTTPStrategy == HTTPLegacy && !p.opts.DisableSyncEventPost
}

// SynchronousFlush reports the current flag value.
func (p *Platform) SynchronousFlush() bool {
	return p.syncFlush.Load()
}

// GetCurrentURL returns the page URL passed through EventURLTransformer.
func (p *Platform) GetCurrentURL() (string, bool) {
	if p.env.Location == nil {
		return "", false
	}
	href := p.env.Location()
	if t := p.opts.EventURLTransformer; t != nil {
		return t(href), true
	}
	return href, true
}

// IsDoNotTrack checks navigator.doNotTrack, navigator.msDoNotTrack and the
// global doNotTrack, in that order.
func (p *Platform) IsDoNotTrack() bool {
	var flag any
	nav := p.env.Navigator
	switch {
	case nav != nil && nav.DoNotTrack != nil:
		flag = nav.DoNotTrack
	case nav != nil && nav.MsDoNotTrack != nil:
		flag = nav.MsDoNotTrack
	default:
		flag = p.env.DoNotTrack
	}
	return doNotTrackEnabled(flag)
}

func doNotTrackEnabled(flag any) bool {
	switch v := flag.(type) {
	case bool:
		return v
	case int:
		return v == 1
	case int64:
		return v == 1
	case float64:
		return v == 1
	case string:
		return v == "1" || v == "yes"
	default:
		return false
	}
}
