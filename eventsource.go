package tinyflag

import "time"

// DefaultStreamTimeout replaces the short heartbeat and idle timeouts some
// polyfills ship with.
const DefaultStreamTimeout = 300000 * time.Millisecond

func (p *Platform) setupEventSource() {
	es := p.env.EventSource
	if es == nil || es.New == nil {
		return
	}

	class := es
	if p.opts.UseReport && supportsMethod(p.env.EventSourcePolyfill) {
		class = p.env.EventSourcePolyfill
		p.EventSourceAllowsReport = true
	}

	p.EventSourceFactory = func(url string, opts EventSourceOptions) EventSource {
		return class.New(url, withStreamDefaults(opts))
	}
	p.EventSourceIsActive = func(conn EventSource) (active bool) {
		if conn == nil {
			return false
		}
		// A typed-nil or released handle panics on access; report it inactive.
		defer func() {
			if recover() != nil {
				active = false
			}
		}()
		state := conn.ReadyState()
		return state == es.Open || state == es.Connecting
	}
}

func supportsMethod(c *EventSourceClass) bool {
	return c != nil && c.New != nil && c.SupportedOptions["method"]
}

// withStreamDefaults merges caller options over the platform defaults.
func withStreamDefaults(opts EventSourceOptions) EventSourceOptions {
	if opts.HeartbeatTimeout == 0 {
		opts.HeartbeatTimeout = DefaultStreamTimeout
	}
	if opts.SilentTimeout == 0 {
		opts.SilentTimeout = DefaultStreamTimeout
	}
	if opts.SkipDefaultHeaders == nil {
		skip := true
		opts.SkipDefaultHeaders = &skip
	}
	return opts
}
