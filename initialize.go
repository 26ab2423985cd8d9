package tinyflag

import (
	"context"

	"github.com/cdvelop/tinystring"
)

// GoalsReadyEvent is emitted once the goal manager has loaded its goals.
const GoalsReadyEvent = "goalsReady"

const deprecatedDefaultWarning = "[tinyflag] the default initializer is deprecated and will be removed; use Initialize instead"

// Core is the shared client core this platform plugs into.
type Core interface {
	Initialize(envID string, user User, opts *Options, p *Platform, schema OptionSchema) (*CoreResult, error)
}

// CoreClient is the client handle built by the core.
type CoreClient interface {
	Flush(ctx context.Context) error
	Start()
}

// CoreResult is what Core.Initialize returns. Options are the validated
// options; when nil the caller options are used.
type CoreResult struct {
	Client  CoreClient
	Options *Options
	Emitter Emitter
}

// GoalManagerFactory starts goal tracking for client and calls onReady once
// goals are loaded.
type GoalManagerFactory func(client CoreClient, onReady func())

// Client is the handle returned by Initialize.
type Client struct {
	CoreClient

	Platform *Platform
	Options  *Options

	goalsReady *Future[struct{}]
}

// WaitUntilGoalsReady blocks until goals are ready or ctx ends. It returns
// immediately for callers arriving after the fact.
func (c *Client) WaitUntilGoalsReady(ctx context.Context) error {
	_, err := c.goalsReady.Wait(ctx)
	return err
}

// GoalsReady is closed once goals are ready.
func (c *Client) GoalsReady() <-chan struct{} {
	return c.goalsReady.Done()
}

// Initialize builds the platform, hands it to the core and wires goal
// readiness, start sequencing and the page-hide flush.
func (t *TinyFlag) Initialize(envID string, user User, opts *Options) (*Client, error) {
	core := t.config.Core
	if core == nil {
		return nil, ErrNoCore
	}
	if opts == nil {
		opts = &Options{}
	}

	schema := BrowserOptionSchema()
	p := NewPlatform(t.env, opts)
	t.log("platform http:", p.HTTPStrategy, "storage:", p.StorageStatus, "streaming:", p.EventSourceFactory != nil)

	res, err := core.Initialize(envID, user, opts, p, schema)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Client == nil {
		return nil, tinystring.Err("tinyflag: core returned no client")
	}
	validated := res.Options
	if validated == nil {
		validated = opts
	}
	validated.ApplyDefaults(schema)

	c := &Client{
		CoreClient: res.Client,
		Platform:   p,
		Options:    validated,
		goalsReady: NewFuture[struct{}](),
	}

	em := res.Emitter
	if em == nil {
		em = NewEmitter()
	}
	var id ListenerID
	id = em.On(GoalsReadyEvent, func(...any) {
		c.goalsReady.Resolve(struct{}{})
		em.Off(GoalsReadyEvent, id)
	})

	doc := t.env.Document
	if validated.GoalsEnabled() && doc != nil && t.config.GoalManager != nil {
		t.config.GoalManager(res.Client, func() { em.Emit(GoalsReadyEvent) })
	} else {
		em.Emit(GoalsReadyEvent)
	}

	t.sequenceStart(res.Client)
	t.watchPageHide(c)
	return c, nil
}

// InitializeDefault behaves like Initialize and warns once per instance.
//
// Deprecated: use Initialize.
func (t *TinyFlag) InitializeDefault(envID string, user User, opts *Options) (*Client, error) {
	t.warnOnce.Do(func() {
		if t.env.Console != nil {
			t.env.Console.Warn(deprecatedDefaultWarning)
			return
		}
		t.log(deprecatedDefaultWarning)
	})
	return t.Initialize(envID, user, opts)
}

func (t *TinyFlag) sequenceStart(client CoreClient) {
	doc, win := t.env.Document, t.env.Window
	if doc != nil && win != nil && doc.ReadyState() != "complete" {
		win.AddEventListener("load", func() { go client.Start() })
		return
	}
	client.Start()
}

// watchPageHide registers both visibilitychange and pagehide; browsers
// disagree on which of the two fires reliably.
func (t *TinyFlag) watchPageHide(c *Client) {
	if doc := t.env.Document; doc != nil {
		doc.AddEventListener("visibilitychange", func() {
			if doc.VisibilityState() == "hidden" {
				c.flushSync()
			}
		})
	}
	if win := t.env.Window; win != nil {
		win.AddEventListener("pagehide", c.flushSync)
	}
}

// flushSync flushes with the synchronous flag raised when the transport can
// finish inside the host callback. Any other transport needs the event loop
// to make progress, so the flush runs on its own goroutine. Flush errors are
// dropped: the page is unloading.
func (c *Client) flushSync() {
	if !c.Platform.flushesSynchronously() {
		go func() { _ = c.CoreClient.Flush(context.Background()) }()
		return
	}
	c.Platform.SetSynchronousFlush(true)
	defer c.Platform.SetSynchronousFlush(false)
	_ = c.CoreClient.Flush(context.Background())
}
