// Package tinyflag adapts a browser (or native) host to a feature-flag client
// core. It probes the host for HTTP, streaming, storage, Do-Not-Track and page
// lifecycle support and hands the core a Platform describing what it found.
package tinyflag

import "sync"

// Version of the SDK reported in diagnostics.
const Version = "0.3.0"

// TinyFlag is the main struct for the library.
type TinyFlag struct {
	config   *Config
	env      *Env
	warnOnce sync.Once
}

// New initializes a new TinyFlag instance.
func New(c *Config) *TinyFlag {
	if c == nil {
		c = &Config{}
	}
	env := c.Env
	if env == nil {
		env = defaultEnv()
	}
	return &TinyFlag{
		config: c,
		env:    env,
	}
}

// Env returns the host environment in use.
func (t *TinyFlag) Env() *Env {
	return t.env
}

func (t *TinyFlag) log(args ...any) {
	if t.config.Log != nil {
		t.config.Log(args...)
	}
}
