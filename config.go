package tinyflag

// Config holds the configuration for TinyFlag.
type Config struct {
	// Core is the shared client core. Required.
	Core Core

	// Env is the host environment. When nil the default host for the build
	// target is used: the browser under wasm, NativeEnv otherwise.
	Env *Env

	// GoalManager builds the page goal tracker. When nil, goals are reported
	// ready as soon as the client is initialized.
	GoalManager GoalManagerFactory

	// Log receives debug output.
	Log func(args ...any)
}
