package tinyflag

import (
	"github.com/cdvelop/tinystring"
)

// ErrNoCore is returned by Initialize when Config.Core is nil.
var ErrNoCore error = tinystring.Err("tinyflag: no core configured")

// HTTPStrategy is the transport the platform installed.
type HTTPStrategy uint8

const (
	HTTPUnavailable HTTPStrategy = iota
	HTTPLegacy
	HTTPFetch
)

func (s HTTPStrategy) String() string {
	switch s {
	case HTTPLegacy:
		return "xhr"
	case HTTPFetch:
		return "fetch"
	default:
		return "unavailable"
	}
}

// StorageStatus tells apart "no storage" from "storage exists but is off".
type StorageStatus uint8

const (
	// StorageAbsent: the host has no storage API.
	StorageAbsent StorageStatus = iota
	StorageAvailable
	// StorageDisabled: touching the storage API failed.
	StorageDisabled
)

func (s StorageStatus) String() string {
	switch s {
	case StorageAvailable:
		return "available"
	case StorageDisabled:
		return "disabled"
	default:
		return "absent"
	}
}

// SDKData identifies the SDK in diagnostic events.
type SDKData struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PlatformData identifies the platform in diagnostic events.
type PlatformData struct {
	Name string `json:"name"`
}

// User is the evaluation context handed to the core untouched.
type User map[string]any
