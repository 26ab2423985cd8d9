package tinyflag

import (
	"io"

	"github.com/cdvelop/tinystring"
	"gopkg.in/yaml.v3"
)

// Options are the caller options. The browser-specific ones are typed;
// everything else is kept in Extra for the core to validate.
type Options struct {
	FetchGoals *bool  `yaml:"fetchGoals,omitempty"`
	Hash       string `yaml:"hash,omitempty"`

	// EventProcessor replaces the core event processor. Tests only.
	EventProcessor any `yaml:"-"`

	// EventURLTransformer rewrites the page URL reported in events.
	EventURLTransformer func(url string) string `yaml:"-"`

	DisableSyncEventPost bool `yaml:"disableSyncEventPost,omitempty"`

	// UseReport asks for REPORT streaming requests when the host can do it.
	UseReport bool `yaml:"useReport,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// GoalsEnabled reports the effective fetchGoals value.
func (o *Options) GoalsEnabled() bool {
	if o == nil || o.FetchGoals == nil {
		return true
	}
	return *o.FetchGoals
}

// ApplyDefaults fills unset options from the schema defaults.
func (o *Options) ApplyDefaults(s OptionSchema) {
	if o == nil {
		return
	}
	if o.FetchGoals == nil {
		if def, ok := s.Lookup("fetchGoals"); ok {
			if v, ok := def.Default.(bool); ok {
				o.FetchGoals = &v
			}
		}
	}
	if !o.DisableSyncEventPost {
		if def, ok := s.Lookup("disableSyncEventPost"); ok {
			if v, ok := def.Default.(bool); ok {
				o.DisableSyncEventPost = v
			}
		}
	}
}

// LoadOptions decodes options from YAML.
func LoadOptions(r io.Reader) (*Options, error) {
	o := &Options{}
	if err := yaml.NewDecoder(r).Decode(o); err != nil && err != io.EOF {
		return nil, tinystring.Errf("tinyflag: decode options: %v", err)
	}
	return o, nil
}

// OptionKind is the type a recognized option must have.
type OptionKind uint8

const (
	OptionBool OptionKind = iota
	OptionString
	OptionObject
	OptionFunc
)

func (k OptionKind) String() string {
	switch k {
	case OptionBool:
		return "boolean"
	case OptionString:
		return "string"
	case OptionObject:
		return "object"
	default:
		return "function"
	}
}

// OptionDef declares one option the core should accept.
type OptionDef struct {
	Name    string
	Kind    OptionKind
	Default any
}

// OptionSchema is the list of option extensions handed to the core.
type OptionSchema []OptionDef

// Lookup finds the definition for name.
func (s OptionSchema) Lookup(name string) (OptionDef, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return OptionDef{}, false
}

// BrowserOptionSchema declares the options this platform adds.
func BrowserOptionSchema() OptionSchema {
	return OptionSchema{
		{Name: "fetchGoals", Kind: OptionBool, Default: true},
		{Name: "hash", Kind: OptionString},
		{Name: "eventProcessor", Kind: OptionObject},
		{Name: "eventUrlTransformer", Kind: OptionFunc},
		{Name: "disableSyncEventPost", Kind: OptionBool, Default: false},
	}
}
