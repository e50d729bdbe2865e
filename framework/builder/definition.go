package builder

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-registry/framework/container"
)

// Definition describes one container and, through Nested, its subtree.
//
//	namespace: filesystem
//	services:
//	  disk:
//	    class: instance
//	    options: {value: sda}
//	aliases:
//	  drive: disk
//	  sysdir: [system, folder]
//	initializers:
//	  - name: logger
//	    priority: 50
//	nested:
//	  system:
//	    services:
//	      folder: {class: options, options: {path: /usr}}
type Definition struct {
	Namespace    string                       `yaml:"namespace" mapstructure:"namespace" json:"namespace,omitempty"`
	Services     map[string]ServiceDefinition `yaml:"services" mapstructure:"services" json:"services,omitempty"`
	Aliases      map[string]any               `yaml:"aliases" mapstructure:"aliases" json:"aliases,omitempty"`
	Initializers []InitializerDefinition      `yaml:"initializers" mapstructure:"initializers" json:"initializers,omitempty"`
	Nested       map[string]*Definition       `yaml:"nested" mapstructure:"nested" json:"nested,omitempty"`
}

// ServiceDefinition picks a class from the Catalog and passes it options.
type ServiceDefinition struct {
	Class         string         `yaml:"class" mapstructure:"class" json:"class"`
	Options       map[string]any `yaml:"options" mapstructure:"options" json:"options,omitempty"`
	AllowOverride *bool          `yaml:"allow_override" mapstructure:"allow_override" json:"allow_override,omitempty"`
	AlwaysFresh   bool           `yaml:"always_fresh" mapstructure:"always_fresh" json:"always_fresh,omitempty"`
}

// InitializerDefinition names a Catalog initializer. A nil Priority uses the
// priority it was registered with.
type InitializerDefinition struct {
	Name     string `yaml:"name" mapstructure:"name" json:"name"`
	Priority *int   `yaml:"priority" mapstructure:"priority" json:"priority,omitempty"`
}

// Parse decodes a YAML (or JSON) definition document.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("builder: parse definition: %w", err)
	}
	return &def, nil
}

// aliasTarget decodes an alias value: a plain name, a [namespace, name] pair
// or a {namespace, name} mapping.
func aliasTarget(alias string, raw any) (container.AliasTarget, error) {
	switch v := raw.(type) {
	case string:
		return container.AliasTarget{Name: v}, nil
	case []any:
		if len(v) != 2 {
			break
		}
		ns, okNs := v[0].(string)
		name, okName := v[1].(string)
		if okNs && okName {
			return container.AliasTarget{Namespace: ns, Name: name}, nil
		}
	case []string:
		if len(v) == 2 {
			return container.AliasTarget{Namespace: v[0], Name: v[1]}, nil
		}
	case map[string]any:
		ns, _ := v["namespace"].(string)
		name, ok := v["name"].(string)
		if ok {
			return container.AliasTarget{Namespace: ns, Name: name}, nil
		}
	}
	return container.AliasTarget{}, fmt.Errorf("builder: %w: alias %q has unsupported target %v",
		container.ErrConfiguration, alias, raw)
}
