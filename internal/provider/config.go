// Package provider discovers configured tool providers and connects to
// them concurrently, isolating providers that hang, refuse or misbehave.
package provider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ServersKey is the top-level key holding the provider definitions.
const ServersKey = "mcpServers"

// Kind is how a provider is reached.
type Kind string

const (
	KindStdio Kind = "stdio"
	KindHTTP  Kind = "streamable_http"
)

// Definition describes one provider as configured.
type Definition struct {
	Name    string            `json:"name"`
	Kind    Kind              `json:"kind"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

// Environ returns Env as sorted KEY=VALUE pairs.
func (d Definition) Environ() []string {
	out := make([]string, 0, len(d.Env))
	for k, v := range d.Env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Target is the command line or URL, for logs.
func (d Definition) Target() string {
	if d.Kind == KindHTTP {
		return d.URL
	}
	return strings.TrimSpace(d.Command + " " + strings.Join(d.Args, " "))
}

// Config is a parsed provider configuration document.
type Config struct {
	Path      string
	providers []Definition
}

// Providers returns the definitions in document order.
func (c *Config) Providers() []Definition {
	out := make([]Definition, len(c.providers))
	copy(out, c.providers)
	return out
}

// ConfigError reports a configuration document that cannot be used.
// It is fatal at startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// rawDefinition is a definition as written in the document.
type rawDefinition struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args" yaml:"args"`
	Env     map[string]string `json:"env" yaml:"env"`
	Type    string            `json:"type" yaml:"type"`
	URL     string            `json:"url" yaml:"url"`
}

// LoadConfig reads the provider document at path. Files ending in .yaml
// or .yml are parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var defs []Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		defs, err = parseYAML(data)
	default:
		defs, err = parseJSON(data)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &Config{Path: path, providers: defs}, nil
}

func parseJSON(data []byte) ([]Definition, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("top level is not an object")
	}
	servers := root.Get(ServersKey)
	if !servers.Exists() {
		return nil, fmt.Errorf("%q key not found", ServersKey)
	}
	if !servers.IsObject() {
		return nil, fmt.Errorf("%q is not an object", ServersKey)
	}

	var defs []Definition
	var perr error
	servers.ForEach(func(key, value gjson.Result) bool {
		var raw rawDefinition
		if err := json.Unmarshal([]byte(value.Raw), &raw); err != nil {
			perr = fmt.Errorf("provider %q: %w", key.String(), err)
			return false
		}
		d, err := raw.definition(key.String())
		if err != nil {
			perr = err
			return false
		}
		defs = append(defs, d)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return defs, nil
}

func parseYAML(data []byte) ([]Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("top level is not a mapping")
	}

	top := doc.Content[0]
	var servers *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == ServersKey {
			servers = top.Content[i+1]
			break
		}
	}
	if servers == nil {
		return nil, fmt.Errorf("%q key not found", ServersKey)
	}
	if servers.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%q is not a mapping", ServersKey)
	}

	defs := make([]Definition, 0, len(servers.Content)/2)
	for i := 0; i+1 < len(servers.Content); i += 2 {
		name := servers.Content[i].Value
		var raw rawDefinition
		if err := servers.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		d, err := raw.definition(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// definition resolves the transport. A network provider is written either
// as type streamable_http (or http) with url or args[0], or with the
// command streamable_http and the URL in args[0].
func (r rawDefinition) definition(name string) (Definition, error) {
	if name == "" {
		return Definition{}, errors.New("provider with empty name")
	}
	d := Definition{Name: name, Args: r.Args, Env: r.Env}

	typ := strings.ToLower(r.Type)
	if typ == "streamable_http" || typ == "http" || r.Command == string(KindHTTP) {
		d.Kind = KindHTTP
		d.URL = r.URL
		if d.URL == "" && len(r.Args) > 0 {
			d.URL = r.Args[0]
		}
		if d.URL == "" {
			return Definition{}, fmt.Errorf("provider %q: streamable_http needs a url", name)
		}
		d.Args = nil
		return d, nil
	}

	if typ != "" && typ != string(KindStdio) {
		return Definition{}, fmt.Errorf("provider %q: unknown type %q", name, r.Type)
	}
	if r.Command == "" {
		return Definition{}, fmt.Errorf("provider %q: command is required", name)
	}
	d.Kind = KindStdio
	d.Command = r.Command
	return d, nil
}
