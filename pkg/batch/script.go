// Package batch loads command scripts from YAML and runs them through the
// build pipeline: decode, validate, schema check and outbox.
//
// A script looks like:
//
//	name: door
//	commands:
//	  - type: create_blueprint
//	    params:
//	      name: BP_Door
//	      parent_class: /Script/Engine.Actor
//	  - type: compile_blueprint
//	    params: {blueprint_name: BP_Door}
package batch

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// ErrInvalidScript is returned for documents that are not a command script.
var ErrInvalidScript = errors.New("invalid batch script")

// Entry is one command of a script.
type Entry struct {
	Index int
	Line  int
	Type  command.Type
	// Params is a *command.Params when the file holds a string-keyed
	// mapping (in file order), nil when absent, and the raw decoded value
	// otherwise so the build can report it.
	Params any
}

// Script is a parsed batch file.
type Script struct {
	Name    string
	Entries []Entry
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("batch: %s: %w", path, err)
	}
	return s, nil
}

// Parse parses a YAML script.
func Parse(data []byte) (*Script, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidScript)
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping", ErrInvalidScript, root.Line)
	}

	s := &Script{}
	var commands *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], resolve(root.Content[i+1])
		switch key.Value {
		case "name":
			if err := val.Decode(&s.Name); err != nil {
				return nil, fmt.Errorf("%w: line %d: name: %v", ErrInvalidScript, val.Line, err)
			}
		case "commands":
			commands = val
		default:
			return nil, fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidScript, key.Line, key.Value)
		}
	}
	if commands == nil {
		return nil, fmt.Errorf("%w: missing commands", ErrInvalidScript)
	}
	if commands.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: commands must be a list", ErrInvalidScript, commands.Line)
	}

	for i, item := range commands.Content {
		e, err := parseEntry(i, resolve(item))
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

func parseEntry(index int, n *yaml.Node) (Entry, error) {
	e := Entry{Index: index, Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return e, fmt.Errorf("%w: line %d: command %d must be a mapping", ErrInvalidScript, n.Line, index)
	}
	var params *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], resolve(n.Content[i+1])
		switch key.Value {
		case "type":
			if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
				return e, fmt.Errorf("%w: line %d: command %d: type must be a string", ErrInvalidScript, val.Line, index)
			}
			e.Type = command.Type(val.Value)
		case "params":
			params = val
		default:
			return e, fmt.Errorf("%w: line %d: command %d: unknown key %q", ErrInvalidScript, key.Line, index, key.Value)
		}
	}
	if e.Type == "" {
		return e, fmt.Errorf("%w: line %d: command %d: missing type", ErrInvalidScript, n.Line, index)
	}
	p, err := paramsValue(params)
	if err != nil {
		return e, fmt.Errorf("%w: line %d: command %d: %v", ErrInvalidScript, params.Line, index, err)
	}
	e.Params = p
	return e, nil
}

// paramsValue keeps the key order of a string-keyed mapping. Anything else
// is decoded as-is.
func paramsValue(n *yaml.Node) (any, error) {
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind == yaml.MappingNode && stringKeys(n) {
		p := command.NewParams()
		ok := true
		for i := 0; i+1 < len(n.Content); i += 2 {
			var v any
			if err := n.Content[i+1].Decode(&v); err != nil {
				return nil, err
			}
			if err := p.Set(n.Content[i].Value, v); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return p, nil
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func stringKeys(n *yaml.Node) bool {
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode || k.Tag != "!!str" {
			return false
		}
	}
	return true
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
