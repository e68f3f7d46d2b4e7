package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/unreal-mcp/ucmd/pkg/batch"
	"github.com/unreal-mcp/ucmd/pkg/command"
	"github.com/unreal-mcp/ucmd/pkg/schema"
)

// paramFlags collects repeated -p key=value flags in order.
type paramFlags struct {
	params *command.Params
}

func (f *paramFlags) String() string {
	if f.params == nil {
		return ""
	}
	b, _ := f.params.MarshalJSON()
	return string(b)
}

// Set parses key=value. A value that is valid JSON is used as JSON,
// anything else as a plain string.
func (f *paramFlags) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if f.params == nil {
		f.params = command.NewParams()
	}
	return f.params.Set(key, parseValue(raw))
}

func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return raw
	}
	return v
}

// runBuildCmd implements `ucmd build`.
func runBuildCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("build", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		wireType   string
		configPath string
		canonical  bool
		params     paramFlags
	)

	cmd.StringVar(&wireType, "type", "", "Wire type of the command (REQUIRED)")
	cmd.StringVar(&configPath, "config", "", "YAML config file")
	cmd.BoolVar(&canonical, "canonical", false, "Print the canonical form and fingerprint")
	cmd.Var(&params, "p", "Parameter as key=value (repeatable)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if wireType == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -type is required")
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	opts, err := runnerOptions(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	script := &batch.Script{Entries: []batch.Entry{{Type: command.Type(wireType), Params: params.params}}}
	rep, err := batch.NewRunner(opts...).Run(context.Background(), script)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	res := rep.Results[0]
	for _, w := range res.Warnings {
		_, _ = fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	if !res.OK() {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", res.Err)
		return 1
	}

	if canonical {
		b, err := res.Command.Canonical()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintln(stdout, string(b))
		_, _ = fmt.Fprintln(stdout, res.Fingerprint)
		return 0
	}

	out, err := res.Command.JSON()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintln(stdout, out)
	return 0
}

func newValidator(enabled bool) (*schema.Validator, error) {
	if !enabled {
		return nil, nil
	}
	return schema.New()
}
