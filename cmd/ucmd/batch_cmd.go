package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/unreal-mcp/ucmd/pkg/batch"
	"github.com/unreal-mcp/ucmd/pkg/command"
	"github.com/unreal-mcp/ucmd/pkg/config"
	"github.com/unreal-mcp/ucmd/pkg/outbox"
)

// runBatchCmd implements `ucmd batch`.
//
// Builds every command of a script and enqueues the successful ones when an
// outbox is configured.
//
// Exit codes:
//
//	0 = every command built
//	1 = at least one command failed
//	2 = usage or runtime error
func runBatchCmd(args []string, stdout, stderr io.Writer) int {
	return runScriptCmd("batch", args, true, stdout, stderr)
}

// runValidateCmd implements `ucmd validate`: a batch run that never touches
// the outbox.
func runValidateCmd(args []string, stdout, stderr io.Writer) int {
	return runScriptCmd("validate", args, false, stdout, stderr)
}

func runScriptCmd(name string, args []string, enqueue bool, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file       string
		configPath string
		outboxPath string
		strict     bool
		jsonOutput bool
	)

	cmd.StringVar(&file, "file", "", "Path to the YAML batch script (REQUIRED)")
	cmd.StringVar(&configPath, "config", "", "YAML config file")
	cmd.BoolVar(&strict, "strict", false, "Treat warnings as failures")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	if enqueue {
		cmd.StringVar(&outboxPath, "outbox", "", "SQLite outbox database (default $UCMD_OUTBOX)")
	}

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -file is required")
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if strict {
		cfg.Strict = true
	}
	if outboxPath != "" {
		cfg.OutboxPath = outboxPath
	}

	script, err := batch.Load(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	opts, err := runnerOptions(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	if enqueue && cfg.OutboxPath != "" {
		store, closeStore, err := openOutbox(ctx, cfg.OutboxPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer closeStore()
		opts = append(opts, batch.WithOutbox(store))
	}

	rep, err := batch.NewRunner(opts...).Run(ctx, script)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if jsonOutput {
		if err := writeReportJSON(stdout, rep); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	} else {
		writeReport(stdout, rep)
	}

	if !rep.OK() {
		return 1
	}
	return 0
}

func runnerOptions(cfg *config.Config, stderr io.Writer) ([]batch.Option, error) {
	v, err := newValidator(cfg.SchemaCheck)
	if err != nil {
		return nil, err
	}
	opts := []batch.Option{
		batch.WithLogger(config.NewLogger(cfg, stderr)),
		batch.WithStrict(cfg.Strict),
	}
	if v != nil {
		opts = append(opts, batch.WithValidator(v))
	}
	return opts, nil
}

func openOutbox(ctx context.Context, path string) (*outbox.Store, func(), error) {
	db, err := outbox.Open(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := outbox.New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func writeReport(w io.Writer, rep *batch.Report) {
	for _, res := range rep.Results {
		if !res.OK() {
			_, _ = fmt.Fprintf(w, "FAIL #%d %s (line %d): %v\n", res.Index, res.Type, res.Line, res.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   #%d %s %s\n", res.Index, res.Type, res.Fingerprint)
		for _, warn := range res.Warnings {
			_, _ = fmt.Fprintf(w, "     warning: %s\n", warn)
		}
	}
	_, _ = fmt.Fprintf(w, "run %s: %d commands, %d failed\n", rep.RunID, len(rep.Results), len(rep.Failed()))
}

type jsonResult struct {
	Index       int               `json:"index"`
	Line        int               `json:"line"`
	Type        command.Type      `json:"type"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Enqueued    bool              `json:"enqueued"`
	Payload     *command.Command  `json:"payload,omitempty"`
	Warnings    []command.Warning `json:"warnings,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type jsonReport struct {
	RunID   string       `json:"run_id"`
	Script  string       `json:"script,omitempty"`
	OK      bool         `json:"ok"`
	Results []jsonResult `json:"results"`
}

func writeReportJSON(w io.Writer, rep *batch.Report) error {
	out := jsonReport{RunID: rep.RunID, Script: rep.Script, OK: rep.OK()}
	for _, res := range rep.Results {
		jr := jsonResult{
			Index:       res.Index,
			Line:        res.Line,
			Type:        res.Type,
			Fingerprint: res.Fingerprint,
			Enqueued:    res.Enqueued,
			Payload:     res.Command,
			Warnings:    res.Warnings,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		out.Results = append(out.Results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
