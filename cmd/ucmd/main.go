package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/unreal-mcp/ucmd/pkg/blueprint"
	"github.com/unreal-mcp/ucmd/pkg/config"
)

// Dispatcher
func main() {
	if err := config.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = success
//	1 = validation failed
//	2 = usage or runtime error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "types":
		return runTypesCmd(stdout)
	case "build":
		return runBuildCmd(args[2:], stdout, stderr)
	case "batch":
		return runBatchCmd(args[2:], stdout, stderr)
	case "validate":
		return runValidateCmd(args[2:], stdout, stderr)
	case "outbox":
		return runOutboxCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "USAGE:")
	_, _ = fmt.Fprintln(w, "  ucmd <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "COMMANDS:")
	printCommand(w, "types", "List declared command types")
	printCommand(w, "build", "Build one command (-type T -p key=value ...)")
	printCommand(w, "batch", "Run a YAML batch script (-file, -outbox, -strict)")
	printCommand(w, "validate", "Check a batch script without enqueuing (-file)")
	printCommand(w, "outbox", "List or acknowledge queued payloads (-db, -limit, -mark-sent)")
	printCommand(w, "help", "Show this help")
}

func printCommand(w io.Writer, name, desc string) {
	_, _ = fmt.Fprintf(w, "  %-10s %s\n", name, desc)
}

func runTypesCmd(stdout io.Writer) int {
	for _, k := range blueprint.Kinds() {
		_, _ = fmt.Fprintf(stdout, "%-28s %-24s required=%s", k.Type, k.Name, strings.Join(k.Required, ","))
		if len(k.Optional) > 0 {
			_, _ = fmt.Fprintf(stdout, " optional=%s", strings.Join(k.Optional, ","))
		}
		_, _ = fmt.Fprintln(stdout)
	}
	return 0
}

// loadConfig reads the environment and applies the optional YAML overlay.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Load()
	if path == "" {
		return cfg, nil
	}
	return config.LoadFile(cfg, path)
}
