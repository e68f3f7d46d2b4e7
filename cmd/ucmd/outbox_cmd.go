package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/unreal-mcp/ucmd/pkg/config"
	"github.com/unreal-mcp/ucmd/pkg/outbox"
)

// runOutboxCmd implements `ucmd outbox`: lists pending payloads, or marks
// one as sent.
func runOutboxCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("outbox", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		dbPath   string
		limit    int
		markSent string
	)

	cmd.StringVar(&dbPath, "db", "", "SQLite outbox database (default $UCMD_OUTBOX)")
	cmd.IntVar(&limit, "limit", 100, "Maximum number of pending payloads to list")
	cmd.StringVar(&markSent, "mark-sent", "", "Fingerprint of a payload handed to the transport")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if dbPath == "" {
		dbPath = config.Load().OutboxPath
	}
	if dbPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -db is required")
		return 2
	}

	ctx := context.Background()
	store, closeStore, err := openOutbox(ctx, dbPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeStore()

	if markSent != "" {
		if err := store.MarkSent(ctx, markSent); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			if errors.Is(err, outbox.ErrNotFound) {
				return 1
			}
			return 2
		}
		_, _ = fmt.Fprintf(stdout, "marked %s as sent\n", markSent)
		return 0
	}

	pending, err := store.Pending(ctx, limit)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	for _, rec := range pending {
		_, _ = fmt.Fprintf(stdout, "%s %s %s\n", rec.Fingerprint, rec.Type, compactJSON(rec.Payload))
	}
	return 0
}

// compactJSON is used for payloads read back from storage.
func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
