package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/unreal-mcp/ucmd/pkg/blueprint"
	"github.com/unreal-mcp/ucmd/pkg/command"
	"github.com/unreal-mcp/ucmd/pkg/outbox"
	"github.com/unreal-mcp/ucmd/pkg/schema"
)

// ErrWarningsAsErrors marks entries rejected in strict mode.
var ErrWarningsAsErrors = errors.New("warnings treated as errors")

// Result is the outcome of one entry.
type Result struct {
	Index    int
	Line     int
	Type     command.Type
	Command  *command.Command
	Warnings []command.Warning
	Err      error

	Fingerprint string
	// Enqueued is false when the outbox already held the payload.
	Enqueued bool
}

// OK reports whether the entry built and passed every check.
func (r Result) OK() bool { return r.Err == nil }

// Report collects the results of one run.
type Report struct {
	RunID   string
	Script  string
	Results []Result
}

// OK reports whether every entry succeeded.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the entries that did not succeed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Runner executes scripts.
type Runner struct {
	validator *schema.Validator
	store     *outbox.Store
	strict    bool
	logger    *slog.Logger
	newRunID  func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithValidator enables schema checks for declared wire types.
func WithValidator(v *schema.Validator) Option {
	return func(r *Runner) { r.validator = v }
}

// WithOutbox enqueues every successful command.
func WithOutbox(s *outbox.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithStrict rejects commands that produced warnings.
func WithStrict(strict bool) Option {
	return func(r *Runner) { r.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l.With("component", "batch") }
}

// WithRunID overrides run ID generation.
func WithRunID(fn func() string) Option {
	return func(r *Runner) { r.newRunID = fn }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:   slog.Default().With("component", "batch"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every entry of s in order. Per-entry failures are reported
// in the Report; the returned error is reserved for context cancellation and
// outbox failures, which stop the run.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	rep := &Report{RunID: r.newRunID(), Script: s.Name}
	log := r.logger.With("run_id", rep.RunID)

	for _, e := range s.Entries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.runEntry(ctx, log, rep.RunID, e)
		if err != nil {
			return rep, err
		}
		rep.Results = append(rep.Results, res)
	}

	log.InfoContext(ctx, "batch finished",
		"script", s.Name,
		"commands", len(rep.Results),
		"failed", len(rep.Failed()),
	)
	return rep, nil
}

func (r *Runner) runEntry(ctx context.Context, log *slog.Logger, runID string, e Entry) (Result, error) {
	res := Result{Index: e.Index, Line: e.Line, Type: e.Type}

	variant, err := decodeEntry(e)
	if err != nil {
		res.Err = err
		log.ErrorContext(ctx, "command rejected", "index", e.Index, "type", e.Type, "error", err)
		return res, nil
	}

	cmd, warnings, err := command.Build(variant)
	if err != nil {
		res.Err = err
		log.ErrorContext(ctx, "command rejected", "index", e.Index, "type", e.Type, "error", err)
		return res, nil
	}
	log.DebugContext(ctx, "command built", "index", e.Index, "type", cmd.Type(), "params", cmd.Params().Keys())
	res.Warnings = warnings
	for _, w := range warnings {
		log.WarnContext(ctx, "command warning",
			"index", e.Index,
			"type", cmd.Type(),
			"field", w.Field,
			"code", w.Code,
			"message", w.Message,
		)
	}

	if r.strict && len(warnings) > 0 {
		res.Err = fmt.Errorf("%w: %w", ErrWarningsAsErrors, warningsError(cmd.Name(), warnings))
		return res, nil
	}

	if r.validator != nil && r.validator.Has(cmd.Type()) {
		if err := r.validator.ValidateCommand(cmd); err != nil {
			res.Err = err
			log.ErrorContext(ctx, "schema check failed", "index", e.Index, "type", cmd.Type(), "error", err)
			return res, nil
		}
	}
	res.Command = cmd

	fp, err := cmd.Fingerprint()
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Fingerprint = fp

	if r.store != nil {
		_, inserted, err := r.store.Enqueue(ctx, runID, cmd)
		if err != nil {
			return res, err
		}
		res.Enqueued = inserted
		if !inserted {
			log.DebugContext(ctx, "duplicate command skipped", "index", e.Index, "fingerprint", fp)
		}
	}
	return res, nil
}

// decodeEntry maps an entry to its declared variant, or to command.Raw for
// undeclared types and non-mapping parameters.
func decodeEntry(e Entry) (command.Variant, error) {
	label := ""
	if k, ok := blueprint.Lookup(e.Type); ok {
		label = k.Name
	}

	var params *command.Params
	switch p := e.Params.(type) {
	case nil:
	case *command.Params:
		params = p
	default:
		return command.Raw{Label: label, Type: e.Type, Params: e.Params}, nil
	}
	if params == nil {
		params = command.NewParams()
	}

	v, err := blueprint.Decode(&command.Payload{Type: e.Type, Params: params})
	if errors.Is(err, blueprint.ErrUnknownType) {
		return command.Raw{Type: e.Type, Params: params}, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func warningsError(variant string, warnings []command.Warning) error {
	errs := make([]*command.ValidationError, len(warnings))
	for i, w := range warnings {
		errs[i] = &command.ValidationError{Field: w.Field, Code: w.Code, Message: w.Message}
	}
	return &command.BuildError{Variant: variant, Errors: errs}
}
