// Package trace implements the context-scoped logger every pixveil pipeline
// stage pulls its log prefix from. A Tracer travels down the call stack
// inside a context.Context (cmd/pixveil seeds one in main, each stage
// re-scopes it with WithPrefix), so a single log line always names the
// stage ("ENCODE", "DECODE", "PLACEMENT", "COMPRESS", ...) that emitted it
// without threading a *Tracer parameter through every function signature.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/slippyex/pixveil/pkg/pverr"
)

// LogLevel gates how much a Tracer emits. Levels are ordered: a Tracer at
// level L emits everything at L and below, per t.level comparisons in
// Debugf/Tracef.
type LogLevel int

const (
	// LogLevelNormal emits Infof/Error/Fatal only; the level
	// cmd/pixveil runs at unless -verbose is passed.
	LogLevelNormal LogLevel = iota
	// LogLevelVerbose additionally emits Debugf, covering the per-chunk,
	// per-entry narration pipeline stages log as they run.
	LogLevelVerbose
	// LogLevelTrace additionally emits Tracef, reserved for the
	// bit-by-bit channel-read/write detail pkg/inject and pkg/extract
	// could narrate but don't by default.
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNormal:
		return "normal"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

type traceKeyType string

const traceKey traceKeyType = "tracer"

// Tracer is a prefixed, level-gated logger carried through a
// context.Context across an encode/decode run.
type Tracer struct {
	prefix  string
	level   LogLevel
	verbose bool
}

// NewTracer returns a Tracer scoped to prefix at level.
func NewTracer(prefix string, level LogLevel) *Tracer {
	return &Tracer{
		prefix:  prefix,
		level:   level,
		verbose: level >= LogLevelVerbose,
	}
}

// WithContext attaches tracer to ctx, so a later FromContext(ctx) call
// anywhere downstream recovers it.
func WithContext(ctx context.Context, tracer *Tracer) context.Context {
	return context.WithValue(ctx, traceKey, tracer)
}

// FromContext recovers the Tracer attached to ctx, or an unprefixed
// LogLevelNormal default if none was attached (so library code never nil
// -panics when called outside of pkg/pipeline's state machines, e.g. from
// a test that builds a bare context.Background()).
func FromContext(ctx context.Context) *Tracer {
	if tracer, ok := ctx.Value(traceKey).(*Tracer); ok {
		return tracer
	}
	return NewTracer("", LogLevelNormal)
}

// WithPrefix returns a copy of t scoped to a new prefix, inheriting t's
// level. Every pipeline stage calls this once on entry:
// trace.FromContext(ctx).WithPrefix("PLACEMENT").
func (t *Tracer) WithPrefix(prefix string) *Tracer {
	return &Tracer{prefix: prefix, level: t.level, verbose: t.verbose}
}

// SetVerbose toggles t between LogLevelNormal and LogLevelVerbose.
func (t *Tracer) SetVerbose(verbose bool) {
	t.verbose = verbose
	if verbose {
		t.level = LogLevelVerbose
	} else {
		t.level = LogLevelNormal
	}
}

// IsVerbose reports whether t emits Debugf output.
func (t *Tracer) IsVerbose() bool { return t.verbose }

// Infof logs a formatted message unconditionally (LogLevelNormal and
// above).
func (t *Tracer) Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if t.prefix != "" {
		log.Printf("%s: %s", t.prefix, msg)
	} else {
		log.Print(msg)
	}
}

// Debugf logs a formatted message only at LogLevelVerbose or above;
// pkg/placement and pkg/rng use this for per-chunk/per-read narration
// that would otherwise flood a normal-level run.
func (t *Tracer) Debugf(format string, args ...interface{}) {
	if !t.verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Printf("%s: %s", t.prefix, msg)
}

// Tracef logs a formatted message only at LogLevelTrace, the most verbose
// tier, reserved for bit-level channel I/O detail.
func (t *Tracer) Tracef(format string, args ...interface{}) {
	if t.level < LogLevelTrace {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Printf("%s TRACE: %s", t.prefix, msg)
}

// Error logs err as a stage failure. Any pverr-wrapped error logs its
// taxonomy Kind alongside the message, so a log line reading
// "DECODE ERROR[CHECKSUM_MISMATCH]: ..." tells an operator which error
// kind fired without them having to read the message text.
func (t *Tracer) Error(err error) {
	kind, tagged := kindOf(err)
	switch {
	case t.prefix != "" && tagged:
		log.Printf("%s ERROR[%s]: %v", t.prefix, kind, err)
	case t.prefix != "":
		log.Printf("%s ERROR: %v", t.prefix, err)
	case tagged:
		log.Printf("ERROR[%s]: %v", kind, err)
	default:
		log.Printf("ERROR: %v", err)
	}
}

// kindOf extracts a *pverr.Error's Kind from err, if it wraps one.
func kindOf(err error) (pverr.Kind, bool) {
	var pe *pverr.Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// Fatal logs err as a fatal stage failure (same Kind-tagging as Error)
// and terminates the process. cmd/pixveil prefers returning the error up
// to main and calling stdlib log.Fatalf itself, so this is reserved for
// library code that has no caller left to report to.
func (t *Tracer) Fatal(err error) {
	kind, tagged := kindOf(err)
	if tagged {
		if t.prefix != "" {
			log.Printf("%s FATAL[%s]: %v", t.prefix, kind, err)
		} else {
			log.Printf("FATAL[%s]: %v", kind, err)
		}
	} else {
		if t.prefix != "" {
			log.Printf("%s FATAL: %v", t.prefix, err)
		} else {
			log.Printf("FATAL: %v", err)
		}
	}
	os.Exit(1)
}
