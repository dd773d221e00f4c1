// Package assert is the kernel's fatal-assertion sink. Every error in the
// database is a programming error: there is no recoverable error surface.
// A violation is logged as a structured record and then raised as a typed
// panic so a process entry point (cmd/entitydb-demo) can recover it,
// print a diagnostic, and exit non-zero.
package assert

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind tags a violation with the fatal-error taxonomy entry it
// corresponds to.
type Kind string

const (
	CapabilityViolation       Kind = "capability_violation"
	PartialConstructionAccess Kind = "partial_construction_access"
	DependencyCycle           Kind = "dependency_cycle"
	LifetimeViolation         Kind = "lifetime_violation"
	RefcountUnderflow         Kind = "refcount_underflow"
	CapacityOverflow          Kind = "capacity_overflow"
)

// Violation is the panic value raised by Fatal.
type Violation struct {
	Kind    Kind
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("entitydb: %s: %s", v.Kind, v.Message)
}

var logger = slog.Default()

// SetLogger installs the logger Fatal reports through before panicking.
// A nil logger restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

// Fatal logs a structured violation record and panics with a *Violation.
// It never returns.
func Fatal(kind Kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.LogAttrs(context.Background(), slog.LevelError, "entitydb: fatal assertion",
		slog.String("kind", string(kind)),
		slog.String("detail", msg),
	)
	panic(&Violation{Kind: kind, Message: msg})
}

// Require panics via Fatal(kind, ...) when cond is false. It is the
// single-expression form used at most kernel call sites:
//
//	assert.Require(!base.externallyAdded, assert.LifetimeViolation, "add<%s>: already externally added", name)
func Require(cond bool, kind Kind, format string, args ...any) {
	if !cond {
		Fatal(kind, format, args...)
	}
}

// Recover turns a recovered panic value into (*Violation, ok). Typical use:
//
//	defer func() {
//	    if v, ok := assert.Recover(recover()); ok {
//	        fmt.Fprintln(os.Stderr, v.Error())
//	        os.Exit(1)
//	    }
//	}()
func Recover(r any) (*Violation, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.(*Violation)
	return v, ok
}
