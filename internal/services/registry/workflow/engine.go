// Package workflow runs the registry lifecycle: registration, review, and
// removal of businesses and gangs, and the contracts between them.
//
// Every mutating operation holds its collection's write lock across load,
// change, and save, so concurrent commands on one collection never lose
// updates. Locks are always taken in entity.Kinds order.
package workflow

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/platform/requestctx"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/roster"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/roleplay-registry/internal/services/registry/workflow"

// Store is the persistence the engine needs.
type Store interface {
	Registrations(kind entity.Kind) entity.Collection[entity.Registration]
	Contracts() entity.Collection[entity.Contract]
	SaveRegistrations(ctx context.Context, kind entity.Kind, c entity.Collection[entity.Registration]) error
	SaveContracts(ctx context.Context, c entity.Collection[entity.Contract]) error
}

// Granter provisions external membership after an approval.
type Granter interface {
	Grant(ctx context.Context, groupName, userRef string) roster.Report
}

// Integrity selects how contracts relate to registrations.
type Integrity string

const (
	// IntegrityStrict requires contract parties to name approved registrations.
	IntegrityStrict Integrity = "strict"
	// IntegrityPermissive accepts any party names.
	IntegrityPermissive Integrity = "permissive"
)

// ParseIntegrity normalizes an integrity mode label. Blank means strict.
func ParseIntegrity(raw string) (Integrity, error) {
	switch Integrity(strings.ToLower(strings.TrimSpace(raw))) {
	case "", IntegrityStrict:
		return IntegrityStrict, nil
	case IntegrityPermissive:
		return IntegrityPermissive, nil
	default:
		return "", fmt.Errorf("unknown contract integrity mode %q", raw)
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithIntegrity sets the contract integrity mode.
func WithIntegrity(mode Integrity) Option {
	return func(e *Engine) { e.integrity = mode }
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// Engine orchestrates registry operations.
type Engine struct {
	store     Store
	roster    Granter
	integrity Integrity
	tracer    trace.Tracer
	locks     map[entity.Kind]*sync.RWMutex
}

// New builds an engine. A nil roster skips membership grants.
func New(store Store, granter Granter, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	e := &Engine{
		store:     store,
		roster:    granter,
		integrity: IntegrityStrict,
		locks:     map[entity.Kind]*sync.RWMutex{},
	}
	for _, kind := range entity.Kinds {
		e.locks[kind] = &sync.RWMutex{}
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if _, err := ParseIntegrity(string(e.integrity)); err != nil {
		return nil, err
	}
	return e, nil
}

// Integrity returns the configured contract integrity mode.
func (e *Engine) Integrity() Integrity {
	return e.integrity
}

// run traces one operation and turns a panic into an INTERNAL error so one
// failing command cannot take the process down.
func (e *Engine) run(ctx context.Context, kind entity.Kind, op string, id int, fn func(context.Context) error) (err error) {
	attrs := []attribute.KeyValue{attribute.String("registry.kind", string(kind))}
	if id > 0 {
		attrs = append(attrs, attribute.Int("registry.id", id))
	}
	correlationID := requestctx.CorrelationIDFromContext(ctx)
	if correlationID != "" {
		attrs = append(attrs, attribute.String("registry.correlation_id", correlationID))
	}
	ctx, span := e.tracer.Start(ctx, "registry."+string(kind)+"."+op, trace.WithAttributes(attrs...))
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workflow: %s %s [%s] panicked: %v\n%s", op, kind, correlationID, r, debug.Stack())
			err = apperrors.New(apperrors.CodeInternal, fmt.Sprintf("%s %s: internal error", op, kind))
		}
		if err != nil {
			code := apperrors.CodeOf(err)
			span.SetAttributes(attribute.String("registry.error_code", string(code)))
			if !code.UserFault() {
				span.RecordError(err)
				span.SetStatus(codes.Error, string(code))
			}
		}
		span.End()
	}()
	return fn(ctx)
}

func (e *Engine) lock(kinds ...entity.Kind) func() {
	return e.acquire(false, kinds)
}

func (e *Engine) rlock(kinds ...entity.Kind) func() {
	return e.acquire(true, kinds)
}

// acquire locks kinds in entity.Kinds order regardless of argument order.
func (e *Engine) acquire(read bool, kinds []entity.Kind) func() {
	var held []*sync.RWMutex
	for _, kind := range entity.Kinds {
		for _, want := range kinds {
			if want != kind {
				continue
			}
			mu := e.locks[kind]
			if read {
				mu.RLock()
			} else {
				mu.Lock()
			}
			held = append(held, mu)
			break
		}
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			if read {
				held[i].RUnlock()
			} else {
				held[i].Unlock()
			}
		}
	}
}

func notFound(kind entity.Kind, id int) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %d not found", kind, id),
		map[string]string{"ID": strconv.Itoa(id), "Kind": string(kind)},
	)
}

// notFoundRef reports a missing id-or-name reference. Numeric references
// render as ids.
func notFoundRef(kind entity.Kind, ref string) error {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return notFound(kind, id)
	}
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %q not found", kind, ref),
		map[string]string{"Ref": ref, "Kind": string(kind)},
	)
}

func requireApprovable(kind entity.Kind) error {
	if kind.Approvable() {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeValidationFailed,
		fmt.Sprintf("kind %q is not a registration", kind),
		map[string]string{"Field": "kind"},
	)
}
