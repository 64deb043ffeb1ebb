// Package engine dispatches middleware operations to backend adaptors.
//
// An Engine holds an explicit, ordered adaptor list fixed at construction.
// There is no global registry: callers that want a different adaptor set
// build a different engine. Scheme routing is a linear scan in list order,
// first match wins, so ordering is part of the engine's contract.
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/adaptor/ftp"
	"github.com/gridhaven/kraken/pkg/adaptor/gridengine"
	"github.com/gridhaven/kraken/pkg/adaptor/local"
	"github.com/gridhaven/kraken/pkg/adaptor/s3"
)

// errorName is the adaptor name the engine uses in its own errors.
const errorName = "engine"

// Config carries engine-wide settings.
type Config struct {
	// Logger is the root logger; adaptors receive named children.
	Logger *zap.Logger

	// DefaultCredential is used when a call passes none.
	DefaultCredential adaptor.Credential

	// DefaultProperties is the base layer under per-call property overrides.
	DefaultProperties adaptor.Properties
}

// Engine is the adaptor-dispatch layer.
type Engine struct {
	logger   *zap.Logger
	adaptors []adaptor.Adaptor

	mu                sync.Mutex
	defaultCredential adaptor.Credential
	defaultProperties adaptor.Properties
	ended             bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAdaptors replaces the default adaptor list. Order matters: scheme
// routing picks the first adaptor that claims a scheme.
func WithAdaptors(adaptors ...adaptor.Adaptor) Option {
	return func(e *Engine) { e.adaptors = adaptors }
}

// New builds an engine with the standard adaptor list: local, gridengine,
// ftp, s3, in that order.
func New(cfg Config, opts ...Option) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cred := cfg.DefaultCredential
	if cred == nil {
		cred = adaptor.DefaultCredential{}
	}

	e := &Engine{
		logger: logger.Named("engine"),
		adaptors: []adaptor.Adaptor{
			local.New(logger),
			gridengine.New(logger),
			ftp.New(logger),
			s3.New(logger),
		},
		defaultCredential: cred,
		defaultProperties: cfg.DefaultProperties.Clone(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adaptors returns the adaptor list in routing order.
func (e *Engine) Adaptors() []adaptor.Adaptor {
	out := make([]adaptor.Adaptor, len(e.adaptors))
	copy(out, e.adaptors)
	return out
}

// Adaptor returns the adaptor with the given name.
func (e *Engine) Adaptor(name string) (adaptor.Adaptor, error) {
	for _, a := range e.adaptors {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, adaptor.NewError(adaptor.ErrNotFound, errorName, "Adaptor",
		fmt.Sprintf("no adaptor named %q", name), nil)
}

// AdaptorFor returns the first adaptor claiming the scheme.
func (e *Engine) AdaptorFor(scheme string) (adaptor.Adaptor, error) {
	for _, a := range e.adaptors {
		if a.Supports(scheme) {
			return a, nil
		}
	}
	return nil, adaptor.NewError(adaptor.ErrNotFound, errorName, "AdaptorFor",
		fmt.Sprintf("no adaptor supports scheme %q", scheme), nil)
}

// DefaultCredential returns the engine-wide default credential.
func (e *Engine) DefaultCredential() adaptor.Credential {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultCredential
}

// SetDefaultCredential replaces the engine-wide default credential.
func (e *Engine) SetDefaultCredential(credential adaptor.Credential) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultCredential = credential
}

// DefaultProperties returns a copy of the engine-wide property defaults.
func (e *Engine) DefaultProperties() adaptor.Properties {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultProperties.Clone()
}

// SetDefaultProperties replaces the engine-wide property defaults.
func (e *Engine) SetDefaultProperties(properties adaptor.Properties) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultProperties = properties.Clone()
}

// merged resolves a call's credential and properties against the engine
// defaults. Per-call values win; the result is a fresh copy either way.
// The default layer is narrowed to the keys the target adaptor declares at
// the requested scope: adaptors validate strictly, and an engine-wide
// default aimed at one backend must not fail construction on the others.
// Explicit per-call properties are passed through unfiltered and stay
// subject to strict validation.
func (e *Engine) merged(a adaptor.Adaptor, level adaptor.PropertyLevel, credential adaptor.Credential, properties adaptor.Properties) (adaptor.Credential, adaptor.Properties) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if credential == nil {
		credential = e.defaultCredential
	}
	defaults := make(adaptor.Properties)
	for _, d := range a.SupportedProperties() {
		if !d.AtLevel(level) {
			continue
		}
		if v, ok := e.defaultProperties[d.Key]; ok {
			defaults[d.Key] = v
		}
	}
	return credential, defaults.Merge(properties)
}

// End shuts every adaptor down. Idempotent: only the first call does work.
// A failing adaptor is logged and does not stop its siblings.
func (e *Engine) End(ctx context.Context) error {
	e.mu.Lock()
	if e.ended {
		e.mu.Unlock()
		return nil
	}
	e.ended = true
	e.mu.Unlock()

	for _, a := range e.adaptors {
		if err := a.End(ctx); err != nil {
			e.logger.Warn("adaptor shutdown failed",
				zap.String("adaptor", a.Name()),
				zap.Error(err))
		}
	}
	return nil
}

// jobAdaptor resolves a name to its job capability set.
func (e *Engine) jobAdaptor(op, name string) (adaptor.JobAdaptor, error) {
	a, err := e.Adaptor(name)
	if err != nil {
		return nil, err
	}
	ja, ok := a.(adaptor.JobAdaptor)
	if !ok {
		return nil, adaptor.NewError(adaptor.ErrConfiguration, errorName, op,
			fmt.Sprintf("adaptor %q does not run jobs", name), nil)
	}
	return ja, nil
}

// fileAdaptor resolves a name to its file capability set.
func (e *Engine) fileAdaptor(op, name string) (adaptor.FileAdaptor, error) {
	a, err := e.Adaptor(name)
	if err != nil {
		return nil, err
	}
	fa, ok := a.(adaptor.FileAdaptor)
	if !ok {
		return nil, adaptor.NewError(adaptor.ErrConfiguration, errorName, op,
			fmt.Sprintf("adaptor %q does not serve files", name), nil)
	}
	return fa, nil
}
