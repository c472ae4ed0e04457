// Package secretstore keeps wallet secrets in two tiers.
// High-sensitivity values (mnemonics, private keys) go to the OS keychain;
// low-sensitivity values (the wallet record) go to an encrypted local file.
// The tier is chosen by the Sensitivity flag on each Handle.
package secretstore

import (
	"context"
	"errors"

	"github.com/mrz1836/drachma/internal/metrics"
	drmerr "github.com/mrz1836/drachma/pkg/errors"
)

// Sensitivity selects the storage tier for a secret.
type Sensitivity int

const (
	// High is Tier A: hardware-backed or OS keychain storage that is
	// unavailable while the device is locked and excluded from backups.
	High Sensitivity = iota
	// Low is Tier B: encrypted at rest, readable without user presence.
	Low
)

// String returns the string representation of the sensitivity.
func (s Sensitivity) String() string {
	switch s {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// Handle names a stored secret. Only Store.Get dereferences it.
type Handle struct {
	Name        string      `json:"name"`
	Sensitivity Sensitivity `json:"sensitivity"`
}

// Secret returns a Tier A handle.
func Secret(name string) Handle {
	return Handle{Name: name, Sensitivity: High}
}

// Plain returns a Tier B handle.
func Plain(name string) Handle {
	return Handle{Name: name, Sensitivity: Low}
}

// Store is the tiered key-value store injected into the wallet manager.
// A missing key is reported as (nil, false, nil) by Get and never as an
// error; backend faults are reported as ErrStorageUnavailable.
type Store interface {
	Put(ctx context.Context, h Handle, value []byte) error
	Get(ctx context.Context, h Handle) ([]byte, bool, error)
	Delete(ctx context.Context, h Handle) error
	Has(ctx context.Context, h Handle) (bool, error)
	ClearAll(ctx context.Context) error
}

// Backend is the raw storage behind one tier.
type Backend interface {
	Put(ctx context.Context, name string, value []byte) error
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
	Close() error
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// ErrInvalidHandle is returned for handles with an empty name or unknown tier.
var ErrInvalidHandle = errors.New("invalid secret handle")

// Tiered routes each call to the Tier A or Tier B backend.
type Tiered struct {
	high    Backend
	low     Backend
	logger  LogWriter
	metrics *metrics.Metrics
}

// Option configures a Tiered store.
type Option func(*Tiered)

// WithLogger sets the logger used for storage failures.
func WithLogger(l LogWriter) Option {
	return func(t *Tiered) {
		t.logger = l
	}
}

// WithMetrics sets the metrics sink. Defaults to metrics.Global.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tiered) {
		t.metrics = m
	}
}

// New creates a Tiered store over the given backends.
func New(high, low Backend, opts ...Option) *Tiered {
	t := &Tiered{
		high:    high,
		low:     low,
		metrics: metrics.Global,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tiered) backend(h Handle) (Backend, error) {
	if h.Name == "" {
		return nil, ErrInvalidHandle
	}
	switch h.Sensitivity {
	case High:
		return t.high, nil
	case Low:
		return t.low, nil
	default:
		return nil, ErrInvalidHandle
	}
}

// finish records the call and maps backend faults to ErrStorageUnavailable.
// Unreadable stored data keeps its ErrMalformedInput code.
func (t *Tiered) finish(op string, h Handle, err error) error {
	if t.metrics != nil {
		t.metrics.RecordStorageOp(h.Sensitivity.String(), err)
	}
	if err == nil {
		return nil
	}
	if t.logger != nil {
		t.logger.Error("secretstore: %s %s (%s tier) failed: %v", op, h.Name, h.Sensitivity, err)
	}
	if drmerr.Is(err, drmerr.ErrStorageUnavailable) || drmerr.Is(err, drmerr.ErrMalformedInput) {
		return err
	}
	return drmerr.WithCause(drmerr.ErrStorageUnavailable, err)
}

// Put stores value under h, replacing any previous value.
func (t *Tiered) Put(ctx context.Context, h Handle, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := t.backend(h)
	if err != nil {
		return drmerr.WithCause(drmerr.ErrInvalidInput, err)
	}
	return t.finish("put", h, b.Put(ctx, h.Name, value))
}

// Get returns the value under h. found is false when nothing is stored.
func (t *Tiered) Get(ctx context.Context, h Handle) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := t.backend(h)
	if err != nil {
		return nil, false, drmerr.WithCause(drmerr.ErrInvalidInput, err)
	}
	value, found, err := b.Get(ctx, h.Name)
	if err = t.finish("get", h, err); err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Delete removes the value under h. Deleting an absent key is not an error.
func (t *Tiered) Delete(ctx context.Context, h Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := t.backend(h)
	if err != nil {
		return drmerr.WithCause(drmerr.ErrInvalidInput, err)
	}
	return t.finish("delete", h, b.Delete(ctx, h.Name))
}

// Has reports whether a value is stored under h. A value that is present
// but unreadable still counts.
func (t *Tiered) Has(ctx context.Context, h Handle) (bool, error) {
	value, found, err := t.Get(ctx, h)
	for i := range value {
		value[i] = 0
	}
	if drmerr.Is(err, drmerr.ErrMalformedInput) {
		return true, nil
	}
	return found, err
}

// ClearAll wipes both tiers. Tier B is cleared first so a failure never
// leaves a record pointing at deleted secrets.
func (t *Tiered) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.finish("clear", Plain("*"), t.low.Clear(ctx)); err != nil {
		return err
	}
	return t.finish("clear", Secret("*"), t.high.Clear(ctx))
}

// Close releases both backends.
func (t *Tiered) Close() error {
	return errors.Join(t.low.Close(), t.high.Close())
}
