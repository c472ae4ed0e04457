// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Wallet operation metrics
	walletOpsTotal  atomic.Int64
	walletOpsErrors atomic.Int64

	// Signing metrics
	signOpsTotal     atomic.Int64
	signOpsErrors    atomic.Int64
	signLatencyNanos atomic.Int64

	// Secret store metrics, split by tier
	highTierOps     atomic.Int64
	lowTierOps      atomic.Int64
	storageFailures atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordWalletOp records a wallet operation.
func (m *Metrics) RecordWalletOp(err error) {
	m.walletOpsTotal.Add(1)
	if err != nil {
		m.walletOpsErrors.Add(1)
	}
}

// RecordSign records a signing attempt with its duration and outcome.
func (m *Metrics) RecordSign(duration time.Duration, err error) {
	m.signOpsTotal.Add(1)
	m.signLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.signOpsErrors.Add(1)
	}
}

// RecordStorageOp records a secret store call against a tier.
// tier is "high" or "low".
func (m *Metrics) RecordStorageOp(tier string, err error) {
	switch tier {
	case "high":
		m.highTierOps.Add(1)
	case "low":
		m.lowTierOps.Add(1)
	}
	if err != nil {
		m.storageFailures.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	WalletOpsTotal   int64 `json:"wallet_ops_total"`
	WalletOpsErrors  int64 `json:"wallet_ops_errors"`
	SignOpsTotal     int64 `json:"sign_ops_total"`
	SignOpsErrors    int64 `json:"sign_ops_errors"`
	SignLatencyNanos int64 `json:"sign_latency_nanos"`
	HighTierOps      int64 `json:"high_tier_ops"`
	LowTierOps       int64 `json:"low_tier_ops"`
	StorageFailures  int64 `json:"storage_failures"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		WalletOpsTotal:   m.walletOpsTotal.Load(),
		WalletOpsErrors:  m.walletOpsErrors.Load(),
		SignOpsTotal:     m.signOpsTotal.Load(),
		SignOpsErrors:    m.signOpsErrors.Load(),
		SignLatencyNanos: m.signLatencyNanos.Load(),
		HighTierOps:      m.highTierOps.Load(),
		LowTierOps:       m.lowTierOps.Load(),
		StorageFailures:  m.storageFailures.Load(),
	}
}

// SignLatencyAvgMs returns the average signing latency in milliseconds.
// Returns 0 if nothing has been signed.
func (m *Metrics) SignLatencyAvgMs() float64 {
	calls := m.signOpsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.signLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.walletOpsTotal.Store(0)
	m.walletOpsErrors.Store(0)
	m.signOpsTotal.Store(0)
	m.signOpsErrors.Store(0)
	m.signLatencyNanos.Store(0)
	m.highTierOps.Store(0)
	m.lowTierOps.Store(0)
	m.storageFailures.Store(0)
}
