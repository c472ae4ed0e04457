package wallet

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/mrz1836/drachma/internal/drmcrypto"
	"github.com/mrz1836/drachma/internal/metrics"
	"github.com/mrz1836/drachma/internal/secretstore"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	testAddress0 = "drmcc114b9516241fa462ba8f0173bd0d569ae3ee10"
	testPubKey0  = "02df6c2fcfe3ce48df1051a78987586989eee6b0f09a9ca196247575eaae641380"
	testAddress1 = "drmd2e896d002e34708e5234e1c2caa0a997c7c931e"
)

var (
	errDiskGone = errors.New("disk gone")

	testTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	drmcrypto.SetScryptWorkFactor(10)
	os.Exit(m.Run())
}

// testEnv bundles a manager with direct access to its backends.
type testEnv struct {
	manager *Manager
	store   *faultStore
	high    *secretstore.MemoryBackend
	low     *secretstore.MemoryBackend
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	high, low := secretstore.NewMemoryBackend(), secretstore.NewMemoryBackend()
	m := &metrics.Metrics{}
	store := &faultStore{Store: secretstore.New(high, low, secretstore.WithMetrics(m))}

	return &testEnv{
		manager: NewManager(&Config{
			Store:   store,
			Clock:   clock.NewTestClock(testTime),
			Metrics: m,
		}),
		store:   store,
		high:    high,
		low:     low,
		metrics: m,
	}
}

// faultStore wraps a Store and fails selected calls.
type faultStore struct {
	secretstore.Store

	mu   sync.Mutex
	fail func(op string, h secretstore.Handle) error
}

func (f *faultStore) setFault(fn func(op string, h secretstore.Handle) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *faultStore) check(op string, h secretstore.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		return nil
	}
	return f.fail(op, h)
}

func (f *faultStore) Put(ctx context.Context, h secretstore.Handle, value []byte) error {
	if err := f.check("put", h); err != nil {
		return err
	}
	return f.Store.Put(ctx, h, value)
}

func (f *faultStore) Get(ctx context.Context, h secretstore.Handle) ([]byte, bool, error) {
	if err := f.check("get", h); err != nil {
		return nil, false, err
	}
	return f.Store.Get(ctx, h)
}

func (f *faultStore) Delete(ctx context.Context, h secretstore.Handle) error {
	if err := f.check("delete", h); err != nil {
		return err
	}
	return f.Store.Delete(ctx, h)
}

func (f *faultStore) Has(ctx context.Context, h secretstore.Handle) (bool, error) {
	if err := f.check("has", h); err != nil {
		return false, err
	}
	return f.Store.Has(ctx, h)
}

// secretsOf returns the Tier A names that belong to walletID.
func secretsOf(names []string, walletID string) []string {
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, "wallet/"+walletID+"/") {
			out = append(out, n)
		}
	}
	return out
}
