package secretstore

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

var errKeychainLocked = errors.New("keychain locked")

// fakeKeyring is an in-process Keyring with injectable failures and an
// optional per-entry size cap like the Windows credential manager's.
type fakeKeyring struct {
	mu      sync.Mutex
	entries map[string]string
	err     error
	limit   int
}

func newFakeKeyring() *fakeKeyring {
	return &fakeKeyring{entries: make(map[string]string)}
}

func (f *fakeKeyring) key(service, user string) string {
	return service + "\x00" + user
}

func (f *fakeKeyring) Set(service, user, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.limit > 0 && len(password) > f.limit {
		return keyring.ErrSetDataTooBig
	}
	f.entries[f.key(service, user)] = password
	return nil
}

func (f *fakeKeyring) Get(service, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.entries[f.key(service, user)]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (f *fakeKeyring) Delete(service, user string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	k := f.key(service, user)
	if _, ok := f.entries[k]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.entries, k)
	return nil
}

func (f *fakeKeyring) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeKeyring) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeKeyring) setLimit(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = n
}

// largest returns the size of the biggest stored entry.
func (f *fakeKeyring) largest() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.entries {
		n = max(n, len(v))
	}
	return n
}
