package secretstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the OS keychain service name for Tier A.
const DefaultKeyringService = "drachma"

// indexUser prefixes the reserved keychain entries listing every stored
// name. The OS keychain has no portable enumeration, so Clear walks this
// list. The list is split into pages: page 0 lives at indexUser, page i at
// indexUser.i, and loading stops at the first missing page.
const indexUser = "__drachma_index__"

// maxIndexPage bounds the JSON size of one index page. Keychains cap entry
// size (2560 bytes on Windows, a 4 KiB command line on macOS).
const maxIndexPage = 1024

// Keyring is the subset of the OS keychain API used by KeyringBackend.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// OSKeyring implements the Keyring interface using the OS keychain.
type OSKeyring struct{}

// Set stores a secret in the OS keyring.
func (OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret from the OS keyring.
func (OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keyring.
func (OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// KeyringBackend stores Tier A secrets in the OS keychain.
// Values are base64 encoded since keychain entries are strings.
type KeyringBackend struct {
	mu      sync.Mutex
	service string
	kr      Keyring
}

// NewKeyringBackend creates a backend under the given keychain service.
// A nil kr uses the OS keychain.
func NewKeyringBackend(service string, kr Keyring) *KeyringBackend {
	if service == "" {
		service = DefaultKeyringService
	}
	if kr == nil {
		kr = OSKeyring{}
	}
	return &KeyringBackend{service: service, kr: kr}
}

// Put implements Backend.
func (k *KeyringBackend) Put(_ context.Context, name string, value []byte) error {
	if strings.HasPrefix(name, indexUser) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidHandle, name)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	names, pages, err := k.loadIndex()
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		// Index first: an entry listed but missing is harmless, an entry
		// present but unlisted would survive Clear.
		if err := k.saveIndex(append(names, name), pages); err != nil {
			return err
		}
	}
	if err := k.kr.Set(k.service, name, base64.StdEncoding.EncodeToString(value)); err != nil {
		return fmt.Errorf("keychain set %s: %w", name, err)
	}
	return nil
}

// Get implements Backend.
func (k *KeyringBackend) Get(_ context.Context, name string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	encoded, err := k.kr.Get(k.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("keychain get %s: %w", name, err)
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("keychain entry %s is corrupt: %w", name, err)
	}
	return value, true, nil
}

// Delete implements Backend.
func (k *KeyringBackend) Delete(_ context.Context, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.deleteEntry(name); err != nil {
		return err
	}
	names, pages, err := k.loadIndex()
	if err != nil {
		return err
	}
	if i := slices.Index(names, name); i >= 0 {
		return k.saveIndex(slices.Delete(names, i, i+1), pages)
	}
	return nil
}

// Clear implements Backend.
func (k *KeyringBackend) Clear(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	names, pages, err := k.loadIndex()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := k.deleteEntry(name); err != nil {
			return err
		}
	}
	return k.saveIndex(nil, pages)
}

// Close implements Backend.
func (k *KeyringBackend) Close() error {
	return nil
}

func (k *KeyringBackend) deleteEntry(name string) error {
	err := k.kr.Delete(k.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete %s: %w", name, err)
	}
	return nil
}

func indexPageUser(i int) string {
	if i == 0 {
		return indexUser
	}
	return indexUser + "." + strconv.Itoa(i)
}

// loadIndex returns every indexed name and the raw pages they came from.
func (k *KeyringBackend) loadIndex() ([]string, []string, error) {
	var names, pages []string
	for i := 0; ; i++ {
		raw, err := k.kr.Get(k.service, indexPageUser(i))
		if errors.Is(err, keyring.ErrNotFound) {
			return names, pages, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("keychain index: %w", err)
		}
		var page []string
		if err := json.Unmarshal([]byte(raw), &page); err != nil {
			return nil, nil, fmt.Errorf("keychain index page %d is corrupt: %w", i, err)
		}
		names = append(names, page...)
		pages = append(pages, raw)
	}
}

// paginate splits names into JSON arrays of at most maxIndexPage bytes.
// A single name longer than a page gets a page of its own.
func paginate(names []string) ([]string, error) {
	var (
		pages   []string
		current []string
		size    = 2
	)
	flush := func() error {
		raw, err := json.Marshal(current)
		if err != nil {
			return err
		}
		pages = append(pages, string(raw))
		current, size = nil, 2
		return nil
	}

	for _, name := range names {
		encoded, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		cost := len(encoded)
		if len(current) > 0 {
			cost++
		}
		if len(current) > 0 && size+cost > maxIndexPage {
			if err := flush(); err != nil {
				return nil, err
			}
			cost = len(encoded)
		}
		current = append(current, name)
		size += cost
	}
	if len(current) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

// saveIndex writes the pages that changed and drops the ones no longer
// needed. Stale pages go last-first so a partial failure never leaves a
// gap in front of a live page.
func (k *KeyringBackend) saveIndex(names, old []string) error {
	pages, err := paginate(names)
	if err != nil {
		return err
	}
	for i, page := range pages {
		if i < len(old) && old[i] == page {
			continue
		}
		if err := k.kr.Set(k.service, indexPageUser(i), page); err != nil {
			return fmt.Errorf("keychain index page %d: %w", i, err)
		}
	}
	for i := len(old) - 1; i >= len(pages); i-- {
		if err := k.deleteEntry(indexPageUser(i)); err != nil {
			return err
		}
	}
	return nil
}

// ProbeKeyring tests if the OS keyring is available.
// It attempts to set, get, and delete a test value.
func ProbeKeyring() bool {
	const (
		testService = "drachma-probe"
		testUser    = "probe"
		testValue   = "test"
	)

	if err := keyring.Set(testService, testUser, testValue); err != nil {
		return false
	}

	val, err := keyring.Get(testService, testUser)
	if err != nil || val != testValue {
		_ = keyring.Delete(testService, testUser)
		return false
	}

	return keyring.Delete(testService, testUser) == nil
}
