package drmcrypto

import (
	"runtime"
	"sync"
)

// SecureBytes holds key material in memory that is locked against swapping
// where the platform allows it and zeroed on Destroy.
type SecureBytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecureBytes allocates size zeroed bytes and tries to lock them. A
// failed lock is not an error; IsLocked reports the outcome.
func NewSecureBytes(size int) (*SecureBytes, error) {
	sb := &SecureBytes{data: make([]byte, size)}
	sb.locked = mlock(sb.data)

	// Zero on collection if the owner forgets to Destroy.
	runtime.SetFinalizer(sb, (*SecureBytes).Destroy)
	return sb, nil
}

// SecureBytesFromSlice copies data into a new SecureBytes. The source is
// left for the caller to zero.
func SecureBytesFromSlice(data []byte) (*SecureBytes, error) {
	sb, err := NewSecureBytes(len(data))
	if err != nil {
		return nil, err
	}
	copy(sb.data, data)
	return sb, nil
}

// Bytes returns the protected slice, or nil after Destroy.
func (s *SecureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the length of the protected slice.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// IsLocked reports whether the memory is currently mlocked.
func (s *SecureBytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy zeroes and unlocks the memory. Further calls are no-ops.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}
	Zero(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil
	runtime.SetFinalizer(s, nil)
}

// Zero overwrites data with zeros.
func Zero(data []byte) {
	clear(data)
}
