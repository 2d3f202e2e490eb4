package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryCodeStore is a mutex-guarded in-process CodeStore, used when
// Redis is not configured. The single mutex serializes concurrent
// verify attempts for the same email.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]Code
}

// NewMemoryCodeStore builds an empty store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]Code)}
}

func (s *MemoryCodeStore) Save(_ context.Context, code Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Email] = code
	return nil
}

func (s *MemoryCodeStore) Find(_ context.Context, email string) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &code, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

func (s *MemoryCodeStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return 0, ErrNotFound
	}
	code.Attempts++
	s.codes[email] = code
	return code.Attempts, nil
}

func (s *MemoryCodeStore) Sweep(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, code := range s.codes {
		if now.After(code.ExpiresAt) {
			delete(s.codes, email)
		}
	}
	return nil
}

// MemoryRegistrationStore is the in-process RegistrationStore.
type MemoryRegistrationStore struct {
	mu   sync.Mutex
	regs map[string]Registration
	ttl  time.Duration
}

// NewMemoryRegistrationStore builds an empty store; entries older than
// ttl are removed by Sweep.
func NewMemoryRegistrationStore(ttl time.Duration) *MemoryRegistrationStore {
	return &MemoryRegistrationStore{regs: make(map[string]Registration), ttl: ttl}
}

func (s *MemoryRegistrationStore) Save(_ context.Context, reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg.Email] = reg
	return nil
}

func (s *MemoryRegistrationStore) Find(_ context.Context, email string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (s *MemoryRegistrationStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regs, email)
	return nil
}

func (s *MemoryRegistrationStore) Sweep(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, reg := range s.regs {
		if now.Sub(reg.CreatedAt) > s.ttl {
			delete(s.regs, email)
		}
	}
	return nil
}
