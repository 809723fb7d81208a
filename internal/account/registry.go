// Package account implements the persistent player account registry.
//
// Accounts live in a flat text file, one "name;digest" line per account.
// The file format and the password digest are fixed: servers have been
// writing this format for a while and existing files must keep loading.
package account

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hactazia/quiznet/internal/model"
)

var (
	// ErrDuplicate is returned when registering a name that already exists.
	ErrDuplicate = errors.New("account: name already registered")
	// ErrCapacity is returned when the registry is full.
	ErrCapacity = errors.New("account: registry full")
	// ErrBadCredentials is returned on a wrong password.
	ErrBadCredentials = errors.New("account: bad credentials")
	// ErrUnknown is returned when the account does not exist.
	ErrUnknown = errors.New("account: unknown name")
)

// Registry is the in-memory account store backed by a flat file.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	path     string
	accounts []*model.Account // registration order, preserved on flush
	byName   map[string]*model.Account
}

// NewRegistry creates a registry persisting to path. The file is not read
// until Load is called.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:   path,
		byName: make(map[string]*model.Account),
	}
}

// Load reads the accounts file. A missing file is not an error: the registry
// simply starts empty.
func (r *Registry) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no accounts file, starting fresh", "path", r.path)
			return nil
		}
		return fmt.Errorf("opening accounts file %s: %w", r.path, err)
	}
	defer f.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	sc := bufio.NewScanner(f)
	for sc.Scan() && len(r.accounts) < model.MaxClients {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, digest, ok := strings.Cut(line, ";")
		if !ok || name == "" || digest == "" {
			slog.Warn("skipping malformed account line", "line", line)
			continue
		}
		acc := &model.Account{Name: name, Digest: digest}
		r.accounts = append(r.accounts, acc)
		r.byName[name] = acc
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading accounts file %s: %w", r.path, err)
	}

	slog.Info("accounts loaded", "count", len(r.accounts), "path", r.path)
	return nil
}

// Register creates a new account and flushes the file. In-memory state is
// kept even if the flush fails; the error is still reported.
func (r *Registry) Register(name, password string) error {
	r.mu.Lock()
	if _, exists := r.byName[name]; exists {
		r.mu.Unlock()
		return ErrDuplicate
	}
	if len(r.accounts) >= model.MaxClients {
		r.mu.Unlock()
		return ErrCapacity
	}
	acc := &model.Account{Name: name, Digest: Digest(password)}
	r.accounts = append(r.accounts, acc)
	r.byName[name] = acc
	r.mu.Unlock()

	slog.Info("account registered", "name", name, "total", r.Count())

	if err := r.Flush(); err != nil {
		slog.Error("flushing accounts after register", "err", err)
		return fmt.Errorf("flushing accounts: %w", err)
	}
	return nil
}

// Authenticate verifies the password for name and marks the account logged
// in on success.
func (r *Registry) Authenticate(name, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byName[name]
	if !ok {
		return ErrUnknown
	}
	if acc.Digest != Digest(password) {
		return ErrBadCredentials
	}
	acc.LoggedIn = true
	return nil
}

// Flush writes every account back to the file.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating accounts dir: %w", err)
		}
	}

	var b strings.Builder
	for _, acc := range r.accounts {
		b.WriteString(acc.Name)
		b.WriteByte(';')
		b.WriteString(acc.Digest)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing accounts file %s: %w", r.path, err)
	}
	return nil
}

// Count returns the number of registered accounts.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}
