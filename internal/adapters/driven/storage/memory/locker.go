package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure Locker implements the interface.
var _ driven.DocumentLocker = (*Locker)(nil)

// Locker serialises deletions within one process.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocker creates a new in-process document locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

// TryLock acquires the lock for a document without waiting.
func (l *Locker) TryLock(_ context.Context, documentID string) (driven.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[documentID]; ok {
		return nil, domain.ErrDeletionInProgress
	}
	l.held[documentID] = struct{}{}
	return &lease{locker: l, documentID: documentID}, nil
}

// Held reports whether a document is currently locked.
func (l *Locker) Held(documentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[documentID]
	return ok
}

type lease struct {
	once       sync.Once
	locker     *Locker
	documentID string
}

func (l *lease) Release(_ context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		defer l.locker.mu.Unlock()
		delete(l.locker.held, l.documentID)
	})
	return nil
}
