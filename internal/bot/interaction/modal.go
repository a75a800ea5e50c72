package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrModalTimeout is returned when the user did not submit in time.
	ErrModalTimeout = errors.New("modal submission timed out")
	// ErrModalSuperseded is returned when the same user opened the same modal again.
	ErrModalSuperseded = errors.New("modal superseded by a newer one")
)

type modalKey struct {
	userID   snowflake.ID
	customID string
}

// ModalWaiter hands modal submissions to the handler that opened the modal.
type ModalWaiter struct {
	pending map[modalKey]*PendingModal
	mu      sync.Mutex
}

// NewModalWaiter creates an empty ModalWaiter.
func NewModalWaiter() *ModalWaiter {
	return &ModalWaiter{pending: make(map[modalKey]*PendingModal)}
}

// PendingModal is a registered wait for one submission.
type PendingModal struct {
	waiter *ModalWaiter
	key    modalKey
	ch     chan Event
	once   sync.Once
}

// Expect registers interest in the next submission of customID by userID.
// Call it before showing the modal.
func (w *ModalWaiter) Expect(userID snowflake.ID, customID string) *PendingModal {
	key := modalKey{userID: userID, customID: customID}
	pending := &PendingModal{
		waiter: w,
		key:    key,
		ch:     make(chan Event, 1),
	}

	w.mu.Lock()
	previous := w.pending[key]
	w.pending[key] = pending
	w.mu.Unlock()

	if previous != nil {
		previous.close()
	}

	return pending
}

// Deliver passes a submission to its waiting handler. It returns false if
// nobody is waiting for it.
func (w *ModalWaiter) Deliver(event Event) bool {
	key := modalKey{userID: event.User().ID, customID: event.CustomID()}

	w.mu.Lock()
	defer w.mu.Unlock()

	pending, ok := w.pending[key]
	if !ok {
		return false
	}
	delete(w.pending, key)

	// Sent under the lock so Cancel never misses a delivered submission.
	pending.ch <- event
	return true
}

// Len returns the number of open waits.
func (w *ModalWaiter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Wait blocks until the submission arrives, timeout passes or ctx ends.
func (p *PendingModal) Wait(ctx context.Context, timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event, ok := <-p.ch:
		if !ok {
			return nil, ErrModalSuperseded
		}
		return event, nil
	case <-timer.C:
		return p.cancelOr(ErrModalTimeout)
	case <-ctx.Done():
		return p.cancelOr(ctx.Err())
	}
}

// cancelOr withdraws the wait. A submission delivered in the meantime is
// still returned so it gets answered.
func (p *PendingModal) cancelOr(err error) (Event, error) {
	p.Cancel()

	select {
	case event, ok := <-p.ch:
		if ok {
			return event, nil
		}
	default:
	}

	return nil, err
}

// Cancel withdraws the wait if it is still registered.
func (p *PendingModal) Cancel() {
	p.waiter.mu.Lock()
	if p.waiter.pending[p.key] == p {
		delete(p.waiter.pending, p.key)
	}
	p.waiter.mu.Unlock()
}

func (p *PendingModal) close() {
	p.once.Do(func() { close(p.ch) })
}
