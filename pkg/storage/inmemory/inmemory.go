// Package inmemory provides an in-memory storage driver, used when the
// gateway runs without a configured database and as the default in tests.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/wireline/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards exchanges and order.
	mu sync.RWMutex

	// exchanges maps exchange id to record; order tracks insertion order so
	// List can return most-recent-first without timestamps colliding.
	exchanges map[string]*storage.Exchange
	order     []string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		exchanges: make(map[string]*storage.Exchange),
	}
}

// Save stores an exchange record, overwriting any previous record with the
// same id.
func (d *Driver) Save(_ context.Context, ex *storage.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}
	if ex.ID == "" {
		return errors.New("cannot store exchange without an id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.exchanges[ex.ID]; !exists {
		d.order = append(d.order, ex.ID)
	}
	cp := *ex
	d.exchanges[ex.ID] = &cp
	return nil
}

// Get retrieves an exchange by id.
func (d *Driver) Get(_ context.Context, id string) (*storage.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ex, ok := d.exchanges[id]
	if !ok {
		return nil, storage.ErrNotFound{ID: id}
	}
	cp := *ex
	return &cp, nil
}

// List returns all exchanges, most recent first.
func (d *Driver) List(_ context.Context) ([]*storage.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Exchange, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		cp := *d.exchanges[d.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
