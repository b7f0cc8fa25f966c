// Package rpc pool.go provides a thread-safe cache of transports so commands
// that talk to the same endpoint share one connection.
package rpc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Pool manages transports keyed by endpoint name. It uses double-checked
// locking so lookups of existing transports only take the read lock.
type Pool struct {
	transports map[string]Transport
	mu         sync.RWMutex
	dial       func(ctx context.Context, url string, timeout time.Duration) (Transport, error)
}

// NewPool creates an empty pool that dials with Dial.
func NewPool() *Pool {
	return &Pool{
		transports: make(map[string]Transport),
		dial:       Dial,
	}
}

// GetOrDial returns the transport registered under name, dialing url if
// there is none yet.
func (p *Pool) GetOrDial(ctx context.Context, name, url string, timeout time.Duration) (Transport, error) {
	p.mu.RLock()
	if t, exists := p.transports[name]; exists {
		p.mu.RUnlock()
		return t, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have dialed while we waited for the lock.
	if t, exists := p.transports[name]; exists {
		return t, nil
	}
	t, err := p.dial(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	p.transports[name] = t
	return t, nil
}

// Put registers an already constructed transport under name.
func (p *Pool) Put(name string, t Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transports[name] = t
}

// Get returns the transport for name, or nil.
func (p *Pool) Get(name string) Transport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transports[name]
}

// CloseAll closes and forgets every transport.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, t := range p.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.transports = make(map[string]Transport)
	return errors.Join(errs...)
}
