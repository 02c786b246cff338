package provider

import (
	"context"
	"sync"
)

// MemoryProvider is an in-process Provider implementation. The browser
// extension the session model was designed around has no server-side
// analogue, so deployments without a wallet bridge run against this
// implementation, and tests script it directly.
type MemoryProvider struct {
	mu              sync.Mutex
	authorized      []string
	rejectNext      bool
	unavailable     bool
	cacheCleared    int
	disconnectCalls int

	nextID          int
	accountHandlers map[int]func([]string)
	chainHandlers   map[int]func(string)
}

// NewMemoryProvider creates a MemoryProvider with the given authorized accounts
func NewMemoryProvider(accounts ...string) *MemoryProvider {
	return &MemoryProvider{
		authorized:      append([]string(nil), accounts...),
		accountHandlers: make(map[int]func([]string)),
		chainHandlers:   make(map[int]func(string)),
	}
}

// RequestAccounts implements Provider
func (p *MemoryProvider) RequestAccounts(ctx context.Context, force bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavailable {
		return nil, ErrUnavailable
	}
	if force {
		p.cacheCleared++
	}
	if p.rejectNext {
		p.rejectNext = false
		return nil, ErrRejected
	}

	return append([]string(nil), p.authorized...), nil
}

// Accounts implements Provider
func (p *MemoryProvider) Accounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavailable {
		return nil, ErrUnavailable
	}

	return append([]string(nil), p.authorized...), nil
}

// OnAccountsChanged implements Provider
func (p *MemoryProvider) OnAccountsChanged(handler func(accounts []string)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.accountHandlers[id] = handler
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.accountHandlers, id)
		p.mu.Unlock()
	}
}

// OnChainChanged implements Provider
func (p *MemoryProvider) OnChainChanged(handler func(chainID string)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.chainHandlers[id] = handler
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.chainHandlers, id)
		p.mu.Unlock()
	}
}

// ClearCachedProvider implements Provider
func (p *MemoryProvider) ClearCachedProvider() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cacheCleared++
}

// Disconnect implements Provider
func (p *MemoryProvider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectCalls++
	return nil
}

// SetAccounts replaces the authorized account list and fires the
// accountsChanged handlers, mimicking an external account switch.
func (p *MemoryProvider) SetAccounts(accounts ...string) {
	p.mu.Lock()
	p.authorized = append([]string(nil), accounts...)
	handlers := make([]func([]string), 0, len(p.accountHandlers))
	for _, h := range p.accountHandlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(append([]string(nil), accounts...))
	}
}

// SwitchChain fires the chainChanged handlers
func (p *MemoryProvider) SwitchChain(chainID string) {
	p.mu.Lock()
	handlers := make([]func(string), 0, len(p.chainHandlers))
	for _, h := range p.chainHandlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(chainID)
	}
}

// RejectNext makes the next RequestAccounts call fail with ErrRejected
func (p *MemoryProvider) RejectNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectNext = true
}

// SetUnavailable toggles provider reachability
func (p *MemoryProvider) SetUnavailable(unavailable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = unavailable
}

// CacheClearCount reports how many times the cached preference was dropped
func (p *MemoryProvider) CacheClearCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cacheCleared
}

// DisconnectCount reports how many times Disconnect was invoked
func (p *MemoryProvider) DisconnectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnectCalls
}
