package local

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// DefaultPersistDelay coalesces bursts of mutations into one write.
const DefaultPersistDelay = 500 * time.Millisecond

type document struct {
	Last  string          `json:"last"`
	Store []storedAccount `json:"store"`
}

type storedAccount struct {
	KeyObject json.RawMessage `json:"keyObject"`
	Name      string          `json:"name"`
	Meta      string          `json:"meta"`
}

// Accounts is the registry of local accounts and the last used address.
// Mutations update memory synchronously and schedule a debounced write of
// the whole document to storage; Flush and Close write immediately.
type Accounts struct {
	mu      sync.RWMutex
	store   []Account
	last    common.Address
	storage Storage
	workers *WorkerPool

	persistDelay time.Duration
	timer        *time.Timer
	scryptN      int
	scryptP      int
}

type AccountsOption func(*Accounts)

// WithPersistDelay sets the debounce delay. Zero writes on every mutation.
func WithPersistDelay(d time.Duration) AccountsOption {
	return func(a *Accounts) { a.persistDelay = d }
}

// WithScrypt sets the key encryption cost used for new key objects.
func WithScrypt(n, p int) AccountsOption {
	return func(a *Accounts) { a.scryptN, a.scryptP = n, p }
}

// NewAccounts loads the registry from storage. workers may be nil, in
// which case key operations run on the calling goroutine.
func NewAccounts(storage Storage, workers *WorkerPool, opts ...AccountsOption) (*Accounts, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	a := &Accounts{
		storage:      storage,
		workers:      workers,
		persistDelay: DefaultPersistDelay,
		scryptN:      keystore.StandardScryptN,
		scryptP:      keystore.StandardScryptP,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Accounts) load() error {
	raw, err := a.storage.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	for _, s := range doc.Store {
		addr, err := keyObjectAddress(s.KeyObject)
		if err != nil {
			log.Warn("Skipping stored account", "err", err)
			continue
		}
		meta := s.Meta
		if meta == "" {
			meta = "{}"
		}
		a.store = append(a.store, Account{Address: addr, KeyObject: s.KeyObject, Name: s.Name, Meta: meta})
	}
	if common.IsHexAddress(doc.Last) {
		a.last = common.HexToAddress(doc.Last)
	}
	log.Debug("Loaded local accounts", "count", len(a.store), "last", a.last.Hex())
	return nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, rpc.Errorf(rpc.KindValidation, "invalid address %q", address)
	}
	return common.HexToAddress(address), nil
}

func (a *Accounts) indexOf(addr common.Address) int {
	for i, acc := range a.store {
		if acc.Address == addr {
			return i
		}
	}
	return -1
}

// List returns a copy of the accounts in insertion order.
func (a *Accounts) List() []Account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Account(nil), a.store...)
}

// Addresses returns the account addresses in insertion order.
func (a *Accounts) Addresses() []common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]common.Address, len(a.store))
	for i, acc := range a.store {
		out[i] = acc.Address
	}
	return out
}

// Last returns the last used address, the zero address when none.
func (a *Accounts) Last() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Has reports whether address is stored, without touching Last.
func (a *Accounts) Has(address string) bool {
	addr, err := parseAddress(address)
	if err != nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.indexOf(addr) >= 0
}

// Get looks up an account by address in any casing and makes it the last
// used address.
func (a *Accounts) Get(address string) (Account, bool) {
	addr, err := parseAddress(address)
	if err != nil {
		return Account{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(addr)
	if i < 0 {
		return Account{}, false
	}
	if a.last != addr {
		a.last = addr
		a.persistLocked()
	}
	return a.store[i], true
}

func (a *Accounts) lookup(address string) (Account, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return Account{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	i := a.indexOf(addr)
	if i < 0 {
		return Account{}, rpc.Errorf(rpc.KindUnknownAccount, "unknown account %s", addr.Hex())
	}
	return a.store[i], nil
}

// Create encrypts key with password and stores it as the last used
// account. Importing a stored address again replaces its key object and
// keeps its name and meta.
func (a *Accounts) Create(ctx context.Context, key *ecdsa.PrivateKey, password string) (common.Address, error) {
	acc, err := Run(ctx, a.workers, func() (Account, error) {
		return newAccount(key, password, a.scryptN, a.scryptP)
	})
	if err != nil {
		return common.Address{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.indexOf(acc.Address); i >= 0 {
		a.store[i].KeyObject = acc.KeyObject
	} else {
		a.store = append(a.store, acc)
	}
	a.last = acc.Address
	a.persistLocked()
	log.Info("Created local account", "address", acc.Address.Hex())
	return acc.Address, nil
}

// Decrypt returns the private key of address.
func (a *Accounts) Decrypt(ctx context.Context, address, password string) (*ecdsa.PrivateKey, error) {
	acc, err := a.lookup(address)
	if err != nil {
		return nil, err
	}
	return Run(ctx, a.workers, func() (*ecdsa.PrivateKey, error) {
		return acc.decrypt(password)
	})
}

// TestPassword reports whether password opens the key of address.
func (a *Accounts) TestPassword(ctx context.Context, address, password string) (bool, error) {
	_, err := a.Decrypt(ctx, address, password)
	switch rpc.KindOf(err) {
	case rpc.KindUnknown:
		return err == nil, err
	case rpc.KindInvalidPassword:
		return false, nil
	}
	return false, err
}

// ChangePassword re-encrypts the key of address under newPassword.
func (a *Accounts) ChangePassword(ctx context.Context, address, password, newPassword string) (bool, error) {
	key, err := a.Decrypt(ctx, address, password)
	if err != nil {
		return false, err
	}
	acc, err := Run(ctx, a.workers, func() (Account, error) {
		return newAccount(key, newPassword, a.scryptN, a.scryptP)
	})
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(acc.Address)
	if i < 0 {
		return false, rpc.Errorf(rpc.KindUnknownAccount, "unknown account %s", acc.Address.Hex())
	}
	a.store[i].KeyObject = acc.KeyObject
	a.persistLocked()
	return true, nil
}

// Remove deletes address after checking password. A wrong password
// returns false and changes nothing. Removing the last used address resets
// it to the zero address.
func (a *Accounts) Remove(ctx context.Context, address, password string) (bool, error) {
	ok, err := a.TestPassword(ctx, address, password)
	if err != nil || !ok {
		return false, err
	}
	addr := common.HexToAddress(address)

	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(addr)
	if i < 0 {
		return false, nil
	}
	a.store = append(a.store[:i], a.store[i+1:]...)
	if a.last == addr {
		a.last = common.Address{}
	}
	a.persistLocked()
	log.Info("Removed local account", "address", addr.Hex())
	return true, nil
}

// SetName renames address.
func (a *Accounts) SetName(address, name string) error {
	return a.update(address, func(acc *Account) { acc.Name = name })
}

// SetMeta replaces the JSON meta of address. meta must be a JSON object.
func (a *Accounts) SetMeta(address, meta string) error {
	if strings.TrimSpace(meta) == "" {
		meta = "{}"
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(meta), &obj); err != nil {
		return rpc.Wrap(rpc.KindValidation, err, "meta must be a JSON object")
	}
	return a.update(address, func(acc *Account) { acc.Meta = meta })
}

func (a *Accounts) update(address string, fn func(*Account)) error {
	addr, err := parseAddress(address)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(addr)
	if i < 0 {
		return rpc.Errorf(rpc.KindUnknownAccount, "unknown account %s", addr.Hex())
	}
	fn(&a.store[i])
	a.persistLocked()
	return nil
}

func (a *Accounts) persistLocked() {
	if a.persistDelay <= 0 {
		if err := a.writeLocked(); err != nil {
			log.Warn("Failed to persist local accounts", "err", err)
		}
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.persistDelay, func() {
		if err := a.Flush(); err != nil {
			log.Warn("Failed to persist local accounts", "err", err)
		}
	})
}

// Flush writes the document now and cancels any pending write.
func (a *Accounts) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	return a.writeLocked()
}

func (a *Accounts) writeLocked() error {
	doc := document{Last: strings.ToLower(a.last.Hex()), Store: make([]storedAccount, len(a.store))}
	for i, acc := range a.store {
		doc.Store[i] = storedAccount{KeyObject: acc.KeyObject, Name: acc.Name, Meta: acc.Meta}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return a.storage.Put(StorageKey, data)
}

// Close flushes pending changes. The storage is left open for its owner.
func (a *Accounts) Close() error {
	return a.Flush()
}
