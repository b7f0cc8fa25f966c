// Package contract binds a contract ABI to the api module clients: typed
// calls and transactions per ABI function, deployment, receipt polling and
// event log decoding.
//
// A Contract starts unbound. At binds it to an address; Deploy binds it to
// the address of the contract it created.
package contract

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultPollTimeout     = 10 * time.Minute
	DefaultDecodeCacheSize = 256
)

// Contract is one ABI, optionally bound to a deployed address.
type Contract struct {
	api *api.API
	abi abi.ABI

	constructor *Function
	functions   []*Function
	byName      map[string]*Function
	bySelector  map[[4]byte]*Function
	events      []*Event
	byTopic     map[common.Hash]*Event

	decoded *lru.Cache

	pollInterval time.Duration
	pollTimeout  time.Duration

	mu      sync.RWMutex
	address *common.Address
}

// Option tunes a Contract.
type Option func(*Contract)

// WithPollInterval sets how often receipts and signer requests are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Contract) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPollTimeout bounds every polling loop. Zero disables the bound; the
// caller's context still applies.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Contract) { c.pollTimeout = d }
}

// WithDecodeCacheSize sets the number of decoded inputs kept by DecodeInput.
func WithDecodeCacheSize(n int) Option {
	return func(c *Contract) {
		if n > 0 {
			c.decoded, _ = lru.New(n)
		}
	}
}

// New parses abiJSON and builds the function and event bindings. It fails
// with KindValidation when the API handle is missing or the ABI is empty or
// malformed.
func New(a *api.API, abiJSON string, opts ...Option) (*Contract, error) {
	if a == nil {
		return nil, rpc.Errorf(rpc.KindValidation, "contract: API handle is required")
	}
	if strings.TrimSpace(abiJSON) == "" {
		return nil, rpc.Errorf(rpc.KindValidation, "contract: ABI is required")
	}
	normalized, err := normalizeABI(abiJSON)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindValidation, err, "contract: invalid ABI")
	}
	parsed, err := abi.JSON(strings.NewReader(normalized))
	if err != nil {
		return nil, rpc.Wrap(rpc.KindValidation, err, "contract: invalid ABI")
	}

	c := &Contract{
		api:          a,
		abi:          parsed,
		byName:       make(map[string]*Function),
		bySelector:   make(map[[4]byte]*Function),
		byTopic:      make(map[common.Hash]*Event),
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
	}
	c.decoded, _ = lru.New(DefaultDecodeCacheSize)
	for _, opt := range opts {
		opt(c)
	}

	c.constructor = newFunction(c, parsed.Constructor, true)
	names := make([]string, 0, len(parsed.Methods))
	for name := range parsed.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn := newFunction(c, parsed.Methods[name], false)
		c.functions = append(c.functions, fn)
		c.byName[name] = fn
		c.bySelector[fn.selector] = fn
	}

	eventNames := make([]string, 0, len(parsed.Events))
	for name := range parsed.Events {
		eventNames = append(eventNames, name)
	}
	sort.Strings(eventNames)
	for _, name := range eventNames {
		ev := newEvent(c, parsed.Events[name])
		c.events = append(c.events, ev)
		if !ev.event.Anonymous {
			c.byTopic[ev.event.ID] = ev
		}
	}
	return c, nil
}

// MustNew is New for ABIs known at compile time. It panics on error.
func MustNew(a *api.API, abiJSON string, opts ...Option) *Contract {
	c, err := New(a, abiJSON, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// At binds the contract to address and returns it.
func (c *Contract) At(address string) *Contract {
	addr := common.HexToAddress(address)
	c.mu.Lock()
	c.address = &addr
	c.mu.Unlock()
	return c
}

// Address returns the checksummed bound address, or "" when unbound.
func (c *Contract) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.address == nil {
		return ""
	}
	return c.address.Hex()
}

func (c *Contract) IsBound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address != nil
}

func (c *Contract) boundAddress() *common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.address == nil {
		return nil
	}
	addr := *c.address
	return &addr
}

// ABI returns the parsed ABI.
func (c *Contract) ABI() abi.ABI { return c.abi }

// API returns the module clients the contract talks through.
func (c *Contract) API() *api.API { return c.api }

// Constructor returns the constructor binding. Contracts without an
// explicit constructor get an argument-less one.
func (c *Contract) Constructor() *Function { return c.constructor }

// Function returns the binding for name, or nil.
func (c *Contract) Function(name string) *Function { return c.byName[name] }

// Functions returns every function binding sorted by name.
func (c *Contract) Functions() []*Function { return c.functions }

// Event returns the binding for name, or nil.
func (c *Contract) Event(name string) *Event {
	for _, ev := range c.events {
		if ev.Name == name {
			return ev
		}
	}
	return nil
}

// Events returns every event binding sorted by name.
func (c *Contract) Events() []*Event { return c.events }

func (c *Contract) requireBound() (*common.Address, error) {
	addr := c.boundAddress()
	if addr == nil {
		return nil, rpc.Errorf(rpc.KindValidation, "contract is not bound to an address, use At or Deploy")
	}
	return addr, nil
}

func (c *Contract) String() string {
	if addr := c.Address(); addr != "" {
		return fmt.Sprintf("contract(%s)", addr)
	}
	return "contract(unbound)"
}
