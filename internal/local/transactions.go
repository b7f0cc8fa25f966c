package local

import (
	"math/big"
	"sort"
	"sync"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// RequestState is the lifecycle position of a queued transaction.
type RequestState string

const (
	StateQueued    RequestState = "queued"
	StateLocked    RequestState = "locked"
	StateConfirmed RequestState = "confirmed"
	StateRejected  RequestState = "rejected"
)

// Request is a transaction waiting for local signing.
type Request struct {
	ID    uint64
	Tx    format.CallRequest
	State RequestState
	Hash  string
}

// Requests is the queue of locally posted transactions. Ids increase
// monotonically from 1.
type Requests struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*Request
}

func NewRequests() *Requests {
	return &Requests{nextID: 1, items: make(map[uint64]*Request)}
}

// Add queues tx and returns its id.
func (q *Requests) Add(tx format.CallRequest) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextID
	q.nextID++
	q.items[id] = &Request{ID: id, Tx: tx.Copy(), State: StateQueued}
	return id
}

func (q *Requests) get(id uint64) (*Request, error) {
	r, ok := q.items[id]
	if !ok {
		return nil, rpc.Errorf(rpc.KindUnknownRequest, "unknown request %d", id)
	}
	return r, nil
}

// Get returns a copy of request id.
func (q *Requests) Get(id uint64) (Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, err := q.get(id)
	if err != nil {
		return Request{}, err
	}
	return *r, nil
}

// Lock moves a queued request to locked and returns a copy of it.
func (q *Requests) Lock(id uint64) (Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, err := q.get(id)
	if err != nil {
		return Request{}, err
	}
	switch r.State {
	case StateLocked:
		return Request{}, rpc.Errorf(rpc.KindRequestLocked, "request %d is being confirmed", id)
	case StateConfirmed, StateRejected:
		return Request{}, rpc.Errorf(rpc.KindUnknownRequest, "request %d is already %s", id, r.State)
	}
	r.State = StateLocked
	return *r, nil
}

// Unlock returns a locked request to the queue.
func (q *Requests) Unlock(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if r, ok := q.items[id]; ok && r.State == StateLocked {
		r.State = StateQueued
	}
}

// Confirm records the transaction hash of request id.
func (q *Requests) Confirm(id uint64, hash string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if r, ok := q.items[id]; ok {
		r.State = StateConfirmed
		r.Hash = hash
	}
}

// Reject drops a queued request. Locked or finished requests are left
// alone and false is returned.
func (q *Requests) Reject(id uint64) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, err := q.get(id)
	if err != nil {
		return false, err
	}
	if r.State != StateQueued {
		return false, nil
	}
	r.State = StateRejected
	return true, nil
}

// Hash returns the transaction hash of a confirmed request and "" while it
// is still pending. A rejected request fails with KindRequestRejected.
func (q *Requests) Hash(id uint64) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, err := q.get(id)
	if err != nil {
		return "", err
	}
	if r.State == StateRejected {
		return "", rpc.Errorf(rpc.KindRequestRejected, "request %d was rejected", id)
	}
	return r.Hash, nil
}

// Queued returns the requests waiting for confirmation, oldest first.
func (q *Requests) Queued() []Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Request
	for _, r := range q.items {
		if r.State == StateQueued {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// wire renders r in the signer_requestsToConfirm format.
func (r Request) wire() map[string]interface{} {
	return map[string]interface{}{
		"id":     format.InNumber16(new(big.Int).SetUint64(r.ID)),
		"origin": map[string]interface{}{"signer": "local"},
		"payload": map[string]interface{}{
			"sendTransaction": format.InOptions(r.Tx),
		},
	}
}
