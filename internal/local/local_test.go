package local

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

const (
	testSecret  = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func newTestAccounts(t *testing.T, storage Storage, opts ...AccountsOption) *Accounts {
	t.Helper()
	opts = append([]AccountsOption{
		WithScrypt(keystore.LightScryptN, keystore.LightScryptP),
		WithPersistDelay(0),
	}, opts...)
	a, err := NewAccounts(storage, nil, opts...)
	require.NoError(t, err)
	return a
}

func importTestKey(t *testing.T, a *Accounts, password string) common.Address {
	t.Helper()
	key, err := SecretToKey(testSecret)
	require.NoError(t, err)
	addr, err := a.Create(context.Background(), key, password)
	require.NoError(t, err)
	return addr
}

func TestStorageBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		open func() (Storage, error)
	}{
		{"memory", func() (Storage, error) { return OpenStorage("memory", "") }},
		{"file", func() (Storage, error) { return OpenStorage("file", dir+"/file") }},
		{"leveldb", func() (Storage, error) { return OpenStorage("leveldb", dir+"/leveldb") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.open()
			require.NoError(t, err)
			defer s.Close()

			v, err := s.Get(StorageKey)
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, s.Put(StorageKey, []byte(`{"last":""}`)))
			require.NoError(t, s.Put(StorageKey, []byte(`{"last":"0x01"}`)))
			v, err = s.Get(StorageKey)
			require.NoError(t, err)
			assert.JSONEq(t, `{"last":"0x01"}`, string(v))
		})
	}

	_, err := OpenStorage("redis", "")
	assert.Error(t, err)
}

func TestSecretToKey(t *testing.T) {
	tests := []struct {
		secret  string
		wantErr bool
	}{
		{testSecret, false},
		{strings.TrimPrefix(testSecret, "0x"), false},
		{"0x1234", true},
		{"0x" + strings.Repeat("0", 64), true},
		{"not hex", true},
	}
	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			key, err := SecretToKey(tt.secret)
			if tt.wantErr {
				assert.Equal(t, rpc.KindInvalidSecret, rpc.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, key)
		})
	}
}

func TestPhraseToAddress(t *testing.T) {
	addr := PhraseToAddress("this is a test phrase")
	assert.Equal(t, byte(0), addr[0], "brain wallet addresses start with a zero byte")
	assert.Equal(t, addr, PhraseToAddress("this is a test phrase"))
	assert.NotEqual(t, addr, PhraseToAddress("another test phrase"))
}

func TestPhraseToAddressKnownVector(t *testing.T) {
	assert.Equal(t,
		common.HexToAddress("0x00a329c0648769A73afAc7F9381E08FB43dBEA72"),
		PhraseToAddress(""))
}

func TestGeneratePhrase(t *testing.T) {
	phrase, err := GeneratePhrase()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 12)
	assert.True(t, bip39.IsMnemonicValid(phrase))
}

func TestWorkerPoolRun(t *testing.T) {
	w := NewWorkerPool(2, 4)
	defer w.Close()

	v, err := Run(context.Background(), w, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Run(context.Background(), nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err = Run(ctx, w, func() (int, error) { <-release; return 0, nil })
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	w := NewWorkerPool(1, 1)
	defer w.Close()

	release := make(chan struct{})
	blocked := func() (int, error) { <-release; return 1, nil }

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Run(context.Background(), w, blocked)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	busy := 0
	for _, err := range errs {
		if rpc.KindOf(err) == rpc.KindBusy {
			busy++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Positive(t, busy, "a full queue rejects instead of waiting")
}

func TestAccountsGetIsCaseInsensitive(t *testing.T) {
	a := newTestAccounts(t, nil)
	addr := importTestKey(t, a, "pw")
	assert.Equal(t, testAddress, addr.Hex())

	other, err := SecretToKey("0x" + strings.Repeat("11", 32))
	require.NoError(t, err)
	otherAddr, err := a.Create(context.Background(), other, "pw")
	require.NoError(t, err)
	assert.Equal(t, otherAddr, a.Last())

	for _, form := range []string{strings.ToLower(testAddress), strings.ToUpper("0x" + testAddress[2:]), testAddress} {
		acc, ok := a.Get(form)
		require.True(t, ok, form)
		assert.Equal(t, addr, acc.Address)
		assert.Equal(t, addr, a.Last(), "get updates the last address")
	}

	_, ok := a.Get("0x0000000000000000000000000000000000000001")
	assert.False(t, ok)
	_, ok = a.Get("garbage")
	assert.False(t, ok)
}

func TestAccountsRemove(t *testing.T) {
	storage := NewMemoryStorage()
	a := newTestAccounts(t, storage)
	addr := importTestKey(t, a, "pw")
	require.Equal(t, addr, a.Last())

	ok, err := a.Remove(context.Background(), testAddress, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, a.Has(testAddress), "wrong password leaves the account")

	ok, err = a.Remove(context.Background(), strings.ToLower(testAddress), "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, a.Has(testAddress))
	assert.Equal(t, common.Address{}, a.Last())

	raw, err := storage.Get(StorageKey)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Empty(t, doc.Store)
	assert.Equal(t, strings.ToLower(common.Address{}.Hex()), doc.Last)

	_, err = a.Remove(context.Background(), testAddress, "pw")
	assert.Equal(t, rpc.KindUnknownAccount, rpc.KindOf(err))
}

func TestAccountsPersistence(t *testing.T) {
	storage := NewMemoryStorage()
	a := newTestAccounts(t, storage, WithPersistDelay(time.Hour))
	importTestKey(t, a, "pw")
	require.NoError(t, a.SetName(testAddress, "main"))
	require.NoError(t, a.SetMeta(testAddress, `{"tags":["x"]}`))

	raw, err := storage.Get(StorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw, "writes are debounced")
	require.NoError(t, a.Flush())

	reloaded := newTestAccounts(t, storage)
	acc, ok := reloaded.Get(testAddress)
	require.True(t, ok)
	assert.Equal(t, "main", acc.Name)
	assert.JSONEq(t, `{"tags":["x"]}`, acc.Meta)
	assert.NotEmpty(t, acc.UUID())
	assert.Equal(t, common.HexToAddress(testAddress), reloaded.Last())

	assert.Equal(t, rpc.KindValidation, rpc.KindOf(reloaded.SetMeta(testAddress, "[1,2")))
	assert.Equal(t, rpc.KindUnknownAccount, rpc.KindOf(reloaded.SetName("0x0000000000000000000000000000000000000001", "x")))
}

func TestAccountsPasswords(t *testing.T) {
	a := newTestAccounts(t, nil)
	importTestKey(t, a, "pw")
	ctx := context.Background()

	ok, err := a.TestPassword(ctx, testAddress, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = a.TestPassword(ctx, testAddress, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.ChangePassword(ctx, testAddress, "nope", "new")
	assert.Equal(t, rpc.KindInvalidPassword, rpc.KindOf(err))
	ok, err = a.ChangePassword(ctx, testAddress, "pw", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.Decrypt(ctx, testAddress, "pw")
	assert.Equal(t, rpc.KindInvalidPassword, rpc.KindOf(err))
	key, err := a.Decrypt(ctx, testAddress, "new")
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestRequestsLifecycle(t *testing.T) {
	q := NewRequests()
	first := q.Add(txRequest())
	second := q.Add(txRequest())
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	_, err := q.Lock(first)
	require.NoError(t, err)
	_, err = q.Lock(first)
	assert.Equal(t, rpc.KindRequestLocked, rpc.KindOf(err))
	assert.Len(t, q.Queued(), 1)

	q.Unlock(first)
	queued := q.Queued()
	require.Len(t, queued, 2)
	assert.Equal(t, first, queued[0].ID)

	ok, err := q.Reject(second)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = q.Hash(second)
	assert.Equal(t, rpc.KindRequestRejected, rpc.KindOf(err))

	hash, err := q.Hash(first)
	require.NoError(t, err)
	assert.Empty(t, hash)
	q.Confirm(first, "0xabc")
	hash, err = q.Hash(first)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)

	_, err = q.Hash(99)
	assert.Equal(t, rpc.KindUnknownRequest, rpc.KindOf(err))
}
