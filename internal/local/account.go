package local

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Account is one locally stored key. KeyObject is a secret-storage v3 JSON
// wallet; Meta is a JSON encoded object.
type Account struct {
	Address   common.Address
	KeyObject json.RawMessage
	Name      string
	Meta      string
}

// UUID returns the id recorded in the key object, if any.
func (a Account) UUID() string {
	var k struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(a.KeyObject, &k); err != nil {
		return ""
	}
	return k.ID
}

// newAccount encrypts key with password.
func newAccount(key *ecdsa.PrivateKey, password string, scryptN, scryptP int) (Account, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Account{}, fmt.Errorf("generate key id: %w", err)
	}
	k := &keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
	keyJSON, err := keystore.EncryptKey(k, password, scryptN, scryptP)
	if err != nil {
		return Account{}, fmt.Errorf("encrypt key: %w", err)
	}
	return Account{Address: k.Address, KeyObject: keyJSON, Meta: "{}"}, nil
}

// decrypt opens the key object. A wrong password fails with
// KindInvalidPassword.
func (a Account) decrypt(password string) (*ecdsa.PrivateKey, error) {
	k, err := keystore.DecryptKey(a.KeyObject, password)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, rpc.Errorf(rpc.KindInvalidPassword, "invalid password for %s", a.Address.Hex())
	}
	if err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "decrypt key of "+a.Address.Hex())
	}
	if k.Address != a.Address {
		return nil, rpc.Errorf(rpc.KindParse, "key object of %s holds key for %s", a.Address.Hex(), k.Address.Hex())
	}
	return k.PrivateKey, nil
}

// keyObjectAddress reads the address field of a key object.
func keyObjectAddress(keyObject json.RawMessage) (common.Address, error) {
	var k struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(keyObject, &k); err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(k.Address) {
		return common.Address{}, fmt.Errorf("key object address %q is invalid", k.Address)
	}
	return common.HexToAddress(k.Address), nil
}
