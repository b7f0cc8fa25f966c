package local

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/sha3"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// brainRounds is the number of keccak rounds applied to a phrase before
// candidate secrets are tried.
const brainRounds = 16384

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// PhraseToKey derives the brain wallet of a recovery phrase: the phrase is
// hashed brainRounds times, then hashed further until the secret is a
// valid key whose address starts with a zero byte.
func PhraseToKey(phrase string) *ecdsa.PrivateKey {
	secret := keccak([]byte(phrase))
	for i := 0; i < brainRounds; i++ {
		secret = keccak(secret)
	}
	for {
		secret = keccak(secret)
		key, err := crypto.ToECDSA(secret)
		if err != nil {
			continue
		}
		if crypto.PubkeyToAddress(key.PublicKey)[0] == 0 {
			return key
		}
	}
}

// PhraseToAddress returns the address of the brain wallet of phrase.
func PhraseToAddress(phrase string) common.Address {
	return crypto.PubkeyToAddress(PhraseToKey(phrase).PublicKey)
}

// GeneratePhrase returns a random 12 word BIP-39 mnemonic.
func GeneratePhrase() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// SecretToKey parses a hex private key, with or without 0x.
func SecretToKey(secret string) (*ecdsa.PrivateKey, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(secret), "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindInvalidSecret, err, "invalid secret key")
	}
	return key, nil
}
