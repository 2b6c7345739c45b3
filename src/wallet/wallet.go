package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/crypto"
	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
)

// Wallet wraps a secp256k1 private key. Its public key, in the form returned
// by PublicKeyString, is the account it controls.
type Wallet struct {
	key *ecdsa.PrivateKey

	id     uint32
	pubHex string
}

// New returns a Wallet with a freshly generated key.
func New() (*Wallet, error) {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	return NewFromKey(key), nil
}

// NewFromKey returns a Wallet using an existing key.
func NewFromKey(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		key:    key,
		id:     keys.PublicKeyID(&key.PublicKey),
		pubHex: keys.PublicKeyHex(&key.PublicKey),
	}
}

// Load reads the key of a Wallet from a key file written by
// keys.SimpleKeyfile.
func Load(keyfile string) (*Wallet, error) {
	key, err := keys.NewSimpleKeyfile(keyfile).ReadKey()
	if err != nil {
		return nil, fmt.Errorf("reading key from %s: %w", keyfile, err)
	}
	return NewFromKey(key), nil
}

// Key returns the private key.
func (w *Wallet) Key() *ecdsa.PrivateKey {
	return w.key
}

// ID returns a short identifier derived from the public key, used in logs.
func (w *Wallet) ID() uint32 {
	return w.id
}

// PublicKeyString returns the account identifier of the wallet.
func (w *Wallet) PublicKeyString() string {
	return w.pubHex
}

// Sign signs payload and returns the encoded signature.
func (w *Wallet) Sign(payload interface{}) (string, error) {
	return crypto.SignPayload(w.key, payload)
}

// CreateTransaction returns a signed transaction of the given kind. Transfers
// are debited from the wallet's account; exchanges are issued by it and have
// no sender.
func (w *Wallet) CreateTransaction(receiver string, amount int64, kind blockchain.Kind) (*blockchain.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", blockchain.ErrInvalidAmount, amount)
	}

	tx := &blockchain.Transaction{
		ID:              uuid.New().String(),
		Kind:            kind,
		Receiver:        receiver,
		Amount:          amount,
		Timestamp:       time.Now().UnixNano(),
		SignerPublicKey: w.PublicKeyString(),
	}

	switch kind {
	case blockchain.KindTransfer:
		tx.Sender = w.PublicKeyString()
	case blockchain.KindExchange:
	default:
		return nil, fmt.Errorf("%w: %v", blockchain.ErrInvalidKind, kind)
	}

	sig, err := w.Sign(tx.Payload())
	if err != nil {
		return nil, err
	}
	tx.Signature = sig

	return tx, nil
}

// CreateBlock returns a block forged and signed by the wallet.
func (w *Wallet) CreateBlock(txs []*blockchain.Transaction, previousHash string, sequence int) (*blockchain.Block, error) {
	block := blockchain.NewBlock(sequence, txs, previousHash, time.Now().UnixNano(), w.PublicKeyString())

	sig, err := w.Sign(block.Payload())
	if err != nil {
		return nil, err
	}
	block.Signature = sig

	return block, nil
}

// VerifySignature checks signature against payload and the public key string
// of its supposed signer. A well-formed signature that does not match returns
// false and no error.
func VerifySignature(payload interface{}, signature string, publicKey string) (bool, error) {
	return crypto.VerifySignature(payload, signature, publicKey)
}
