package blockchain

import (
	"fmt"

	"github.com/mosaicnetworks/stakechain/src/crypto"
)

const (
	// GenesisPreviousHash is the PreviousHash of the genesis block.
	GenesisPreviousHash = "genesisHash"
	// GenesisForger is the ForgerPublicKey of the genesis block.
	GenesisForger = "genesis"
)

// BlockPayload is the part of a Block covered by the forger's signature and by
// the block hash.
type BlockPayload struct {
	Sequence        int            `json:"sequence"`
	Transactions    []*Transaction `json:"transactions"`
	PreviousHash    string         `json:"previousHash"`
	Timestamp       int64          `json:"timestamp"`
	ForgerPublicKey string         `json:"forgerPublicKey"`
}

// Block is an ordered batch of transactions, linked to its predecessor and
// signed by its forger.
type Block struct {
	Sequence        int            `json:"sequence"`
	Transactions    []*Transaction `json:"transactions"`
	PreviousHash    string         `json:"previousHash"`
	Timestamp       int64          `json:"timestamp"`
	ForgerPublicKey string         `json:"forgerPublicKey"`
	Signature       string         `json:"signature"`
}

// NewGenesisBlock returns the fixed first block of every chain.
func NewGenesisBlock() *Block {
	return &Block{
		Sequence:        0,
		Transactions:    []*Transaction{},
		PreviousHash:    GenesisPreviousHash,
		Timestamp:       0,
		ForgerPublicKey: GenesisForger,
	}
}

// NewBlock returns an unsigned block.
func NewBlock(sequence int, txs []*Transaction, previousHash string, timestamp int64, forger string) *Block {
	if txs == nil {
		txs = []*Transaction{}
	}
	return &Block{
		Sequence:        sequence,
		Transactions:    txs,
		PreviousHash:    previousHash,
		Timestamp:       timestamp,
		ForgerPublicKey: forger,
	}
}

// Payload returns every field of the block except the signature.
func (b *Block) Payload() BlockPayload {
	txs := b.Transactions
	if txs == nil {
		txs = []*Transaction{}
	}
	return BlockPayload{
		Sequence:        b.Sequence,
		Transactions:    txs,
		PreviousHash:    b.PreviousHash,
		Timestamp:       b.Timestamp,
		ForgerPublicKey: b.ForgerPublicKey,
	}
}

// Hash returns the lowercase hex SHA256 of the block payload.
func (b *Block) Hash() (string, error) {
	return crypto.HashPayloadHex(b.Payload())
}

// IsGenesis reports whether b is identical to the genesis block.
func (b *Block) IsGenesis() bool {
	return b.Sequence == 0 &&
		len(b.Transactions) == 0 &&
		b.PreviousHash == GenesisPreviousHash &&
		b.Timestamp == 0 &&
		b.ForgerPublicKey == GenesisForger &&
		b.Signature == ""
}

// VerifySignature checks the forger's signature over the block payload.
func (b *Block) VerifySignature() error {
	ok, err := crypto.VerifySignature(b.Payload(), b.Signature, b.ForgerPublicKey)
	if err != nil {
		return fmt.Errorf("block %d: %v: %w", b.Sequence, err, ErrInvalidSignature)
	}
	if !ok {
		return fmt.Errorf("block %d: %w", b.Sequence, ErrInvalidSignature)
	}
	return nil
}

// Marshal returns the canonical JSON encoding of the block.
func (b *Block) Marshal() ([]byte, error) {
	return crypto.Canonical(b)
}

// Unmarshal decodes a block produced by Marshal.
func (b *Block) Unmarshal(data []byte) error {
	return crypto.DecodeCanonical(data, b)
}
