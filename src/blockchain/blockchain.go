package blockchain

import (
	"fmt"

	"github.com/mosaicnetworks/stakechain/src/ledger"
	"github.com/sirupsen/logrus"
)

// Blockchain is the ordered list of blocks accepted by a node, together with
// the AccountModel obtained by applying them. It is not safe for concurrent
// use; the node serialises access to it.
type Blockchain struct {
	store    Store
	accounts *ledger.AccountModel

	// tip caches the last block and its hash
	tip     *Block
	tipHash string

	// included maps the id of every transaction on the chain to the sequence
	// of its block
	included map[string]int

	// authorities is the set of keys allowed to sign exchanges. An empty set
	// allows any key.
	authorities map[string]struct{}

	logger *logrus.Entry
}

// NewBlockchain returns a Blockchain backed by store. An empty store is
// initialised with the genesis block. Otherwise, the stored blocks are
// checked and replayed into accounts, which should be empty.
func NewBlockchain(store Store, accounts *ledger.AccountModel, logger *logrus.Entry) (*Blockchain, error) {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	bc := &Blockchain{
		store:       store,
		accounts:    accounts,
		included:    make(map[string]int),
		authorities: make(map[string]struct{}),
		logger:      logger.WithField("component", "blockchain"),
	}

	if store.LastBlockSequence() < 0 {
		genesis := NewGenesisBlock()
		if err := store.SetBlock(genesis); err != nil {
			return nil, err
		}
		if err := bc.setTip(genesis); err != nil {
			return nil, err
		}
		return bc, nil
	}

	if err := bc.replay(store.Blocks()); err != nil {
		return nil, err
	}

	return bc, nil
}

// replay rebuilds the ledger and the index of included transactions from
// blocks that are already in the store.
func (bc *Blockchain) replay(blocks []*Block) error {
	if len(blocks) == 0 || !blocks[0].IsGenesis() {
		return fmt.Errorf("stored chain does not start with the genesis block")
	}

	if err := bc.setTip(blocks[0]); err != nil {
		return err
	}

	for _, b := range blocks[1:] {
		entries, err := bc.validate(b)
		if err != nil {
			return fmt.Errorf("replaying block %d: %w", b.Sequence, err)
		}

		if err := bc.accounts.Apply(entries); err != nil {
			return fmt.Errorf("replaying block %d: %w", b.Sequence, err)
		}

		if err := bc.setTip(b); err != nil {
			return err
		}
	}

	bc.logger.WithFields(logrus.Fields{
		"blocks":       len(blocks),
		"transactions": len(bc.included),
	}).Debug("Replayed chain")

	return nil
}

// SetExchangeAuthorities restricts the keys allowed to sign exchanges. Calling
// it with no keys lifts the restriction.
func (bc *Blockchain) SetExchangeAuthorities(keys []string) {
	bc.authorities = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		bc.authorities[k] = struct{}{}
	}
}

// Accounts returns the AccountModel maintained by the chain.
func (bc *Blockchain) Accounts() *ledger.AccountModel {
	return bc.accounts
}

// Store returns the underlying Store.
func (bc *Blockchain) Store() Store {
	return bc.store
}

// LastBlock returns the last block of the chain.
func (bc *Blockchain) LastBlock() *Block {
	return bc.tip
}

// LastBlockHash returns the hash of the last block of the chain.
func (bc *Blockchain) LastBlockHash() string {
	return bc.tipHash
}

// Len returns the number of blocks, genesis included.
func (bc *Blockchain) Len() int {
	return bc.tip.Sequence + 1
}

// Blocks returns the whole chain in order.
func (bc *Blockchain) Blocks() []*Block {
	return bc.store.Blocks()
}

// BlocksFrom returns the blocks whose sequence is greater than or equal to
// sequence.
func (bc *Blockchain) BlocksFrom(sequence int) []*Block {
	if sequence < 0 {
		sequence = 0
	}

	res := []*Block{}
	for i := sequence; i <= bc.tip.Sequence; i++ {
		b, err := bc.store.GetBlock(i)
		if err != nil {
			bc.logger.WithError(err).WithField("sequence", i).Error("Missing block")
			break
		}
		res = append(res, b)
	}

	return res
}

// TransactionExists reports whether a transaction with the same id is
// already on the chain.
func (bc *Blockchain) TransactionExists(tx *Transaction) bool {
	_, ok := bc.included[tx.ID]
	return ok
}

// BlockCountValid reports whether b directly follows the last block.
func (bc *Blockchain) BlockCountValid(b *Block) bool {
	return b.Sequence == bc.tip.Sequence+1
}

// LastBlockHashValid reports whether b references the hash of the last
// block.
func (bc *Blockchain) LastBlockHashValid(b *Block) bool {
	return b.PreviousHash == bc.tipHash
}

// SignatureValid reports whether the forger signature of b is valid.
func (bc *Blockchain) SignatureValid(b *Block) bool {
	return b.VerifySignature() == nil
}

// Authorized reports whether tx may be issued by its signer. Only exchanges
// are restricted.
func (bc *Blockchain) Authorized(tx *Transaction) bool {
	if tx.Kind != KindExchange || len(bc.authorities) == 0 {
		return true
	}
	_, ok := bc.authorities[tx.Issuer()]
	return ok
}

// GetCoveredTransactions returns, in order, the subset of pending that could
// be included in the next block. Transactions are simulated one after the
// other on a copy of the ledger, so a transfer is only covered if its sender
// can afford it after every previously covered transaction. Transactions that
// are already on the chain, badly signed, or unauthorised are skipped. The
// chain and the ledger are not modified.
func (bc *Blockchain) GetCoveredTransactions(pending []*Transaction) []*Transaction {
	simulated := bc.accounts.Copy()
	selected := make(map[string]struct{})
	covered := []*Transaction{}

	for _, tx := range pending {
		if _, ok := selected[tx.ID]; ok {
			continue
		}

		entries, err := bc.checkTransaction(tx)
		if err != nil {
			continue
		}

		if err := simulated.Apply(entries); err != nil {
			continue
		}

		selected[tx.ID] = struct{}{}
		covered = append(covered, tx)
	}

	return covered
}

// Append validates b against the tip of the chain and, if every check
// passes, applies its transactions to the ledger, writes it to the store and
// makes it the new tip. On error nothing is modified.
func (bc *Blockchain) Append(b *Block) error {
	entries, err := bc.validate(b)
	if err != nil {
		return err
	}

	if err := bc.accounts.Check(entries); err != nil {
		return fmt.Errorf("block %d: %w", b.Sequence, err)
	}

	hash, err := b.Hash()
	if err != nil {
		return fmt.Errorf("hashing block %d: %w", b.Sequence, err)
	}

	if err := bc.store.SetBlock(b); err != nil {
		return fmt.Errorf("block %d: %w", b.Sequence, err)
	}

	if err := bc.accounts.Apply(entries); err != nil {
		return fmt.Errorf("block %d: %w", b.Sequence, err)
	}

	bc.commit(b, hash)

	bc.logger.WithFields(logrus.Fields{
		"sequence":     b.Sequence,
		"transactions": len(b.Transactions),
		"hash":         bc.tipHash,
	}).Debug("Appended block")

	return nil
}

// validate runs every check of Append except the balance check, and returns
// the ledger entries of the block.
func (bc *Blockchain) validate(b *Block) ([]ledger.Entry, error) {
	if !bc.BlockCountValid(b) {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrSequenceMismatch, b.Sequence, bc.tip.Sequence+1)
	}

	if !bc.LastBlockHashValid(b) {
		return nil, fmt.Errorf("block %d: %w", b.Sequence, ErrHashMismatch)
	}

	if err := b.VerifySignature(); err != nil {
		return nil, err
	}

	entries := []ledger.Entry{}
	inBlock := make(map[string]struct{}, len(b.Transactions))

	for _, tx := range b.Transactions {
		if tx == nil {
			return nil, fmt.Errorf("block %d: nil transaction: %w", b.Sequence, ErrInvalidKind)
		}

		if _, ok := inBlock[tx.ID]; ok {
			return nil, fmt.Errorf("block %d: transaction %s: %w", b.Sequence, tx.ID, ErrDuplicateTransaction)
		}
		inBlock[tx.ID] = struct{}{}

		txEntries, err := bc.checkTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", b.Sequence, err)
		}

		entries = append(entries, txEntries...)
	}

	return entries, nil
}

// checkTransaction runs the stateless checks of tx plus the chain-level ones
// (replay and authority), and returns its ledger entries.
func (bc *Blockchain) checkTransaction(tx *Transaction) ([]ledger.Entry, error) {
	if bc.TransactionExists(tx) {
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, ErrDuplicateTransaction)
	}

	if err := tx.Verify(); err != nil {
		return nil, err
	}

	if !bc.Authorized(tx) {
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, ErrUnauthorizedExchange)
	}

	op, err := tx.Operation()
	if err != nil {
		return nil, err
	}

	return op.Entries(), nil
}

// commit makes b the tip and indexes its transactions. b must already be in
// the store.
func (bc *Blockchain) commit(b *Block, hash string) {
	bc.tip = b
	bc.tipHash = hash
	for _, tx := range b.Transactions {
		bc.included[tx.ID] = b.Sequence
	}
}

func (bc *Blockchain) setTip(b *Block) error {
	hash, err := b.Hash()
	if err != nil {
		return fmt.Errorf("hashing block %d: %w", b.Sequence, err)
	}
	bc.commit(b, hash)
	return nil
}
