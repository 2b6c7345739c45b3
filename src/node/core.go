package node

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/mempool"
	"github.com/mosaicnetworks/stakechain/src/wallet"
	"github.com/sirupsen/logrus"
)

//Core is the core Node object. It is not safe for concurrent use; the Node
//guards it with coreLock.
type Core struct {

	// wallet is a wrapper around the private-key controlling this node. It
	// signs the blocks forged by the node.
	wallet *wallet.Wallet

	// chain is the local copy of the blockchain and the ledger it produces.
	chain *blockchain.Blockchain

	// pool contains the transactions that have been accepted but not yet
	// included in a block.
	pool *mempool.TransactionPool

	// seen remembers the identifiers of recently processed transactions and
	// blocks, so that gossip does not loop.
	seen *lru.Cache

	logger *logrus.Entry
}

//NewCore is a factory method that returns a Core instance
func NewCore(
	wallet *wallet.Wallet,
	chain *blockchain.Blockchain,
	seenCacheSize int,
	logger *logrus.Entry) (*Core, error) {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating seen cache: %w", err)
	}

	core := &Core{
		wallet: wallet,
		chain:  chain,
		pool:   mempool.NewTransactionPool(),
		seen:   seen,
		logger: logger.WithField("this_id", wallet.ID()),
	}

	return core, nil
}

func txKey(tx *blockchain.Transaction) string {
	return "tx:" + tx.ID
}

func blockKey(hash string) string {
	return "block:" + hash
}

// Seen reports whether key has already been processed.
func (c *Core) Seen(key string) bool {
	return c.seen.Contains(key)
}

// MarkSeen records key and reports whether it had already been processed.
func (c *Core) MarkSeen(key string) bool {
	ok, _ := c.seen.ContainsOrAdd(key, struct{}{})
	return ok
}

// AddTransaction checks tx and adds it to the pool. It returns
// ErrDuplicateTransaction if the transaction is already pending or on the
// chain. Balances are not checked here; they are checked when the transaction
// is picked for a block.
func (c *Core) AddTransaction(tx *blockchain.Transaction) error {
	if c.pool.Exists(tx) || c.chain.TransactionExists(tx) {
		return fmt.Errorf("transaction %s: %w", tx.ID, blockchain.ErrDuplicateTransaction)
	}

	if err := tx.Verify(); err != nil {
		return err
	}

	if !c.chain.Authorized(tx) {
		return fmt.Errorf("transaction %s: %w", tx.ID, blockchain.ErrUnauthorizedExchange)
	}

	c.pool.Add(tx)
	c.seen.Add(txKey(tx), struct{}{})

	c.logger.WithFields(logrus.Fields{
		"id":   tx.ID,
		"kind": tx.Kind,
		"pool": c.pool.Len(),
	}).Debug("Added transaction to pool")

	return nil
}

// CommitBlock appends b to the chain and removes its transactions from the
// pool.
func (c *Core) CommitBlock(b *blockchain.Block) error {
	if err := c.chain.Append(b); err != nil {
		return err
	}

	c.seen.Add(blockKey(c.chain.LastBlockHash()), struct{}{})
	removed := c.pool.Remove(b.Transactions)

	c.logger.WithFields(logrus.Fields{
		"sequence":     b.Sequence,
		"transactions": len(b.Transactions),
		"removed":      removed,
		"pool":         c.pool.Len(),
	}).Debug("Committed block")

	return nil
}

// Forge builds a block out of the covered part of the pool, signs it, and
// commits it. It returns nil, and no error, when nothing in the pool can be
// included.
func (c *Core) Forge() (*blockchain.Block, error) {
	covered := c.chain.GetCoveredTransactions(c.pool.Transactions())
	if len(covered) == 0 {
		return nil, nil
	}

	last := c.chain.LastBlock()

	block, err := c.wallet.CreateBlock(covered, c.chain.LastBlockHash(), last.Sequence+1)
	if err != nil {
		return nil, err
	}

	if err := c.CommitBlock(block); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"sequence":     block.Sequence,
		"transactions": len(block.Transactions),
	}).Debug("Forged block")

	return block, nil
}

// TipSequence returns the sequence of the last block of the chain.
func (c *Core) TipSequence() int {
	return c.chain.LastBlock().Sequence
}

// Chain returns the underlying Blockchain.
func (c *Core) Chain() *blockchain.Blockchain {
	return c.chain
}

// Pool returns the underlying TransactionPool.
func (c *Core) Pool() *mempool.TransactionPool {
	return c.pool
}
