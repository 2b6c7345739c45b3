package mempool

import (
	"github.com/mosaicnetworks/stakechain/src/blockchain"
)

// TransactionPool is an insertion-ordered set of pending transactions keyed
// by transaction id. It is not safe for concurrent use.
type TransactionPool struct {
	transactions []*blockchain.Transaction
	byID         map[string]*blockchain.Transaction
}

// NewTransactionPool returns an empty pool.
func NewTransactionPool() *TransactionPool {
	return &TransactionPool{
		transactions: []*blockchain.Transaction{},
		byID:         make(map[string]*blockchain.Transaction),
	}
}

// Exists reports whether a transaction with the same id is in the pool.
func (p *TransactionPool) Exists(tx *blockchain.Transaction) bool {
	_, ok := p.byID[tx.ID]
	return ok
}

// Add inserts tx at the end of the pool. It returns false, and leaves the pool
// unchanged, if a transaction with the same id is already present.
func (p *TransactionPool) Add(tx *blockchain.Transaction) bool {
	if p.Exists(tx) {
		return false
	}
	p.byID[tx.ID] = tx
	p.transactions = append(p.transactions, tx)
	return true
}

// Remove deletes the given transactions from the pool. Transactions that are
// not in the pool are ignored. It returns the number of removed transactions.
func (p *TransactionPool) Remove(txs []*blockchain.Transaction) int {
	removed := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if _, ok := p.byID[tx.ID]; ok {
			delete(p.byID, tx.ID)
			removed[tx.ID] = struct{}{}
		}
	}

	if len(removed) == 0 {
		return 0
	}

	kept := make([]*blockchain.Transaction, 0, len(p.transactions)-len(removed))
	for _, tx := range p.transactions {
		if _, ok := removed[tx.ID]; !ok {
			kept = append(kept, tx)
		}
	}
	p.transactions = kept

	return len(removed)
}

// Transactions returns the pending transactions in insertion order. The
// returned slice is a copy.
func (p *TransactionPool) Transactions() []*blockchain.Transaction {
	res := make([]*blockchain.Transaction, len(p.transactions))
	copy(res, p.transactions)
	return res
}

// Len returns the number of pending transactions.
func (p *TransactionPool) Len() int {
	return len(p.transactions)
}
