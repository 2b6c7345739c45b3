// Package blockchain implements the transactions, blocks and chain of a
// stakechain node.
//
// A Blockchain is an ordered list of blocks starting at a fixed genesis block.
// Every other block links to its predecessor by sequence number and by the
// hash of its payload, and carries the signature of the node that forged it.
// Appending a block applies all the balance adjustments of its transactions to
// an AccountModel as one atomic batch; a block that fails any check leaves the
// chain, the ledger and the underlying Store untouched.
//
// Blocks are persisted through the Store interface. InmemStore keeps them in
// memory, while BadgerStore writes them to a badger database so that a node
// can be restarted and replay its chain into a fresh ledger.
package blockchain
