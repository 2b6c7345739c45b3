// Package node implements a stakechain node: the component that accepts
// transactions, forges blocks, and gossips both with its peers.
//
// A Node owns a Core, which groups the blockchain, the ledger derived from it,
// the pool of pending transactions, and the set of recently seen messages.
// All access to the Core goes through a single read-write lock. Messages
// received from the transport are processed one at a time by a dispatcher
// routine, and relayed to every peer except the one they came from once the
// lock has been released.
//
// # Messages
//
// NewTransactionMessage: the transaction is verified and added to the pool. If
// the pool reaches the forge threshold, and the node is a forger, a block is
// forged right away.
//
// NewBlockMessage: the block is appended to the chain and its transactions are
// removed from the pool. A block that is too far ahead of the local tip causes
// a BlockchainRequest to be sent to its sender; any other invalid block is
// dropped.
//
// BlockchainRequest / BlockchainResponse: used by a node that connects to a
// peer, or that falls behind, to download the blocks it is missing.
//
// # Forging
//
// A forger periodically collects the transactions of its pool that the ledger
// can cover, wraps them in a block signed with its key, appends it to its own
// chain, and broadcasts it. There is no fork resolution: blocks that conflict
// with the local chain are rejected.
package node
