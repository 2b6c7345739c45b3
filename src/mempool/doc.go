// Package mempool holds the transactions a node has accepted but not yet seen
// in a block.
package mempool
