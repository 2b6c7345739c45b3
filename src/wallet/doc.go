// Package wallet holds the key pair of a node and uses it to create signed
// transactions and blocks.
package wallet
