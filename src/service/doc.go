// Package service exposes a stakechain node over HTTP.
//
// Routes:
//
//	POST /transaction        submit a signed transaction, returns {"id": ...}
//	GET  /blockchain[?from=] the blocks of the chain
//	GET  /transactionpool    the pending transactions
//	GET  /balance/{account}  the balance of an account
//	GET  /stats              node statistics
//	GET  /peers              connected peers
//
// Transactions and blocks use the same JSON representation as on the wire.
package service
