package blockchain

import (
	"errors"

	"github.com/mosaicnetworks/stakechain/src/ledger"
)

var (
	// ErrInvalidSignature is returned when a block or transaction signature
	// does not verify, or when a transfer is signed by someone other than its
	// sender.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSequenceMismatch is returned when a block does not directly follow
	// the last block of the chain.
	ErrSequenceMismatch = errors.New("sequence mismatch")

	// ErrHashMismatch is returned when a block does not reference the hash of
	// the last block of the chain.
	ErrHashMismatch = errors.New("previous hash mismatch")

	// ErrDuplicateTransaction is returned when a transaction is already
	// included in the chain, or appears twice in the same block.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidAmount is returned for a non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnauthorizedExchange is returned when an exchange is signed by a key
	// that is not allowed to issue funds.
	ErrUnauthorizedExchange = errors.New("unauthorized exchange")

	// ErrInvalidKind is returned for a transaction kind other than TRANSFER or
	// EXCHANGE.
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrInsufficientBalance is the ledger error surfaced when a block would
	// overdraw an account.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
)
