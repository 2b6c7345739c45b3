package blockchain

import (
	"fmt"

	"github.com/mosaicnetworks/stakechain/src/crypto"
)

// TransactionPayload is the part of a Transaction covered by its signature.
type TransactionPayload struct {
	ID              string `json:"id"`
	Kind            Kind   `json:"type"`
	Sender          string `json:"senderPublicKey"`
	Receiver        string `json:"receiverPublicKey"`
	Amount          int64  `json:"amount"`
	Timestamp       int64  `json:"timestamp"`
	SignerPublicKey string `json:"signerPublicKey"`
}

// Transaction is a signed instruction to move or issue funds. For a transfer,
// Sender is the signer's public key; for an exchange, Sender is empty and
// SignerPublicKey identifies the issuer.
type Transaction struct {
	ID              string `json:"id"`
	Kind            Kind   `json:"type"`
	Sender          string `json:"senderPublicKey"`
	Receiver        string `json:"receiverPublicKey"`
	Amount          int64  `json:"amount"`
	Timestamp       int64  `json:"timestamp"`
	SignerPublicKey string `json:"signerPublicKey"`
	Signature       string `json:"signature"`
}

// Payload returns every field of the transaction except the signature.
func (tx *Transaction) Payload() TransactionPayload {
	return TransactionPayload{
		ID:              tx.ID,
		Kind:            tx.Kind,
		Sender:          tx.Sender,
		Receiver:        tx.Receiver,
		Amount:          tx.Amount,
		Timestamp:       tx.Timestamp,
		SignerPublicKey: tx.SignerPublicKey,
	}
}

// Hash returns the hex SHA256 of the transaction payload.
func (tx *Transaction) Hash() (string, error) {
	return crypto.HashPayloadHex(tx.Payload())
}

// Operation returns the ledger effect of the transaction.
func (tx *Transaction) Operation() (Operation, error) {
	switch tx.Kind {
	case KindTransfer:
		return Transfer{From: tx.Sender, To: tx.Receiver, Amount: tx.Amount}, nil
	case KindExchange:
		return Exchange{Issuer: tx.Issuer(), To: tx.Receiver, Amount: tx.Amount}, nil
	default:
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, ErrInvalidKind)
	}
}

// Issuer returns the account that authorised the transaction.
func (tx *Transaction) Issuer() string {
	if tx.Kind == KindTransfer {
		return tx.Sender
	}
	return tx.SignerPublicKey
}

// Verify checks that the transaction is well formed and that its signature
// matches its payload. It does not look at balances.
func (tx *Transaction) Verify() error {
	if !tx.Kind.Valid() {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrInvalidKind)
	}

	if tx.Amount <= 0 {
		return fmt.Errorf("transaction %s: %w: %d", tx.ID, ErrInvalidAmount, tx.Amount)
	}

	switch tx.Kind {
	case KindTransfer:
		if tx.Sender != tx.SignerPublicKey {
			return fmt.Errorf("transaction %s: signer is not the sender: %w", tx.ID, ErrInvalidSignature)
		}
	case KindExchange:
		if tx.Sender != "" {
			return fmt.Errorf("transaction %s: exchange with a sender: %w", tx.ID, ErrInvalidSignature)
		}
	}

	ok, err := crypto.VerifySignature(tx.Payload(), tx.Signature, tx.SignerPublicKey)
	if err != nil {
		return fmt.Errorf("transaction %s: %v: %w", tx.ID, err, ErrInvalidSignature)
	}
	if !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrInvalidSignature)
	}

	return nil
}

// Marshal returns the canonical JSON encoding of the transaction.
func (tx *Transaction) Marshal() ([]byte, error) {
	return crypto.Canonical(tx)
}

// Unmarshal decodes a transaction produced by Marshal.
func (tx *Transaction) Unmarshal(data []byte) error {
	return crypto.DecodeCanonical(data, tx)
}
