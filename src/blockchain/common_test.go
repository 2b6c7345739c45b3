package blockchain

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mosaicnetworks/stakechain/src/common"
	"github.com/mosaicnetworks/stakechain/src/crypto"
	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
	"github.com/mosaicnetworks/stakechain/src/ledger"
)

type account struct {
	key *ecdsa.PrivateKey
	pub string
}

func newAccount(t testing.TB) *account {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}
	return &account{
		key: key,
		pub: keys.PublicKeyHex(&key.PublicKey),
	}
}

func (a *account) sign(t testing.TB, tx *Transaction) *Transaction {
	sig, err := crypto.SignPayload(a.key, tx.Payload())
	if err != nil {
		t.Fatal(err)
	}
	tx.Signature = sig
	return tx
}

func (a *account) transfer(t testing.TB, to string, amount int64) *Transaction {
	return a.sign(t, &Transaction{
		ID:              uuid.New().String(),
		Kind:            KindTransfer,
		Sender:          a.pub,
		Receiver:        to,
		Amount:          amount,
		Timestamp:       time.Now().UnixNano(),
		SignerPublicKey: a.pub,
	})
}

func (a *account) exchange(t testing.TB, to string, amount int64) *Transaction {
	return a.sign(t, &Transaction{
		ID:              uuid.New().String(),
		Kind:            KindExchange,
		Receiver:        to,
		Amount:          amount,
		Timestamp:       time.Now().UnixNano(),
		SignerPublicKey: a.pub,
	})
}

func (a *account) forge(t testing.TB, bc *Blockchain, txs ...*Transaction) *Block {
	b := NewBlock(bc.LastBlock().Sequence+1, txs, bc.LastBlockHash(), time.Now().UnixNano(), a.pub)
	return a.signBlock(t, b)
}

func (a *account) signBlock(t testing.TB, b *Block) *Block {
	sig, err := crypto.SignPayload(a.key, b.Payload())
	if err != nil {
		t.Fatal(err)
	}
	b.Signature = sig
	return b
}

func newTestBlockchain(t testing.TB) *Blockchain {
	bc, err := NewBlockchain(NewInmemStore(), ledger.NewAccountModel(), common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatal(err)
	}
	return bc
}

func mustAppend(t testing.TB, bc *Blockchain, b *Block) {
	if err := bc.Append(b); err != nil {
		t.Fatalf("Append block %d: %v", b.Sequence, err)
	}
}
