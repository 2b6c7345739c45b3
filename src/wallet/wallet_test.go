package wallet

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
)

func newWallet(t *testing.T) *Wallet {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestCreateTransfer(t *testing.T) {
	alice := newWallet(t)
	bob := newWallet(t)

	tx, err := alice.CreateTransaction(bob.PublicKeyString(), 5, blockchain.KindTransfer)
	if err != nil {
		t.Fatal(err)
	}

	if tx.Sender != alice.PublicKeyString() || tx.SignerPublicKey != alice.PublicKeyString() {
		t.Fatalf("transfer should be sent and signed by alice")
	}
	if tx.ID == "" {
		t.Fatalf("transaction should have an id")
	}

	ok, err := VerifySignature(tx.Payload(), tx.Signature, alice.PublicKeyString())
	if err != nil || !ok {
		t.Fatalf("signature should verify: %v, %v", ok, err)
	}

	ok, err = VerifySignature(tx.Payload(), tx.Signature, bob.PublicKeyString())
	if err != nil || ok {
		t.Fatalf("signature should not verify with bob's key: %v, %v", ok, err)
	}

	if err := tx.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateExchange(t *testing.T) {
	bank := newWallet(t)
	alice := newWallet(t)

	tx, err := bank.CreateTransaction(alice.PublicKeyString(), 10, blockchain.KindExchange)
	if err != nil {
		t.Fatal(err)
	}

	if tx.Sender != "" {
		t.Fatalf("exchange should not have a sender, got %s", tx.Sender)
	}
	if tx.SignerPublicKey != bank.PublicKeyString() {
		t.Fatalf("exchange should be signed by the bank")
	}
	if err := tx.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateTransactionInvalidAmount(t *testing.T) {
	alice := newWallet(t)

	for _, amount := range []int64{0, -3} {
		_, err := alice.CreateTransaction(alice.PublicKeyString(), amount, blockchain.KindTransfer)
		if !errors.Is(err, blockchain.ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if _, err := alice.CreateTransaction(alice.PublicKeyString(), 1, blockchain.Kind(0)); !errors.Is(err, blockchain.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestVerifySignatureTamper(t *testing.T) {
	alice := newWallet(t)
	bob := newWallet(t)

	tx, err := alice.CreateTransaction(bob.PublicKeyString(), 5, blockchain.KindTransfer)
	if err != nil {
		t.Fatal(err)
	}

	payload := tx.Payload()
	payload.Amount = 500

	ok, err := VerifySignature(payload, tx.Signature, alice.PublicKeyString())
	if err != nil || ok {
		t.Fatalf("tampered payload should not verify: %v, %v", ok, err)
	}

	if _, err := VerifySignature(tx.Payload(), "not a signature", alice.PublicKeyString()); err == nil {
		t.Fatalf("malformed signature should return an error")
	}

	if _, err := VerifySignature(tx.Payload(), tx.Signature, "0XZZ"); err == nil {
		t.Fatalf("malformed public key should return an error")
	}
}

func TestCreateBlock(t *testing.T) {
	alice := newWallet(t)
	bob := newWallet(t)

	tx, err := alice.CreateTransaction(bob.PublicKeyString(), 5, blockchain.KindTransfer)
	if err != nil {
		t.Fatal(err)
	}

	genesis := blockchain.NewGenesisBlock()
	hash, err := genesis.Hash()
	if err != nil {
		t.Fatal(err)
	}

	block, err := alice.CreateBlock([]*blockchain.Transaction{tx}, hash, 1)
	if err != nil {
		t.Fatal(err)
	}

	if block.ForgerPublicKey != alice.PublicKeyString() || block.Sequence != 1 || block.PreviousHash != hash {
		t.Fatalf("unexpected block %+v", block)
	}
	if err := block.VerifySignature(); err != nil {
		t.Fatal(err)
	}

	block.Transactions = nil
	if err := block.VerifySignature(); !errors.Is(err, blockchain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature after tampering, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "wallet")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	original := newWallet(t)
	keyfile := filepath.Join(dir, "priv_key")

	if err := keys.NewSimpleKeyfile(keyfile).WriteKey(original.Key()); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(keyfile)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.PublicKeyString() != original.PublicKeyString() {
		t.Fatalf("loaded wallet has a different key")
	}
	if loaded.ID() != original.ID() {
		t.Fatalf("loaded wallet has a different id")
	}

	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("loading a missing key file should fail")
	}
}

func TestConcurrentIdentity(t *testing.T) {
	w := newWallet(t)
	want := keys.PublicKeyHex(&w.Key().PublicKey)
	wantID := keys.PublicKeyID(&w.Key().PublicKey)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := w.PublicKeyString(); got != want {
				t.Errorf("public key should be %s, not %s", want, got)
			}
			if got := w.ID(); got != wantID {
				t.Errorf("id should be %d, not %d", wantID, got)
			}
		}()
	}
	wg.Wait()
}
