package blockchain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mosaicnetworks/stakechain/src/crypto"
)

func TestTransactionSignature(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)

	tx := alice.transfer(t, bob.pub, 5)
	if err := tx.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	tampers := map[string]func(tx *Transaction){
		"id":        func(tx *Transaction) { tx.ID = "other" },
		"kind":      func(tx *Transaction) { tx.Kind = KindExchange },
		"sender":    func(tx *Transaction) { tx.Sender = bob.pub },
		"receiver":  func(tx *Transaction) { tx.Receiver = alice.pub },
		"amount":    func(tx *Transaction) { tx.Amount = 6 },
		"timestamp": func(tx *Transaction) { tx.Timestamp++ },
		"signer":    func(tx *Transaction) { tx.SignerPublicKey = bob.pub },
		"signature": func(tx *Transaction) { tx.Signature = alice.transfer(t, bob.pub, 5).Signature },
	}

	for name, tamper := range tampers {
		tampered := *tx
		tamper(&tampered)
		if err := tampered.Verify(); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("tampered %s: expected ErrInvalidSignature, got %v", name, err)
		}
		if name == "signature" {
			continue
		}
		// the original signature must not cover the altered payload
		ok, err := crypto.VerifySignature(tampered.Payload(), tx.Signature, alice.pub)
		if err != nil || ok {
			t.Fatalf("tampered %s: signature should not match the payload: %v, %v", name, ok, err)
		}
	}
}

func TestTransactionSignerMustBeSender(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)

	// signed by bob, debiting alice
	tx := alice.transfer(t, bob.pub, 5)
	tx.SignerPublicKey = bob.pub
	bob.sign(t, tx)

	if err := tx.Verify(); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	ex := alice.exchange(t, bob.pub, 5)
	ex.Sender = bob.pub
	alice.sign(t, ex)

	if err := ex.Verify(); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for exchange with sender, got %v", err)
	}
}

func TestTransactionInvalidAmount(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)

	for _, amount := range []int64{0, -1} {
		tx := alice.transfer(t, bob.pub, amount)
		if err := tx.Verify(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestTransactionOperation(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)

	op, err := alice.transfer(t, bob.pub, 5).Operation()
	if err != nil {
		t.Fatal(err)
	}
	transfer, ok := op.(Transfer)
	if !ok {
		t.Fatalf("expected Transfer, got %T", op)
	}
	if transfer.From != alice.pub || transfer.To != bob.pub || transfer.Amount != 5 {
		t.Fatalf("unexpected transfer %+v", transfer)
	}

	op, err = alice.exchange(t, bob.pub, 7).Operation()
	if err != nil {
		t.Fatal(err)
	}
	exchange, ok := op.(Exchange)
	if !ok {
		t.Fatalf("expected Exchange, got %T", op)
	}
	if exchange.Issuer != alice.pub || exchange.To != bob.pub || exchange.Amount != 7 {
		t.Fatalf("unexpected exchange %+v", exchange)
	}
	if ex := alice.exchange(t, bob.pub, 7); ex.Issuer() != alice.pub {
		t.Fatalf("exchange should be issued by its signer, not %s", ex.Issuer())
	}
	if tr := alice.transfer(t, bob.pub, 5); tr.Issuer() != alice.pub {
		t.Fatalf("transfer should be issued by its sender, not %s", tr.Issuer())
	}
	if entries := exchange.Entries(); len(entries) != 1 || entries[0].Account != bob.pub {
		t.Fatalf("exchange should only credit the receiver, got %+v", entries)
	}

	if _, err := (&Transaction{Kind: Kind(9)}).Operation(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestTransactionEncoding(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)

	tx := alice.transfer(t, bob.pub, 5)

	data, err := tx.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var decoded Transaction
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatal(err)
	}
	if decoded != *tx {
		t.Fatalf("decoded transaction differs: %+v != %+v", decoded, *tx)
	}
	if err := decoded.Verify(); err != nil {
		t.Fatalf("decoded transaction does not verify: %v", err)
	}

	// the API speaks encoding/json
	js, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON Transaction
	if err := json.Unmarshal(js, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if fromJSON != *tx {
		t.Fatalf("json round trip differs: %+v != %+v", fromJSON, *tx)
	}
}

func TestKindDecoding(t *testing.T) {
	var k Kind
	if err := json.Unmarshal([]byte(`"EXCHANGE"`), &k); err != nil || k != KindExchange {
		t.Fatalf("expected EXCHANGE, got %v, %v", k, err)
	}

	if err := json.Unmarshal([]byte(`"STAKE"`), &k); err == nil {
		t.Fatalf("unknown kind should not decode")
	}

	var tx Transaction
	if err := tx.Unmarshal([]byte(`{"type":"BURN"}`)); err == nil {
		t.Fatalf("unknown kind should not decode")
	}
}
