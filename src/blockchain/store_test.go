package blockchain

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/mosaicnetworks/stakechain/src/common"
	"github.com/mosaicnetworks/stakechain/src/ledger"
)

func TestInmemStoreSetBlock(t *testing.T) {
	store := NewInmemStore()

	if store.LastBlockSequence() != -1 {
		t.Fatalf("empty store should have last sequence -1")
	}

	if err := store.SetBlock(NewGenesisBlock()); err != nil {
		t.Fatal(err)
	}

	if err := store.SetBlock(NewGenesisBlock()); !common.IsStore(err, common.KeyAlreadyExists) {
		t.Fatalf("expected KeyAlreadyExists, got %v", err)
	}

	if err := store.SetBlock(&Block{Sequence: 2}); !common.IsStore(err, common.SkippedIndex) {
		t.Fatalf("expected SkippedIndex, got %v", err)
	}

	if _, err := store.GetBlock(1); !common.IsStore(err, common.KeyNotFound) {
		t.Fatalf("expected KeyNotFound, got %v", err)
	}
}

func TestBadgerStoreReload(t *testing.T) {
	dir, err := ioutil.TempDir("", "badger")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	logger := common.NewTestEntry(t, common.TestLogLevel)

	store, err := NewBadgerStore(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	if store.NeedBootstrap() {
		t.Fatalf("new store should not need bootstrap")
	}

	bc, err := NewBlockchain(store, ledger.NewAccountModel(), logger)
	if err != nil {
		t.Fatal(err)
	}

	alice := newAccount(t)
	bob := newAccount(t)

	ex := alice.exchange(t, alice.pub, 10)
	tx := alice.transfer(t, bob.pub, 3)
	mustAppend(t, bc, alice.forge(t, bc, ex))
	mustAppend(t, bc, alice.forge(t, bc, tx))

	tipHash := bc.LastBlockHash()

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBadgerStore(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if !reopened.NeedBootstrap() {
		t.Fatalf("reopened store should need bootstrap")
	}
	if reopened.LastBlockSequence() != 2 {
		t.Fatalf("last sequence should be 2, not %d", reopened.LastBlockSequence())
	}
	if reopened.StorePath() != dir {
		t.Fatalf("store path should be %s, not %s", dir, reopened.StorePath())
	}

	b2, err := reopened.GetBlock(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(b2.Transactions) != 1 || *b2.Transactions[0] != *tx {
		t.Fatalf("block 2 was not reloaded correctly")
	}

	replayed, err := NewBlockchain(reopened, ledger.NewAccountModel(), logger)
	if err != nil {
		t.Fatal(err)
	}

	if replayed.LastBlockHash() != tipHash {
		t.Fatalf("replayed tip hash differs")
	}
	if b := replayed.Accounts().GetBalance(alice.pub); b != 7 {
		t.Fatalf("alice balance should be 7, not %d", b)
	}
	if !replayed.TransactionExists(ex) || !replayed.TransactionExists(tx) {
		t.Fatalf("replayed chain should index its transactions")
	}

	if _, err := reopened.GetBlock(5); !common.IsStore(err, common.KeyNotFound) {
		t.Fatalf("expected KeyNotFound, got %v", err)
	}
}
