package blockchain

import (
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/stakechain/src/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const blockPrefix = "block"

// BadgerStore implements the Store interface on top of a badger database. It
// keeps an InmemStore in front of the database so that reads never hit the
// disk.
type BadgerStore struct {
	inmemStore   *InmemStore
	db           *badger.DB
	path         string
	needBoostrap bool
}

// NewBadgerStore opens the database in path, creating it if necessary, and
// loads any blocks it already contains.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		sub := logger.WithFields(logrus.Fields{"ns": "badger"})
		opts = opts.WithLogger(sub)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger database in %s", path)
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
	}

	blocks, err := store.dbBlocks()
	if err != nil {
		handle.Close()
		return nil, err
	}

	for _, b := range blocks {
		if err := store.inmemStore.SetBlock(b); err != nil {
			handle.Close()
			return nil, errors.Wrap(err, "loading blocks")
		}
	}

	store.needBoostrap = len(blocks) > 0

	return store, nil
}

func blockKey(sequence int) []byte {
	return []byte(fmt.Sprintf("%s_%09d", blockPrefix, sequence))
}

// GetBlock implements the Store interface.
func (s *BadgerStore) GetBlock(sequence int) (*Block, error) {
	block, err := s.inmemStore.GetBlock(sequence)
	if err != nil {
		block, err = s.dbGetBlock(sequence)
	}
	return block, mapError(err, "Block", strconv.Itoa(sequence))
}

// SetBlock implements the Store interface. The block is written to the
// database before it becomes visible in memory.
func (s *BadgerStore) SetBlock(block *Block) error {
	next := s.inmemStore.LastBlockSequence() + 1
	switch {
	case block.Sequence < next:
		return cm.NewStoreErr("Block", cm.KeyAlreadyExists, strconv.Itoa(block.Sequence))
	case block.Sequence > next:
		return cm.NewStoreErr("Block", cm.SkippedIndex, strconv.Itoa(block.Sequence))
	}

	if err := s.dbSetBlock(block); err != nil {
		return err
	}

	return s.inmemStore.SetBlock(block)
}

// LastBlockSequence implements the Store interface.
func (s *BadgerStore) LastBlockSequence() int {
	return s.inmemStore.LastBlockSequence()
}

// Blocks implements the Store interface.
func (s *BadgerStore) Blocks() []*Block {
	return s.inmemStore.Blocks()
}

// NeedBootstrap implements the Store interface.
func (s *BadgerStore) NeedBootstrap() bool {
	return s.needBoostrap
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++
//DB Methods

func (s *BadgerStore) dbGetBlock(sequence int) (*Block, error) {
	var blockBytes []byte
	key := blockKey(sequence)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		blockBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	block := new(Block)
	if err := block.Unmarshal(blockBytes); err != nil {
		return nil, err
	}

	return block, nil
}

func (s *BadgerStore) dbSetBlock(block *Block) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	key := blockKey(block.Sequence)
	val, err := block.Marshal()
	if err != nil {
		return err
	}

	//insert [sequence] => [block bytes]
	if err := tx.Set(key, val); err != nil {
		return err
	}

	return tx.Commit()
}

// dbBlocks returns the stored blocks in key order, which is sequence order
// because of the zero-padded keys.
func (s *BadgerStore) dbBlocks() ([]*Block, error) {
	blocks := []*Block{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(blockPrefix + "_")

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			block := new(Block)
			if err := block.Unmarshal(v); err != nil {
				return errors.Wrapf(err, "decoding %s", it.Item().Key())
			}

			blocks = append(blocks, block)
		}

		return nil
	})

	return blocks, err
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
