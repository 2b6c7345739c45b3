package blockchain

import (
	"strconv"

	cm "github.com/mosaicnetworks/stakechain/src/common"
)

// InmemStore implements the Store interface with a slice of blocks.
type InmemStore struct {
	blocks []*Block
}

// NewInmemStore returns an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		blocks: []*Block{},
	}
}

// GetBlock implements the Store interface.
func (s *InmemStore) GetBlock(sequence int) (*Block, error) {
	if sequence < 0 || sequence >= len(s.blocks) {
		return nil, cm.NewStoreErr("BlockStore", cm.KeyNotFound, strconv.Itoa(sequence))
	}
	return s.blocks[sequence], nil
}

// SetBlock implements the Store interface.
func (s *InmemStore) SetBlock(block *Block) error {
	switch {
	case block.Sequence < len(s.blocks):
		return cm.NewStoreErr("BlockStore", cm.KeyAlreadyExists, strconv.Itoa(block.Sequence))
	case block.Sequence > len(s.blocks):
		return cm.NewStoreErr("BlockStore", cm.SkippedIndex, strconv.Itoa(block.Sequence))
	}
	s.blocks = append(s.blocks, block)
	return nil
}

// LastBlockSequence implements the Store interface.
func (s *InmemStore) LastBlockSequence() int {
	return len(s.blocks) - 1
}

// Blocks implements the Store interface.
func (s *InmemStore) Blocks() []*Block {
	res := make([]*Block, len(s.blocks))
	copy(res, s.blocks)
	return res
}

// NeedBootstrap implements the Store interface.
func (s *InmemStore) NeedBootstrap() bool {
	return false
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
