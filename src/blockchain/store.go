package blockchain

// Store persists the blocks of a chain.
type Store interface {
	// GetBlock returns the block with the given sequence number.
	GetBlock(sequence int) (*Block, error)
	// SetBlock appends a block. Its sequence must follow LastBlockSequence.
	SetBlock(block *Block) error
	// LastBlockSequence returns the sequence of the last stored block, or -1
	// if the store is empty.
	LastBlockSequence() int
	// Blocks returns all the stored blocks in order.
	Blocks() []*Block
	// NeedBootstrap reports whether the store was loaded with existing blocks
	// that must be replayed.
	NeedBootstrap() bool
	// StorePath returns the location of the database, or an empty string for
	// in-memory stores.
	StorePath() string
	// Close releases the resources held by the store.
	Close() error
}
