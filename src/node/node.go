package node

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/config"
	"github.com/mosaicnetworks/stakechain/src/net"
	"github.com/mosaicnetworks/stakechain/src/wallet"
	"github.com/sirupsen/logrus"
)

//Node defines a stakechain node
type Node struct {
	// The node's state is Running or Shutdown.
	state

	conf   *config.Config
	logger *logrus.Entry

	wallet *wallet.Wallet

	core     *Core
	coreLock sync.RWMutex

	trans net.Transport
	netCh <-chan net.Message

	shutdownCh chan struct{}

	// runLock orders Run against Shutdown so that no routine is started
	// once Shutdown waits for them.
	runLock sync.Mutex
	started bool

	controlTimer *ControlTimer

	start                time.Time
	transactionsReceived int
	blocksReceived       int
	blocksForged         int
}

//NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	wallet *wallet.Wallet,
	chain *blockchain.Blockchain,
	trans net.Transport,
) (*Node, error) {

	logger := conf.Logger().WithField("this_id", wallet.ID())

	core, err := NewCore(wallet, chain, conf.SeenCacheSize, logger)
	if err != nil {
		return nil, err
	}

	node := Node{
		conf:         conf,
		logger:       logger,
		wallet:       wallet,
		core:         core,
		trans:        trans,
		netCh:        trans.Consumer(),
		shutdownCh:   make(chan struct{}),
		controlTimer: NewRandomControlTimer(),
		start:        time.Now(),
	}

	return &node, nil
}

//RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	go n.Run()
}

//Run starts accepting peer connections and processes incoming messages until
//the node is shut down. Forgers also run the forge timer. Run does nothing on
//a node that has been shut down.
func (n *Node) Run() {
	n.runLock.Lock()
	if n.getState() == Shutdown || n.started {
		n.runLock.Unlock()
		return
	}
	n.started = true

	n.goFunc(n.trans.Listen)

	if n.conf.Forger {
		n.goFunc(func() { n.controlTimer.Run(n.conf.ForgeInterval) })
	}

	n.goFunc(n.doBackgroundWork)
	n.runLock.Unlock()

	<-n.shutdownCh
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case msg := <-n.netCh:
			n.processMessage(msg)
		case <-n.controlTimer.tickCh:
			if _, err := n.Forge(); err != nil {
				n.logger.WithError(err).Error("Forging block")
			}
			n.controlTimer.Reset(n.conf.ForgeInterval)
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processMessage(msg net.Message) {
	switch cmd := msg.Command.(type) {
	case *net.NewTransactionMessage:
		n.processTransaction(msg.From, cmd.Transaction)
	case *net.NewBlockMessage:
		n.processBlock(msg.From, cmd.Block)
	case *net.BlockchainRequest:
		n.processBlockchainRequest(msg.From, cmd)
	case *net.BlockchainResponse:
		n.processBlockchainResponse(msg.From, cmd)
	default:
		n.logger.WithField("cmd", fmt.Sprintf("%T", msg.Command)).Error("Unexpected message")
	}
}

func (n *Node) processTransaction(from string, tx *blockchain.Transaction) {
	n.coreLock.Lock()
	if n.core.Seen(txKey(tx)) {
		n.coreLock.Unlock()
		return
	}
	n.transactionsReceived++
	err := n.core.AddTransaction(tx)
	if err != nil {
		// do not look at it again
		n.core.MarkSeen(txKey(tx))
	}
	forge := n.shouldForge()
	n.coreLock.Unlock()

	if err != nil {
		n.logger.WithFields(logrus.Fields{
			"id":    tx.ID,
			"from":  from,
			"error": err,
		}).Debug("Dropping transaction")
		return
	}

	n.broadcast(from, &net.NewTransactionMessage{Transaction: tx})

	if forge {
		if _, err := n.Forge(); err != nil {
			n.logger.WithError(err).Error("Forging block")
		}
	}
}

func (n *Node) processBlock(from string, block *blockchain.Block) {
	hash, err := block.Hash()
	if err != nil {
		n.logger.WithError(err).Debug("Dropping block")
		return
	}

	n.coreLock.Lock()
	if n.core.Seen(blockKey(hash)) {
		n.coreLock.Unlock()
		return
	}
	n.blocksReceived++
	err = n.core.CommitBlock(block)
	tip := n.core.TipSequence()
	ahead := err != nil && block.Sequence > tip+1
	if err != nil && !ahead {
		n.core.MarkSeen(blockKey(hash))
	}
	n.coreLock.Unlock()

	switch {
	case err == nil:
		n.broadcast(from, &net.NewBlockMessage{Block: block})
	case ahead:
		n.logger.WithFields(logrus.Fields{
			"sequence": block.Sequence,
			"tip":      tip,
			"from":     from,
		}).Debug("Block ahead of tip, requesting blocks")
		if err := n.trans.Send(from, &net.BlockchainRequest{FromSequence: tip + 1}); err != nil {
			n.logger.WithError(err).Debug("Requesting blocks")
		}
	default:
		n.logger.WithFields(logrus.Fields{
			"sequence": block.Sequence,
			"from":     from,
			"error":    err,
		}).Debug("Dropping block")
	}
}

func (n *Node) processBlockchainRequest(from string, req *net.BlockchainRequest) {
	n.coreLock.RLock()
	blocks := n.core.Chain().BlocksFrom(req.FromSequence)
	n.coreLock.RUnlock()

	n.logger.WithFields(logrus.Fields{
		"from":          from,
		"from_sequence": req.FromSequence,
		"blocks":        len(blocks),
	}).Debug("Sending blocks")

	if err := n.trans.Send(from, &net.BlockchainResponse{Blocks: blocks}); err != nil {
		n.logger.WithError(err).Debug("Sending blocks")
	}
}

func (n *Node) processBlockchainResponse(from string, resp *net.BlockchainResponse) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	appended := 0
	for _, b := range resp.Blocks {
		if b == nil {
			break
		}
		if b.Sequence <= n.core.TipSequence() {
			continue
		}
		if err := n.core.CommitBlock(b); err != nil {
			n.logger.WithFields(logrus.Fields{
				"sequence": b.Sequence,
				"from":     from,
				"error":    err,
			}).Debug("Stopping catch-up")
			break
		}
		appended++
	}

	n.logger.WithFields(logrus.Fields{
		"from":     from,
		"received": len(resp.Blocks),
		"appended": appended,
		"tip":      n.core.TipSequence(),
	}).Debug("Caught up")
}

// shouldForge reports whether the pool has reached the forge threshold. It
// must be called with coreLock held.
func (n *Node) shouldForge() bool {
	return n.conf.Forger &&
		n.conf.ForgeThreshold > 0 &&
		n.core.Pool().Len() >= n.conf.ForgeThreshold
}

// broadcast sends cmd to every connected peer except the one identified by
// except.
func (n *Node) broadcast(except string, cmd interface{}) {
	for _, peer := range n.trans.Peers() {
		if peer == except {
			continue
		}
		if err := n.trans.Send(peer, cmd); err != nil {
			n.logger.WithFields(logrus.Fields{
				"peer":  peer,
				"error": err,
			}).Debug("Gossip failed")
		}
	}
}

// Forge runs a forge cycle: it builds a block from the covered transactions
// of the pool, appends it to the chain, and broadcasts it. It returns nil if
// there was nothing to forge.
func (n *Node) Forge() (*blockchain.Block, error) {
	n.coreLock.Lock()
	block, err := n.core.Forge()
	if block != nil {
		n.blocksForged++
	}
	n.coreLock.Unlock()

	if err != nil || block == nil {
		return nil, err
	}

	n.broadcast("", &net.NewBlockMessage{Block: block})

	return block, nil
}

// Connect opens a connection to the peer at addr, then asks it for the blocks
// that follow the local tip.
func (n *Node) Connect(addr string) error {
	if err := n.trans.Connect(addr); err != nil {
		return err
	}

	n.coreLock.RLock()
	next := n.core.TipSequence() + 1
	n.coreLock.RUnlock()

	return n.trans.Send(addr, &net.BlockchainRequest{FromSequence: next})
}

// SubmitTransaction adds a signed transaction to the pool and gossips it. It
// returns the id of the transaction. Submitting a transaction that is already
// pending or on the chain is not an error.
func (n *Node) SubmitTransaction(tx *blockchain.Transaction) (string, error) {
	if tx == nil {
		return "", errors.New("nil transaction")
	}

	n.coreLock.Lock()
	err := n.core.AddTransaction(tx)
	forge := err == nil && n.shouldForge()
	n.coreLock.Unlock()

	if errors.Is(err, blockchain.ErrDuplicateTransaction) {
		return tx.ID, nil
	}
	if err != nil {
		return "", err
	}

	n.broadcast("", &net.NewTransactionMessage{Transaction: tx})

	if forge {
		if _, err := n.Forge(); err != nil {
			n.logger.WithError(err).Error("Forging block")
		}
	}

	return tx.ID, nil
}

// GetBlockchain returns all the blocks of the local chain.
func (n *Node) GetBlockchain() []*blockchain.Block {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.core.Chain().Blocks()
}

// GetBlocksFrom returns the blocks whose sequence is at least sequence.
func (n *Node) GetBlocksFrom(sequence int) []*blockchain.Block {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.core.Chain().BlocksFrom(sequence)
}

// GetTransactionPool returns the pending transactions in arrival order.
func (n *Node) GetTransactionPool() []*blockchain.Transaction {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.core.Pool().Transactions()
}

// GetBalance returns the balance of an account, 0 if it is unknown.
func (n *Node) GetBalance(account string) int64 {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.core.Chain().Accounts().GetBalance(account)
}

// ID returns the short identifier of the node's key.
func (n *Node) ID() uint32 {
	return n.wallet.ID()
}

// PublicKey returns the account of the node.
func (n *Node) PublicKey() string {
	return n.wallet.PublicKeyString()
}

// Peers returns the identifiers of the connected peers.
func (n *Node) Peers() []string {
	return n.trans.Peers()
}

// GetState returns the state of the node.
func (n *Node) GetState() State {
	return n.getState()
}

//Shutdown shuts down the node
func (n *Node) Shutdown() {
	n.runLock.Lock()
	if n.getState() == Shutdown {
		n.runLock.Unlock()
		return
	}

	n.logger.Debug("Shutdown")

	n.setState(Shutdown)

	close(n.shutdownCh)
	n.controlTimer.Shutdown()
	n.runLock.Unlock()

	//closing the transport stops Listen; the store is only closed once all
	//the routines that may write to it have returned
	n.trans.Close()

	n.waitRoutines()

	n.coreLock.Lock()
	n.core.Chain().Store().Close()
	n.coreLock.Unlock()
}

//GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()

	chain := n.core.Chain()

	s := map[string]string{
		"last_block_sequence":   strconv.Itoa(chain.LastBlock().Sequence),
		"last_block_hash":       chain.LastBlockHash(),
		"transaction_pool":      strconv.Itoa(n.core.Pool().Len()),
		"accounts":              strconv.Itoa(len(chain.Accounts().Accounts())),
		"transactions_received": strconv.Itoa(n.transactionsReceived),
		"blocks_received":       strconv.Itoa(n.blocksReceived),
		"blocks_forged":         strconv.Itoa(n.blocksForged),
		"num_peers":             strconv.Itoa(len(n.trans.Peers())),
		"forger":                strconv.FormatBool(n.conf.Forger),
		"id":                    fmt.Sprint(n.ID()),
		"public_key":            n.PublicKey(),
		"state":                 n.getState().String(),
		"moniker":               n.conf.Moniker,
		"uptime":                time.Since(n.start).Round(time.Second).String(),
	}

	return s
}
