package stakechain

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/config"
	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
	"github.com/mosaicnetworks/stakechain/src/ledger"
	"github.com/mosaicnetworks/stakechain/src/net"
	"github.com/mosaicnetworks/stakechain/src/node"
	"github.com/mosaicnetworks/stakechain/src/peers"
	"github.com/mosaicnetworks/stakechain/src/service"
	"github.com/mosaicnetworks/stakechain/src/wallet"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stakechain is a struct containing the key parts of a stakechain node.
type Stakechain struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Store     blockchain.Store
	Chain     *blockchain.Blockchain
	Peers     *peers.PeerSet
	PeerStore peers.PeerStore
	Service   *service.Service
	Wallet    *wallet.Wallet
	logger    *logrus.Entry
}

// NewStakechain is a factory method to produce a Stakechain instance.
func NewStakechain(c *config.Config) *Stakechain {
	engine := &Stakechain{
		Config: c,
		logger: c.Logger(),
	}

	return engine
}

// Init initialises the node based on its configuration. It reads or creates
// the key, opens the store, replays the chain, starts listening for peers,
// and loads the peers.json file.
func (s *Stakechain) Init() error {
	s.logger.Debug("INIT")

	if err := s.initKey(); err != nil {
		return errors.Wrap(err, "initializing key")
	}

	if err := s.initStore(); err != nil {
		return errors.Wrap(err, "initializing store")
	}

	if err := s.initChain(); err != nil {
		return errors.Wrap(err, "initializing blockchain")
	}

	if err := s.initTransport(); err != nil {
		return errors.Wrap(err, "initializing transport")
	}

	if err := s.initPeers(); err != nil {
		return errors.Wrap(err, "initializing peers")
	}

	if err := s.initNode(); err != nil {
		return errors.Wrap(err, "initializing node")
	}

	s.initService()

	return nil
}

// Run starts the API service, connects to the known peers, and runs the node.
// This is a blocking call.
func (s *Stakechain) Run() {
	if s.Service != nil {
		go s.Service.Serve()
	}

	go s.connectPeers()

	s.Node.Run()
}

// Shutdown stops the node and the API service.
func (s *Stakechain) Shutdown() {
	if s.Service != nil {
		if err := s.Service.Close(); err != nil {
			s.logger.WithError(err).Warn("Closing API service")
		}
	}
	s.Node.Shutdown()
}

func (s *Stakechain) initKey() error {
	if s.Config.Key != nil {
		return nil
	}

	keyfile := keys.NewSimpleKeyfile(s.Config.Keyfile())

	privKey, err := keyfile.ReadKey()
	switch {
	case err == nil:
		s.logger.WithField("path", keyfile.Path()).Debug("Loaded key")
	case os.IsNotExist(errors.Cause(err)):
		privKey, err = Keygen(s.Config.Keyfile())
		if err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"path":       keyfile.Path(),
			"public_key": keys.PublicKeyHex(&privKey.PublicKey),
		}).Info("Created a new key")
	default:
		return err
	}

	s.Config.Key = privKey

	return nil
}

func (s *Stakechain) initStore() error {
	if !s.Config.Store && !s.Config.Bootstrap {
		s.Store = blockchain.NewInmemStore()
		s.logger.Debug("Created new in-mem store")
		return nil
	}

	dbPath := s.Config.DatabaseDir

	if !s.Config.Bootstrap {
		backup, err := backupDatabase(dbPath)
		if err != nil {
			return err
		}
		if backup != "" {
			s.logger.WithFields(logrus.Fields{
				"path":   dbPath,
				"backup": backup,
			}).Warn("Moved existing database out of the way")
		}
	}

	s.logger.WithField("path", dbPath).Debug("Opening badger store")

	store, err := blockchain.NewBadgerStore(dbPath, s.logger)
	if err != nil {
		return err
	}

	if store.NeedBootstrap() {
		s.logger.WithField("blocks", store.LastBlockSequence()+1).Debug("Loaded badger store from existing database")
	} else {
		s.logger.Debug("Created badger store from fresh database")
	}

	s.Store = store

	return nil
}

// backupDatabase renames an existing database directory to the first free
// "path(n)" name. It returns the new name, or "" if there was nothing to move.
func backupDatabase(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	for i := 1; ; i++ {
		backup := fmt.Sprintf("%s(%d)", path, i)
		if _, err := os.Stat(backup); os.IsNotExist(err) {
			if err := os.Rename(path, backup); err != nil {
				return "", errors.Wrap(err, "backing up database")
			}
			return backup, nil
		}
	}
}

func (s *Stakechain) initChain() error {
	chain, err := blockchain.NewBlockchain(s.Store, ledger.NewAccountModel(), s.logger)
	if err != nil {
		s.Store.Close()
		return err
	}

	chain.SetExchangeAuthorities(s.Config.ExchangeAuthorities)

	s.Chain = chain

	return nil
}

func (s *Stakechain) initTransport() error {
	transport, err := net.NewTCPTransport(
		s.Config.BindAddr,
		s.Config.AdvertiseAddr,
		s.Config.TCPTimeout,
		s.Config.IdleTimeout,
		s.logger,
	)
	if err != nil {
		s.Store.Close()
		return err
	}

	s.Transport = transport

	return nil
}

func (s *Stakechain) initPeers() error {
	if s.PeerStore == nil {
		s.PeerStore = peers.NewJSONPeers(s.Config.DataDir)
	}

	peerSet, err := s.PeerStore.Peers()
	switch {
	case err == nil:
	case os.IsNotExist(err):
		s.logger.WithField("path", s.Config.PeersFile()).Debug("No peers file")
		peerSet = peers.NewPeerSet(nil)
	default:
		return err
	}

	s.Peers = peerSet.
		Without(s.Transport.AdvertiseAddr()).
		Without(s.Config.BindAddr)

	s.logger.WithField("peers", s.Peers.Addresses()).Debug("Loaded peers")

	return nil
}

func (s *Stakechain) initNode() error {
	s.Wallet = wallet.NewFromKey(s.Config.Key)

	s.logger.WithFields(logrus.Fields{
		"id":         s.Wallet.ID(),
		"public_key": s.Wallet.PublicKeyString(),
		"peers":      s.Peers.Len(),
		"forger":     s.Config.Forger,
	}).Debug("NODE")

	n, err := node.NewNode(s.Config, s.Wallet, s.Chain, s.Transport)
	if err != nil {
		return err
	}

	s.Node = n

	return nil
}

func (s *Stakechain) initService() {
	if !s.Config.NoService && s.Config.ServiceAddr != "" {
		s.Service = service.NewService(s.Config.ServiceAddr, s.Node, s.logger)
	}
}

// connectPeers dials every peer of the peers file. Unreachable peers are
// skipped; they may connect to us later.
func (s *Stakechain) connectPeers() {
	for _, p := range s.Peers.Peers {
		if err := s.Node.Connect(p.NetAddr); err != nil {
			s.logger.WithFields(logrus.Fields{
				"peer":    p.NetAddr,
				"moniker": p.Moniker,
				"error":   err,
			}).Warn("Cannot connect to peer")
			continue
		}
		s.logger.WithField("peer", p.NetAddr).Debug("Connected to peer")
	}
}

// Keygen generates a new key and writes it to keyfile. It fails if a key
// already exists there.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	if _, err := os.Stat(keyfile); err == nil {
		return nil, fmt.Errorf("another key already lives in %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, errors.Wrap(err, "generating key")
	}

	if err := keys.NewSimpleKeyfile(keyfile).WriteKey(privKey); err != nil {
		return nil, errors.Wrap(err, "writing key")
	}

	return privKey, nil
}
