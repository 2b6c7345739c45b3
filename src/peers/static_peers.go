package peers

import "sync"

// StaticPeers is used to provide a static list of peers.
type StaticPeers struct {
	l           sync.Mutex
	StaticPeers []*Peer
}

// NewStaticPeers creates a StaticPeers store from a list of peers.
func NewStaticPeers(peers []*Peer) *StaticPeers {
	return &StaticPeers{StaticPeers: peers}
}

// Peers implements the PeerStore interface.
func (s *StaticPeers) Peers() (*PeerSet, error) {
	s.l.Lock()
	defer s.l.Unlock()
	return NewPeerSet(s.StaticPeers), nil
}

// SetPeers implements the PeerStore interface.
func (s *StaticPeers) SetPeers(p []*Peer) error {
	s.l.Lock()
	s.StaticPeers = p
	s.l.Unlock()
	return nil
}
