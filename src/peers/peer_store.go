package peers

// PeerStore provides access to a list of peers.
type PeerStore interface {
	Peers() (*PeerSet, error)
	SetPeers([]*Peer) error
}
