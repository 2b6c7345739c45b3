package peers

import "sort"

// PeerSet is an immutable set of peers, sorted and deduplicated by address.
type PeerSet struct {
	Peers    []*Peer
	ByAddr   map[string]*Peer
	ByPubKey map[string]*Peer
}

// NewPeerSet creates a PeerSet from a list of peers. Peers with an empty
// address are ignored. When two peers share an address, the last one wins.
func NewPeerSet(peers []*Peer) *PeerSet {
	ps := &PeerSet{
		ByAddr:   make(map[string]*Peer),
		ByPubKey: make(map[string]*Peer),
	}

	for _, p := range peers {
		if p == nil {
			continue
		}
		p.cleanse()
		if p.NetAddr == "" {
			continue
		}
		ps.ByAddr[p.NetAddr] = p
	}

	for _, p := range ps.ByAddr {
		ps.Peers = append(ps.Peers, p)
		if p.PubKeyHex != "" {
			ps.ByPubKey[p.PubKeyHex] = p
		}
	}

	sort.Sort(ByAddr(ps.Peers))

	return ps
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	return len(ps.Peers)
}

// Addresses returns the sorted addresses of the peers.
func (ps *PeerSet) Addresses() []string {
	res := make([]string, 0, len(ps.Peers))
	for _, p := range ps.Peers {
		res = append(res, p.NetAddr)
	}
	return res
}

// Without returns a copy of the set without the peer at netAddr.
func (ps *PeerSet) Without(netAddr string) *PeerSet {
	_, others := ExcludePeer(ps.Peers, netAddr)
	return NewPeerSet(others)
}

// ByAddr implements sort.Interface for a list of peers based on the NetAddr
// field.
type ByAddr []*Peer

func (a ByAddr) Len() int           { return len(a) }
func (a ByAddr) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByAddr) Less(i, j int) bool { return a[i].NetAddr < a[j].NetAddr }
