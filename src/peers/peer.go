package peers

import (
	"strings"

	"github.com/mosaicnetworks/stakechain/src/common"
)

// Peer is a node that can be dialed.
type Peer struct {
	NetAddr   string
	PubKeyHex string `json:",omitempty"`
	Moniker   string `json:",omitempty"`
}

// NewPeer creates a Peer.
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	return &Peer{
		PubKeyHex: pubKeyHex,
		NetAddr:   netAddr,
		Moniker:   moniker,
	}
}

// PubKeyBytes decodes the peer's public key.
func (p *Peer) PubKeyBytes() ([]byte, error) {
	return common.DecodeFromString(p.PubKeyHex)
}

// ID returns a short identifier derived from the public key, or from the
// address when the public key is not known.
func (p *Peer) ID() uint32 {
	if pub, err := p.PubKeyBytes(); err == nil {
		return common.Hash32(pub)
	}
	return common.Hash32([]byte(p.NetAddr))
}

// cleanse standardises the public key string to match the format derived from
// a private key.
func (p *Peer) cleanse() {
	p.NetAddr = strings.TrimSpace(p.NetAddr)
	if p.PubKeyHex != "" {
		p.PubKeyHex = "0X" + strings.TrimPrefix(strings.ToUpper(p.PubKeyHex), "0X")
	}
}

// ExcludePeer is used to exclude a single peer from a list of peers. It
// returns the index of the excluded peer, -1 if it was not found.
func ExcludePeer(peers []*Peer, netAddr string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != netAddr {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
