// Package peers describes the peers a stakechain node dials when it starts.
//
// A peer is identified by the network address of its P2P listener, and
// optionaly by its public key and a moniker, which is a non-unique
// user-friendly name. Upon starting up, a node looks for a peers.json file in
// its data directory and attempts to connect to every peer listed in it, except
// itself. Peers that cannot be reached are skipped. Other nodes may connect at
// any time; a node does not need to know its peers in advance.
package peers
