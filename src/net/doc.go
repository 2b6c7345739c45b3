// Package net implements the transports used by stakechain nodes to gossip
// transactions and blocks.
//
// A Transport keeps a set of open, bidirectional connections to peers. Both
// ends of a connection can send messages on it at any time; there is no
// request/response pairing. Incoming messages, from all peers, are delivered
// on a single channel returned by Consumer, tagged with the peer they came
// from so that they can be relayed to everyone else.
//
// There are two implementations:
//
// - Inmem: in-memory transport used only for testing
//
// - TCP: communicating over plain TCP
//
// Wire format
//
// Each message is sent as a frame made of a 1-byte message type, a 4-byte
// big-endian payload length, and the payload, which is the canonical JSON
// encoding of the message. Frames larger than 16 MiB, frames of an unknown
// type, and payloads that do not decode are rejected with ErrMalformedMessage,
// which closes the offending connection only.
//
// TCP
//
// To use a TCP transport, set the following configuration options in the
// Config object (cf config package):
//
// - BindAddr: the IP:PORT of the TCP socket that the node binds to.
//
// - AdvertiseAddr: (optional) The address that is advertised to other nodes.
// If BindAddr is a local address not reachable by other peers, it is useful to
// set AdvertiseAddr to the reachable public address.
package net
