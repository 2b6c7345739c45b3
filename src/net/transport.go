package net

import (
	"errors"
	"net"
	"time"
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrMalformedMessage is returned when a frame or its payload cannot be
	// decoded.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrPeerUnreachable is returned when a peer cannot be dialed, or when
	// sending to a peer that is not connected.
	ErrPeerUnreachable = errors.New("peer unreachable")
)

// Transport provides an interface for network transports to allow a node to
// gossip with other nodes.
type Transport interface {

	// Listen accepts inbound connections until the transport is closed.
	Listen()

	// Consumer returns a channel that delivers the messages received from all
	// peers.
	Consumer() <-chan Message

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other peers
	// can reach us
	AdvertiseAddr() string

	// Connect opens a connection to target and adds it to the peer set. It is
	// a no-op if target is already connected.
	Connect(target string) error

	// Send writes a command to a connected peer.
	Send(target string, cmd interface{}) error

	// Peers returns the identifiers of all connected peers, as used by Send
	// and Message.From.
	Peers() []string

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}

// StreamLayer is used with the NetworkTransport to provide the low level stream
// abstraction.
type StreamLayer interface {
	net.Listener

	// Dial is used to create a new outgoing connection
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the publicly-reachable address of the stream
	AdvertiseAddr() string
}
