package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	bufSize = 1 << 16

	// consumerBuffer is the number of received messages that can wait for
	// the consumer before readers start blocking
	consumerBuffer = 1024
)

/*
NetworkTransport provides a network based transport that can be used to gossip
with stakechain nodes on remote machines. It requires an underlying stream
layer to provide a stream abstraction, which can be simple TCP, TLS, etc.

Every connection, inbound or outbound, is kept open and read by its own
goroutine until the peer goes away, a read times out, or a malformed frame is
received. Writes to a connection are serialised and subject to the transport
timeout.
*/
type NetworkTransport struct {
	logger *logrus.Entry

	peers     map[string]*netConn
	peersLock sync.RWMutex

	consumeCh chan Message

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex

	stream StreamLayer

	timeout     time.Duration
	idleTimeout time.Duration
}

type netConn struct {
	key  string
	conn net.Conn
	r    *bufio.Reader

	wLock sync.Mutex
	w     *bufio.Writer

	closeOnce sync.Once
}

// Release closes the underlying connection
func (n *netConn) Release() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.conn.Close()
	})
	return err
}

// NewNetworkTransport creates a new network transport with the given stream
// layer. The timeout bounds dials and writes. A positive idleTimeout closes
// connections on which nothing was received for that long.
func NewNetworkTransport(
	stream StreamLayer,
	timeout time.Duration,
	idleTimeout time.Duration,
	logger *logrus.Entry,
) *NetworkTransport {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	trans := &NetworkTransport{
		peers:       make(map[string]*netConn),
		consumeCh:   make(chan Message, consumerBuffer),
		logger:      logger,
		shutdownCh:  make(chan struct{}),
		stream:      stream,
		timeout:     timeout,
		idleTimeout: idleTimeout,
	}

	return trans
}

// Close is used to stop the network transport.
func (n *NetworkTransport) Close() error {
	n.shutdownLock.Lock()
	defer n.shutdownLock.Unlock()

	if !n.shutdown {
		close(n.shutdownCh)
		n.stream.Close()

		n.peersLock.Lock()
		for key, conn := range n.peers {
			conn.Release()
			delete(n.peers, key)
		}
		n.peersLock.Unlock()

		n.shutdown = true
	}
	return nil
}

// Consumer implements the Transport interface.
func (n *NetworkTransport) Consumer() <-chan Message {
	return n.consumeCh
}

// LocalAddr implements the Transport interface.
func (n *NetworkTransport) LocalAddr() string {
	addr := n.stream.Addr()

	if addr != nil {
		return addr.String()
	}

	return ""
}

// AdvertiseAddr implements the Transport interface.
func (n *NetworkTransport) AdvertiseAddr() string {
	return n.stream.AdvertiseAddr()
}

// IsShutdown is used to check if the transport is shutdown.
func (n *NetworkTransport) IsShutdown() bool {
	select {
	case <-n.shutdownCh:
		return true
	default:
		return false
	}
}

// Peers implements the Transport interface.
func (n *NetworkTransport) Peers() []string {
	n.peersLock.RLock()
	defer n.peersLock.RUnlock()

	res := make([]string, 0, len(n.peers))
	for key := range n.peers {
		res = append(res, key)
	}
	sort.Strings(res)

	return res
}

// Connect implements the Transport interface.
func (n *NetworkTransport) Connect(target string) error {
	if n.IsShutdown() {
		return ErrTransportShutdown
	}

	n.peersLock.RLock()
	_, ok := n.peers[target]
	n.peersLock.RUnlock()
	if ok {
		return nil
	}

	conn, err := n.stream.Dial(target, n.timeout)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPeerUnreachable, target, err)
	}

	n.logger.WithField("peer", target).Debug("Connected")

	n.addConn(target, conn)

	return nil
}

// Send implements the Transport interface.
func (n *NetworkTransport) Send(target string, cmd interface{}) error {
	if n.IsShutdown() {
		return ErrTransportShutdown
	}

	n.peersLock.RLock()
	conn, ok := n.peers[target]
	n.peersLock.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s is not connected", ErrPeerUnreachable, target)
	}

	msgType, payload, err := encodeMessage(cmd)
	if err != nil {
		return err
	}

	if err := n.writeMessage(conn, msgType, payload); err != nil {
		n.removeConn(conn)
		return fmt.Errorf("sending to %s: %w", target, err)
	}

	return nil
}

func (n *NetworkTransport) writeMessage(conn *netConn, msgType uint8, payload []byte) error {
	conn.wLock.Lock()
	defer conn.wLock.Unlock()

	if n.timeout > 0 {
		conn.conn.SetWriteDeadline(time.Now().Add(n.timeout))
	}

	if err := writeFrame(conn.w, msgType, payload); err != nil {
		return err
	}

	return conn.w.Flush()
}

// Listen opens the stream and handles incoming connections.
func (n *NetworkTransport) Listen() {
	for {
		// Accept incoming connections
		conn, err := n.stream.Accept()
		if err != nil {
			if n.IsShutdown() {
				return
			}
			n.logger.WithField("error", err).Error("Failed to accept connection")
			continue
		}
		n.logger.WithFields(logrus.Fields{
			"node": conn.LocalAddr(),
			"from": conn.RemoteAddr(),
		}).Debug("accepted connection")

		n.addConn(conn.RemoteAddr().String(), conn)
	}
}

// addConn registers a connection in the peer set and starts reading from it
// in a dedicated routine. If a connection with the same key already exists, it
// is replaced.
func (n *NetworkTransport) addConn(key string, conn net.Conn) {
	nc := &netConn{
		key:  key,
		conn: conn,
		r:    bufio.NewReaderSize(conn, bufSize),
		w:    bufio.NewWriterSize(conn, bufSize),
	}

	n.peersLock.Lock()
	if n.IsShutdown() {
		n.peersLock.Unlock()
		nc.Release()
		return
	}
	if old, ok := n.peers[key]; ok {
		old.Release()
	}
	n.peers[key] = nc
	n.peersLock.Unlock()

	go n.handleConn(nc)
}

// removeConn closes a connection and removes it from the peer set, unless it
// has already been replaced.
func (n *NetworkTransport) removeConn(nc *netConn) {
	nc.Release()

	n.peersLock.Lock()
	defer n.peersLock.Unlock()

	if cur, ok := n.peers[nc.key]; ok && cur == nc {
		delete(n.peers, nc.key)
	}
}

// handleConn is used to handle a connection for its lifespan.
func (n *NetworkTransport) handleConn(nc *netConn) {
	defer n.removeConn(nc)

	for {
		if err := n.handleMessage(nc); err != nil {
			switch {
			case err == ErrTransportShutdown || n.IsShutdown():
			case err == io.EOF:
				n.logger.WithField("peer", nc.key).Debug("Peer disconnected")
			case errors.Is(err, ErrMalformedMessage):
				n.logger.WithFields(logrus.Fields{
					"peer":  nc.key,
					"error": err,
				}).Warn("Dropping peer")
			default:
				n.logger.WithFields(logrus.Fields{
					"peer":  nc.key,
					"error": err,
				}).Debug("Connection closed")
			}
			return
		}
	}
}

// handleMessage is used to decode and dispatch a single message.
func (n *NetworkTransport) handleMessage(nc *netConn) error {
	if n.idleTimeout > 0 {
		nc.conn.SetReadDeadline(time.Now().Add(n.idleTimeout))
	}

	msgType, payload, err := readFrame(nc.r)
	if err != nil {
		return err
	}

	cmd, err := decodeMessage(msgType, payload)
	if err != nil {
		return err
	}

	select {
	case n.consumeCh <- Message{From: nc.key, Command: cmd}:
	case <-n.shutdownCh:
		return ErrTransportShutdown
	}

	return nil
}
