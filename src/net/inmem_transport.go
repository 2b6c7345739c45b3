package net

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// inmemRegistry lets in-memory transports find each other by address.
var inmemRegistry = struct {
	sync.RWMutex
	transports map[string]*InmemTransport
}{
	transports: make(map[string]*InmemTransport),
}

// NewInmemAddr returns a new in-memory addr with a random UUID as the ID.
func NewInmemAddr() string {
	return uuid.New().String()
}

// InmemTransport implements the Transport interface, to allow nodes to be
// tested in-memory without going over a network. Messages are encoded and
// decoded exactly as they would be on the wire, so peers never share values.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Message
	localAddr  string
	peers      map[string]*InmemTransport
	timeout    time.Duration
	shutdownCh chan struct{}
	closeOnce  sync.Once
}

// NewInmemTransport is used to initialize a new transport and generates a
// random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan Message, consumerBuffer),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
		timeout:    time.Second,
		shutdownCh: make(chan struct{}),
	}

	inmemRegistry.Lock()
	inmemRegistry.transports[addr] = trans
	inmemRegistry.Unlock()

	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan Message {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// AdvertiseAddr implements the Transport interface.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.localAddr
}

// Connect implements the Transport interface. Like a TCP connection, the link
// is usable in both directions.
func (i *InmemTransport) Connect(target string) error {
	inmemRegistry.RLock()
	peer, ok := inmemRegistry.transports[target]
	inmemRegistry.RUnlock()

	if !ok || peer.isShutdown() {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, target)
	}

	i.Lock()
	i.peers[target] = peer
	i.Unlock()

	peer.Lock()
	peer.peers[i.localAddr] = i
	peer.Unlock()

	return nil
}

// Send implements the Transport interface.
func (i *InmemTransport) Send(target string, cmd interface{}) error {
	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s is not connected", ErrPeerUnreachable, target)
	}

	msgType, payload, err := encodeMessage(cmd)
	if err != nil {
		return err
	}

	decoded, err := decodeMessage(msgType, payload)
	if err != nil {
		return err
	}

	select {
	case peer.consumerCh <- Message{From: i.localAddr, Command: decoded}:
		return nil
	case <-peer.shutdownCh:
		i.Disconnect(target)
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, target)
	case <-time.After(i.timeout):
		return fmt.Errorf("sending to %s: timed out", target)
	}
}

// Peers implements the Transport interface.
func (i *InmemTransport) Peers() []string {
	i.RLock()
	defer i.RUnlock()

	res := make([]string, 0, len(i.peers))
	for addr := range i.peers {
		res = append(res, addr)
	}
	sort.Strings(res)

	return res
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.closeOnce.Do(func() {
		close(i.shutdownCh)

		inmemRegistry.Lock()
		if inmemRegistry.transports[i.localAddr] == i {
			delete(inmemRegistry.transports, i.localAddr)
		}
		inmemRegistry.Unlock()

		i.RLock()
		peers := make([]*InmemTransport, 0, len(i.peers))
		for _, p := range i.peers {
			peers = append(peers, p)
		}
		i.RUnlock()

		for _, p := range peers {
			p.Disconnect(i.localAddr)
		}

		i.DisconnectAll()
	})
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

func (i *InmemTransport) isShutdown() bool {
	select {
	case <-i.shutdownCh:
		return true
	default:
		return false
	}
}
