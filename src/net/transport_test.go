package net

import (
	"bufio"
	"encoding/binary"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/common"
)

const (
	INMEM = iota
	TCP
	numTestTransports // NOTE: must be last
)

func NewTestTransport(ttype int, addr string, t *testing.T) Transport {
	switch ttype {
	case INMEM:
		_, it := NewInmemTransport(addr)
		return it
	case TCP:
		tt, err := NewTCPTransport(addr, "", time.Second, 0, common.NewTestEntry(t, common.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		go tt.Listen()
		return tt
	default:
		panic("Unknown transport type")
	}
}

// testAddr returns an address suitable for the transport type.
func testAddr(ttype int) string {
	if ttype == TCP {
		return "127.0.0.1:0"
	}
	return ""
}

func receive(t *testing.T, trans Transport) Message {
	select {
	case msg := <-trans.Consumer():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for message on %s", trans.LocalAddr())
	}
	return Message{}
}

func testTransaction() *blockchain.Transaction {
	return &blockchain.Transaction{
		ID:              "f7c1f8a4-7a4f-4c55-8a5e-2f4e6d2b9a10",
		Kind:            blockchain.KindTransfer,
		Sender:          "0X04AA",
		Receiver:        "0X04BB",
		Amount:          5,
		Timestamp:       1565000000000000000,
		SignerPublicKey: "0X04AA",
		Signature:       "abc|def",
	}
}

func TestTransport_StartStop(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, testAddr(ttype), t)
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
}

func TestTransport_Gossip(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, testAddr(ttype), t)
		defer trans1.Close()

		trans2 := NewTestTransport(ttype, testAddr(ttype), t)
		defer trans2.Close()

		if err := trans2.Connect(trans1.AdvertiseAddr()); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		// connecting twice is a no-op
		if err := trans2.Connect(trans1.AdvertiseAddr()); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		tx := testTransaction()
		if err := trans2.Send(trans1.AdvertiseAddr(), &NewTransactionMessage{Transaction: tx}); err != nil {
			t.Fatalf("Send: %v", err)
		}

		msg := receive(t, trans1)
		cmd, ok := msg.Command.(*NewTransactionMessage)
		if !ok {
			t.Fatalf("expected NewTransactionMessage, got %T", msg.Command)
		}
		if !reflect.DeepEqual(cmd.Transaction, tx) {
			t.Fatalf("transaction mismatch: %#v %#v", *cmd.Transaction, *tx)
		}
		if cmd.Transaction == tx {
			t.Fatalf("received transaction should be a copy")
		}

		// reply on the same connection
		if err := trans1.Send(msg.From, &BlockchainRequest{FromSequence: 3}); err != nil {
			t.Fatalf("Send reply: %v", err)
		}

		reply := receive(t, trans2)
		req, ok := reply.Command.(*BlockchainRequest)
		if !ok || req.FromSequence != 3 {
			t.Fatalf("unexpected reply %#v", reply.Command)
		}
		if reply.From != trans1.AdvertiseAddr() {
			t.Fatalf("reply should come from %s, not %s", trans1.AdvertiseAddr(), reply.From)
		}

		block := blockchain.NewGenesisBlock()
		if err := trans1.Send(msg.From, &BlockchainResponse{Blocks: []*blockchain.Block{block}}); err != nil {
			t.Fatalf("Send blocks: %v", err)
		}

		resp, ok := receive(t, trans2).Command.(*BlockchainResponse)
		if !ok || len(resp.Blocks) != 1 || !resp.Blocks[0].IsGenesis() {
			t.Fatalf("unexpected response %#v", resp)
		}

		if len(trans1.Peers()) != 1 || len(trans2.Peers()) != 1 {
			t.Fatalf("each transport should have 1 peer: %v %v", trans1.Peers(), trans2.Peers())
		}
	}
}

func TestTransport_Unreachable(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, testAddr(ttype), t)
		defer trans.Close()

		target := NewInmemAddr()
		if ttype == TCP {
			// grab a free port and release it
			l, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			target = l.Addr().String()
			l.Close()
		}

		if err := trans.Connect(target); !errors.Is(err, ErrPeerUnreachable) {
			t.Fatalf("expected ErrPeerUnreachable, got %v", err)
		}

		if err := trans.Send(target, &BlockchainRequest{}); !errors.Is(err, ErrPeerUnreachable) {
			t.Fatalf("expected ErrPeerUnreachable, got %v", err)
		}

		if len(trans.Peers()) != 0 {
			t.Fatalf("failed dial should not add a peer")
		}
	}
}

func TestTransport_PeerClosed(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, testAddr(ttype), t)
		defer trans1.Close()

		trans2 := NewTestTransport(ttype, testAddr(ttype), t)

		if err := trans2.Connect(trans1.AdvertiseAddr()); err != nil {
			t.Fatal(err)
		}
		if err := trans2.Send(trans1.AdvertiseAddr(), &BlockchainRequest{}); err != nil {
			t.Fatal(err)
		}
		receive(t, trans1)

		trans2.Close()

		deadline := time.Now().Add(2 * time.Second)
		for len(trans1.Peers()) != 0 {
			if time.Now().After(deadline) {
				t.Fatalf("closed peer should be removed: %v", trans1.Peers())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// A malformed frame closes the offending connection but leaves the others
// alone.
func TestTCPTransport_MalformedFrame(t *testing.T) {
	trans1 := NewTestTransport(TCP, "127.0.0.1:0", t)
	defer trans1.Close()

	good := NewTestTransport(TCP, "127.0.0.1:0", t)
	defer good.Close()

	if err := good.Connect(trans1.AdvertiseAddr()); err != nil {
		t.Fatal(err)
	}

	cases := map[string][]byte{
		"unknown type": append([]byte{99, 0, 0, 0, 2}, []byte("{}")...),
		"bad payload":  append([]byte{msgNewTransaction, 0, 0, 0, 3}, []byte("xyz")...),
		"too large": func() []byte {
			h := make([]byte, frameHeaderSize)
			h[0] = msgNewBlock
			binary.BigEndian.PutUint32(h[1:], maxMessageSize+1)
			return h
		}(),
	}

	for name, frame := range cases {
		conn, err := net.Dial("tcp", trans1.AdvertiseAddr())
		if err != nil {
			t.Fatal(err)
		}

		w := bufio.NewWriter(conn)
		w.Write(frame)
		w.Flush()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(make([]byte, 1)); err == nil {
			t.Fatalf("%s: connection should have been closed", name)
		} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
			t.Fatalf("%s: connection was not closed", name)
		}
		conn.Close()
	}

	if err := good.Send(trans1.AdvertiseAddr(), &BlockchainRequest{FromSequence: 1}); err != nil {
		t.Fatal(err)
	}
	msg := receive(t, trans1)
	if req, ok := msg.Command.(*BlockchainRequest); !ok || req.FromSequence != 1 {
		t.Fatalf("unexpected message %#v", msg.Command)
	}
}

func TestTCPTransport_IdleTimeout(t *testing.T) {
	trans1, err := NewTCPTransport("127.0.0.1:0", "", time.Second, 100*time.Millisecond, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatal(err)
	}
	go trans1.Listen()
	defer trans1.Close()

	trans2 := NewTestTransport(TCP, "127.0.0.1:0", t)
	defer trans2.Close()

	if err := trans2.Connect(trans1.AdvertiseAddr()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if len(trans1.Peers()) == 0 && len(trans2.Peers()) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("idle connection should be closed: %v %v", trans1.Peers(), trans2.Peers())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
