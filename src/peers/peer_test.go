package peers

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
)

func TestJSONPeers(t *testing.T) {
	// Create a test dir
	dir, err := ioutil.TempDir("", "stakechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	// Create the store
	store := NewJSONPeers(dir)

	// Try a read, should get nothing
	peerSet, err := store.Peers()
	if !os.IsNotExist(err) {
		t.Fatalf("store.Peers() should fail with a not-exist error, got %v", err)
	}
	if peerSet != nil {
		t.Fatalf("peers: %v", peerSet)
	}

	newPeers := []*Peer{}
	for i := 0; i < 3; i++ {
		key, _ := keys.GenerateECDSAKey()
		peer := NewPeer(
			keys.PublicKeyHex(&key.PublicKey),
			fmt.Sprintf("addr%d", 2-i),
			fmt.Sprintf("node%d", i),
		)
		newPeers = append(newPeers, peer)
	}

	if err := store.SetPeers(newPeers); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should find 3 peers, sorted by address
	peerSet, err = store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 3 {
		t.Fatalf("peers: %v", peerSet)
	}

	expectedAddrs := []string{"addr0", "addr1", "addr2"}
	if !reflect.DeepEqual(peerSet.Addresses(), expectedAddrs) {
		t.Fatalf("addresses should be %v, not %v", expectedAddrs, peerSet.Addresses())
	}

	for _, p := range newPeers {
		got, ok := peerSet.ByPubKey[p.PubKeyHex]
		if !ok {
			t.Fatalf("peer %s not found", p.PubKeyHex)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("peer should be %#v, not %#v", p, got)
		}
	}
}

func TestJSONPeersHandWritten(t *testing.T) {
	dir, err := ioutil.TempDir("", "stakechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	content := `[
	{"NetAddr": "127.0.0.1:1337", "PubKeyHex": "0x04abcd", "Moniker": "alice"},
	{"NetAddr": " 127.0.0.1:1338 "},
	{"NetAddr": ""},
	{"NetAddr": "127.0.0.1:1337", "PubKeyHex": "0x04ef01", "Moniker": "alice2"}
]`
	if err := ioutil.WriteFile(filepath.Join(dir, jsonPeerPath), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	peerSet, err := NewJSONPeers(dir).Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if peerSet.Len() != 2 {
		t.Fatalf("expected 2 peers, got %d", peerSet.Len())
	}

	alice := peerSet.ByAddr["127.0.0.1:1337"]
	if alice.Moniker != "alice2" || alice.PubKeyHex != "0X04EF01" {
		t.Fatalf("unexpected peer %#v", alice)
	}

	if _, ok := peerSet.ByAddr["127.0.0.1:1338"]; !ok {
		t.Fatalf("address should be trimmed")
	}
}

func TestJSONPeersEmpty(t *testing.T) {
	dir, err := ioutil.TempDir("", "stakechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	if err := ioutil.WriteFile(filepath.Join(dir, jsonPeerPath), []byte("\n"), 0600); err != nil {
		t.Fatal(err)
	}

	peerSet, err := NewJSONPeers(dir).Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 0 {
		t.Fatalf("expected no peers, got %d", peerSet.Len())
	}
}

func TestExcludePeer(t *testing.T) {
	peers := []*Peer{
		NewPeer("", "a", ""),
		NewPeer("", "b", ""),
		NewPeer("", "c", ""),
	}

	index, others := ExcludePeer(peers, "b")
	if index != 1 || len(others) != 2 {
		t.Fatalf("expected index 1 and 2 others, got %d and %d", index, len(others))
	}

	index, others = ExcludePeer(peers, "z")
	if index != -1 || len(others) != 3 {
		t.Fatalf("expected index -1 and 3 others, got %d and %d", index, len(others))
	}

	without := NewPeerSet(peers).Without("a")
	if !reflect.DeepEqual(without.Addresses(), []string{"b", "c"}) {
		t.Fatalf("unexpected addresses %v", without.Addresses())
	}
}

func TestPeerID(t *testing.T) {
	key, _ := keys.GenerateECDSAKey()

	p := NewPeer(keys.PublicKeyHex(&key.PublicKey), "addr", "")
	if p.ID() != keys.PublicKeyID(&key.PublicKey) {
		t.Fatalf("peer ID should match the key ID")
	}

	if NewPeer("", "addr", "").ID() == 0 {
		t.Fatalf("peer without key should have an ID")
	}
}

func TestStaticPeers(t *testing.T) {
	store := NewStaticPeers([]*Peer{NewPeer("", "b", ""), NewPeer("", "a", "")})

	ps, _ := store.Peers()
	if !reflect.DeepEqual(ps.Addresses(), []string{"a", "b"}) {
		t.Fatalf("unexpected addresses %v", ps.Addresses())
	}

	store.SetPeers(nil)
	ps, _ = store.Peers()
	if ps.Len() != 0 {
		t.Fatalf("expected no peers")
	}
}
