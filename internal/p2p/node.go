// Package p2p carries room events between darknet peers over libp2p.
package p2p

import (
	"context"
	"fmt"
	"log"

	libp2p "github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	lcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
)

type Node struct {
	Host host.Host
	DHT  *dht.IpfsDHT
	Ctx  context.Context
}

// NewNode starts a libp2p host under the profile key.
func NewNode(ctx context.Context, priv lcrypto.PrivKey, listenAddrs []string) (*Node, error) {
	n := &Node{Ctx: ctx}
	if err := n.InitHost(priv, listenAddrs); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) InitHost(priv lcrypto.PrivKey, listenAddrs []string) error {
	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddrs...),
	)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	n.Host = h
	log.Printf("[P2P] host %s listening on %v", h.ID(), h.Addrs())
	return nil
}

// InitDHT joins the Kademlia DHT so peers without a stored address can be
// located by peer ID.
func (n *Node) InitDHT(bootstrapPeers []string) error {
	kad, err := dht.New(n.Ctx, n.Host, dht.Mode(dht.ModeAutoServer))
	if err != nil {
		return fmt.Errorf("create dht: %w", err)
	}
	n.DHT = kad
	n.connectBootstrap(bootstrapPeers)
	if err := n.DHT.Bootstrap(n.Ctx); err != nil {
		return fmt.Errorf("bootstrap dht: %w", err)
	}
	log.Printf("[P2P] dht bootstrap started with %d configured peers", len(bootstrapPeers))
	return nil
}

// FullAddrs lists the listen addresses with the /p2p component appended, in
// the form peers pass to `peer add`.
func (n *Node) FullAddrs() []string {
	out := make([]string, 0, len(n.Host.Addrs()))
	for _, a := range n.Host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a, n.Host.ID()))
	}
	return out
}

func (n *Node) Close() error {
	if n.DHT != nil {
		if err := n.DHT.Close(); err != nil {
			log.Printf("[P2P] closing dht: %v", err)
		}
	}
	return n.Host.Close()
}
