package p2p

import (
	"context"
	"log"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

const dhtLookupTimeout = 30 * time.Second

func (n *Node) connectBootstrap(addrs []string) {
	for _, a := range addrs {
		info, err := peer.AddrInfoFromString(a)
		if err != nil {
			log.Printf("[P2P] bad bootstrap address %q: %v", a, err)
			continue
		}
		ctx, cancel := context.WithTimeout(n.Ctx, dialTimeout)
		if err := n.Host.Connect(ctx, *info); err != nil {
			log.Printf("[P2P] bootstrap peer %s unreachable: %v", info.ID, err)
		}
		cancel()
	}
}

// FindPeer asks the DHT for the current addresses of pid.
func (n *Node) FindPeer(ctx context.Context, pid peer.ID) (peer.AddrInfo, error) {
	if n.DHT == nil {
		return peer.AddrInfo{}, ErrNoDHT
	}
	ctx, cancel := context.WithTimeout(ctx, dhtLookupTimeout)
	defer cancel()
	info, err := n.DHT.FindPeer(ctx, pid)
	if err != nil {
		return peer.AddrInfo{}, err
	}
	log.Printf("[P2P] dht located %s at %v", pid, info.Addrs)
	return info, nil
}
