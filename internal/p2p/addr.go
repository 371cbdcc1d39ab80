package p2p

import (
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"relaychat/internal/crypto"
	"relaychat/internal/models"
)

// ParsePeerAddr turns a full /.../p2p/<id> multiaddr into a darknet peer
// entry named nickname.
func ParsePeerAddr(addr, nickname string) (*models.Peer, error) {
	maddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return nil, ErrBadPeerAddress.WithDetails(err.Error())
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return nil, ErrBadPeerAddress.WithDetails(err.Error())
	}
	id, err := crypto.IdentityFromPeerID(info.ID)
	if err != nil {
		return nil, err
	}
	p := &models.Peer{
		Identity: id,
		PeerID:   info.ID.String(),
		Nickname: nickname,
	}
	for _, a := range info.Addrs {
		p.Addrs = append(p.Addrs, a.String())
	}
	return p, nil
}

// addrInfo rebuilds a dialable AddrInfo from a stored peer, skipping
// addresses that no longer parse.
func addrInfo(p *models.Peer) (peer.AddrInfo, error) {
	pid, err := peer.Decode(p.PeerID)
	if err != nil {
		return peer.AddrInfo{}, ErrBadPeerAddress.WithDetails(err.Error())
	}
	info := peer.AddrInfo{ID: pid}
	for _, s := range p.Addrs {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			continue
		}
		info.Addrs = append(info.Addrs, a)
	}
	return info, nil
}
