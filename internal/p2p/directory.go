package p2p

import (
	"bufio"
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"relaychat/internal/models"
)

const (
	ProtocolID protocol.ID = "/relaychat/n2n/1.0.0"

	MaxEnvelopeSize = 1 << 20
	dialTimeout     = 15 * time.Second
	writeTimeout    = 10 * time.Second
)

// Handler consumes what the directory receives from trusted peers.
type Handler interface {
	HandleEnvelope(from models.Identity, data []byte) error
	PeerDisconnected(id models.Identity)
}

type DirectoryConfig struct {
	Node      *Node
	Peers     []*models.Peer
	QueueSize int
	// OnSeen is called whenever a trusted peer connects.
	OnSeen func(id models.Identity, at time.Time)
}

// Directory is the set of trusted darknet peers and the links to them.
type Directory struct {
	node      *Node
	queueSize int
	onSeen    func(models.Identity, time.Time)

	mu       sync.RWMutex
	handler  Handler
	peers    map[models.Identity]*models.Peer
	byPeerID map[peer.ID]models.Identity
	writers  map[models.Identity]*peerWriter
	closed   bool
}

func NewDirectory(cfg DirectoryConfig) *Directory {
	q := cfg.QueueSize
	if q <= 0 {
		q = 1
	}
	d := &Directory{
		node:      cfg.Node,
		queueSize: q,
		onSeen:    cfg.OnSeen,
		peers:     make(map[models.Identity]*models.Peer),
		byPeerID:  make(map[peer.ID]models.Identity),
		writers:   make(map[models.Identity]*peerWriter),
	}
	for _, p := range cfg.Peers {
		if err := d.AddPeer(p); err != nil {
			log.Printf("[P2P] skipping directory entry %s: %v", p.Nickname, err)
		}
	}
	return d
}

// Start installs the stream handler and connection notifications. h receives
// every inbound envelope.
func (d *Directory) Start(h Handler) {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()

	d.node.Host.Network().Notify(&network.NotifyBundle{
		ConnectedF:    d.connected,
		DisconnectedF: d.disconnected,
	})
	d.node.Host.SetStreamHandler(ProtocolID, d.handleStream)
	log.Printf("[P2P] stream handler set for protocol: %s", ProtocolID)
}

func (d *Directory) AddPeer(p *models.Peer) error {
	info, err := addrInfo(p)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.peers[p.Identity] = &cp
	d.byPeerID[info.ID] = p.Identity
	return nil
}

func (d *Directory) identityOf(pid peer.ID) (models.Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byPeerID[pid]
	return id, ok
}

func (d *Directory) Peer(id models.Identity) (models.Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.peers[id]
	if !ok {
		return models.Peer{}, false
	}
	return *p, true
}

// PeerByNickname is an exact match lookup.
func (d *Directory) PeerByNickname(nickname string) (models.Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.peers {
		if p.Nickname == nickname {
			return *p, true
		}
	}
	return models.Peer{}, false
}

// Peers returns every trusted peer ordered by nickname.
func (d *Directory) Peers() []models.Peer {
	d.mu.RLock()
	out := make([]models.Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, *p)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out
}

func (d *Directory) isConnected(pid peer.ID) bool {
	return d.node.Host.Network().Connectedness(pid) == network.Connected
}

// CurrentDirectPeers returns the trusted peers with a live connection.
func (d *Directory) CurrentDirectPeers() mapset.Set[models.Identity] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := mapset.NewSet[models.Identity]()
	for pid, id := range d.byPeerID {
		if d.isConnected(pid) {
			out.Add(id)
		}
	}
	return out
}

// Send queues msg for delivery to a trusted peer. Delivery is fire and
// forget; a full queue drops the event.
func (d *Directory) Send(to models.Identity, room uint64, msg models.Message) error {
	data, err := models.MarshalEnvelope(room, msg)
	if err != nil {
		return err
	}
	w, err := d.writerFor(to)
	if err != nil {
		return err
	}
	if !w.enqueue(data) {
		log.Printf("[P2P] send queue to %s full, dropping %s", to.Short(), msg.Type())
		return ErrSendQueueFull.WithDetails(to.Short())
	}
	return nil
}

func (d *Directory) writerFor(id models.Identity) (*peerWriter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.writers[id]; ok {
		return w, nil
	}
	p, ok := d.peers[id]
	if !ok || d.closed {
		return nil, ErrUnknownPeer.WithDetails(id.Short())
	}
	pid, err := peer.Decode(p.PeerID)
	if err != nil {
		return nil, ErrBadPeerAddress.WithDetails(err.Error())
	}
	w := newPeerWriter(d.node, pid, id, d.queueSize)
	d.writers[id] = w
	go w.run()
	return w, nil
}

func (d *Directory) dropWriter(id models.Identity) {
	d.mu.Lock()
	w, ok := d.writers[id]
	delete(d.writers, id)
	d.mu.Unlock()
	if ok {
		w.stop(false)
	}
}

func (d *Directory) connected(_ network.Network, c network.Conn) {
	id, ok := d.identityOf(c.RemotePeer())
	if !ok {
		return
	}
	log.Printf("[P2P] darknet peer %s connected from %s", id.Short(), c.RemoteMultiaddr())
	if d.onSeen != nil {
		d.onSeen(id, time.Now())
	}
}

func (d *Directory) disconnected(n network.Network, c network.Conn) {
	pid := c.RemotePeer()
	id, ok := d.identityOf(pid)
	if !ok || n.Connectedness(pid) == network.Connected {
		return
	}
	log.Printf("[P2P] darknet peer %s disconnected", id.Short())
	// notifications must not block the swarm
	go d.peerLost(id)
}

func (d *Directory) peerLost(id models.Identity) {
	d.dropWriter(id)
	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()
	if h != nil {
		h.PeerDisconnected(id)
	}
}

func (d *Directory) handleStream(s network.Stream) {
	remote := s.Conn().RemotePeer()
	id, ok := d.identityOf(remote)
	if !ok {
		log.Printf("[P2P] rejecting stream from non-darknet peer %s", remote)
		_ = s.Reset()
		return
	}
	defer s.Close()

	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()

	sc := bufio.NewScanner(s)
	sc.Buffer(make([]byte, 0, 4096), MaxEnvelopeSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		data := make([]byte, len(line))
		copy(data, line)
		if h != nil {
			// errors are logged by the handler
			_ = h.HandleEnvelope(id, data)
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, network.ErrReset) {
		log.Printf("[P2P] stream from %s ended: %v", id.Short(), err)
		_ = s.Reset()
	}
}

// ConnectAll dials every trusted peer that is not already connected and
// returns how many are connected afterwards.
func (d *Directory) ConnectAll(ctx context.Context) int {
	var wg sync.WaitGroup
	for _, p := range d.Peers() {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Connect(ctx, p.Identity); err != nil {
				log.Printf("[P2P] could not reach %s: %v", p.DisplayName(), err)
			}
		}()
	}
	wg.Wait()
	return d.CurrentDirectPeers().Cardinality()
}

// Connect dials one trusted peer using its stored addresses, falling back to
// a DHT lookup when none are stored.
func (d *Directory) Connect(ctx context.Context, id models.Identity) error {
	p, ok := d.Peer(id)
	if !ok {
		return ErrUnknownPeer.WithDetails(id.Short())
	}
	info, err := addrInfo(&p)
	if err != nil {
		return err
	}
	if d.isConnected(info.ID) {
		return nil
	}
	if len(info.Addrs) == 0 {
		if d.node.DHT == nil {
			return ErrNoAddress.WithDetails(p.DisplayName())
		}
		if info, err = d.node.FindPeer(ctx, info.ID); err != nil {
			return err
		}
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return d.node.Host.Connect(dctx, info)
}

// Close stops every writer. The host is closed by its owner.
func (d *Directory) Close() {
	d.mu.Lock()
	d.closed = true
	writers := d.writers
	d.writers = make(map[models.Identity]*peerWriter)
	d.mu.Unlock()
	d.node.Host.RemoveStreamHandler(ProtocolID)
	for _, w := range writers {
		w.stop(true)
	}
}
