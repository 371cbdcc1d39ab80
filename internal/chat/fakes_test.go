package chat

import (
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"relaychat/internal/models"
)

func ident(name string) models.Identity {
	return models.Identity(sha256.Sum256([]byte(name)))
}

type sentMsg struct {
	To   models.Identity
	Room uint64
	Msg  models.Message
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []sentMsg
	direct mapset.Set[models.Identity]
	peers  map[models.Identity]models.Peer
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		direct: mapset.NewSet[models.Identity](),
		peers:  make(map[models.Identity]models.Peer),
	}
}

func (f *fakeTransport) addPeer(id models.Identity, nickname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peers[id] = models.Peer{Identity: id, Nickname: nickname}
	f.direct.Add(id)
}

func (f *fakeTransport) Send(to models.Identity, room uint64, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{To: to, Room: room, Msg: msg})
	return nil
}

func (f *fakeTransport) CurrentDirectPeers() mapset.Set[models.Identity] {
	return f.direct.Clone()
}

func (f *fakeTransport) Peer(id models.Identity) (models.Peer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.peers[id]
	return p, ok
}

// take returns everything sent so far and resets the log.
func (f *fakeTransport) take() []sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

func recipients(sends []sentMsg) mapset.Set[models.Identity] {
	set := mapset.NewThreadUnsafeSet[models.Identity]()
	for _, s := range sends {
		set.Add(s.To)
	}
	return set
}

func idSet(ids ...models.Identity) mapset.Set[models.Identity] {
	return mapset.NewThreadUnsafeSet(ids...)
}

type displayEvent struct {
	Room    uint64
	Kind    EventKind
	Subject string
}

type fakeDisplay struct {
	mu     sync.Mutex
	lines  []Line
	events []displayEvent
}

func (d *fakeDisplay) AppendLine(room uint64, line Line) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, line)
}

func (d *fakeDisplay) AppendSystemEvent(room uint64, kind EventKind, subject string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, displayEvent{Room: room, Kind: kind, Subject: subject})
}

func (d *fakeDisplay) subjects(kind EventKind) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, e := range d.events {
		if e.Kind == kind {
			out = append(out, e.Subject)
		}
	}
	return out
}

func (d *fakeDisplay) texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, l := range d.lines {
		out = append(out, l.Text)
	}
	return out
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var (
	selfID   = ident("U")
	p1       = ident("P1")
	p2       = ident("P2")
	p3       = ident("P3")
	p4       = ident("P4")
	outsider = ident("X")
)

func newTestRoom(t *testing.T) (*Room, *fakeTransport, *fakeDisplay, *clock) {
	t.Helper()
	tr := newFakeTransport()
	disp := &fakeDisplay{}
	clk := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	r := NewRoom(RoomConfig{
		ID:        42,
		Name:      "R",
		Self:      selfID,
		SelfName:  "Ursula",
		Transport: tr,
		Display:   disp,
		Now:       clk.Now,
	})
	return r, tr, disp, clk
}
