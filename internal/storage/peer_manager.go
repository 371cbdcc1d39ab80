package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"relaychat/internal/models"
)

// PeerManager batches last-seen updates off the network goroutines.
type PeerManager struct {
	writeQ chan touchRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once

	writeBatchSize int           // how many updates to write before flushing
	writeFlushFreq time.Duration // max wait before flushing batch
}

type touchRequest struct {
	id   models.Identity
	seen time.Time
}

func NewPeerManager(writeQSize int) *PeerManager {
	if writeQSize <= 0 {
		writeQSize = 1
	}
	return &PeerManager{
		writeQ:         make(chan touchRequest, writeQSize),
		stopCh:         make(chan struct{}),
		writeBatchSize: 16,
		writeFlushFreq: 200 * time.Millisecond,
	}
}

func (p *PeerManager) Start(store *Store) {
	p.wg.Add(1)
	go p.peerWriteWorker(store)
}

// Stop stops the worker and blocks until the queue is drained.
func (p *PeerManager) Stop() {
	p.once.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// EnqueueSeen never blocks; a full queue drops the update.
func (p *PeerManager) EnqueueSeen(id models.Identity, seen time.Time) error {
	select {
	case p.writeQ <- touchRequest{id: id, seen: seen}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *PeerManager) peerWriteWorker(store *Store) {
	defer p.wg.Done()
	// later updates for the same peer win
	batch := make(map[models.Identity]time.Time, p.writeBatchSize)
	flushTimer := time.NewTimer(p.writeFlushFreq)
	defer flushTimer.Stop()

	flush := func() {
		for id, seen := range batch {
			if err := store.TouchPeer(context.Background(), id, seen); err != nil {
				log.Printf("[STORE] last seen for %s: %v", id.Short(), err)
			}
		}
		clear(batch)
	}
	add := func(req touchRequest) {
		if prev, ok := batch[req.id]; !ok || req.seen.After(prev) {
			batch[req.id] = req.seen
		}
	}

	for {
		select {
		case <-p.stopCh:
			for {
				select {
				case req := <-p.writeQ:
					add(req)
				default:
					flush()
					return
				}
			}
		case req := <-p.writeQ:
			add(req)
			if len(batch) >= p.writeBatchSize {
				flush()
				if !flushTimer.Stop() {
					<-flushTimer.C
				}
				flushTimer.Reset(p.writeFlushFreq)
			}
		case <-flushTimer.C:
			flush()
			flushTimer.Reset(p.writeFlushFreq)
		}
	}
}
