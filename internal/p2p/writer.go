package p2p

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"

	"relaychat/internal/models"
)

// peerWriter owns the outbound stream to one peer. A single goroutine writes
// so envelopes leave in the order they were queued.
type peerWriter struct {
	node  *Node
	pid   peer.ID
	id    models.Identity
	queue chan []byte
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
	flush atomic.Bool
}

func newPeerWriter(node *Node, pid peer.ID, id models.Identity, size int) *peerWriter {
	w := &peerWriter{
		node:  node,
		pid:   pid,
		id:    id,
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	return w
}

func (w *peerWriter) enqueue(data []byte) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.queue <- data:
		return true
	default:
		return false
	}
}

// stop ends the writer. With flush set, queued envelopes are written first.
func (w *peerWriter) stop(flush bool) {
	w.once.Do(func() {
		w.flush.Store(flush)
		close(w.done)
	})
	w.wg.Wait()
}

func (w *peerWriter) openStream() (network.Stream, error) {
	ctx, cancel := context.WithTimeout(w.node.Ctx, dialTimeout)
	defer cancel()
	return w.node.Host.NewStream(ctx, w.pid, ProtocolID)
}

func (w *peerWriter) write(s network.Stream, data []byte) network.Stream {
	if s == nil {
		var err error
		if s, err = w.openStream(); err != nil {
			log.Printf("[P2P] open stream to %s: %v; dropping event", w.id.Short(), err)
			return nil
		}
	}
	_ = s.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.Write(append(data, '\n')); err != nil {
		log.Printf("[P2P] write to %s: %v; dropping event", w.id.Short(), err)
		_ = s.Reset()
		return nil
	}
	return s
}

// run writes queued envelopes until stopped, then flushes what is left so
// leave notices queued during shutdown still go out.
func (w *peerWriter) run() {
	defer w.wg.Done()
	var s network.Stream
	defer func() {
		if s != nil {
			_ = s.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			if !w.flush.Load() {
				return
			}
			for {
				select {
				case data := <-w.queue:
					s = w.write(s, data)
				default:
					return
				}
			}
		case data := <-w.queue:
			s = w.write(s, data)
		}
	}
}
