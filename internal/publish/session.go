package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/page"
	"github.com/ethereum/go-ethereum/common"
)

// ErrPublishInFlight rejects a publish while another one is still pending.
var ErrPublishInFlight = errors.New("a publish is already in progress")

// Store writes a serialized document under identifier for the wallet's address.
type Store interface {
	StoreDocument(ctx context.Context, wallet chain.Wallet, identifier, data string) (common.Hash, error)
}

// Session 对应一个浏览器编辑会话，同一时间最多只有一个发布在进行中。
type Session struct {
	store    Store
	network  string
	chainID  uint64
	history  Recorder
	now      func() time.Time
	mu       sync.Mutex
	identity page.Identity
	gen      uint64
	status   Status
	writing  bool
	done     chan struct{}
}

// NewSession returns an idle session publishing through store to the named network.
// history may be nil.
func NewSession(store Store, network string, chainID uint64, history Recorder) *Session {
	s := &Session{
		store:   store,
		network: network,
		chainID: chainID,
		history: history,
		now:     time.Now,
	}
	s.status = Status{State: StateIdle, UpdatedAt: s.now()}
	return s
}

// Begin binds the session to identity and invalidates any pending result.
// A write that is still pending keeps running and blocks new publishes until it lands.
func (s *Session) Begin(identity page.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.gen++
	s.status = Status{State: StateIdle, UpdatedAt: s.now()}
}

// Identity returns the page the session is bound to.
func (s *Session) Identity() page.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Status returns the current snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Publishing reports whether a publish is pending.
func (s *Session) Publishing() bool {
	return s.Status().State == StatePublishing
}

// Writing reports whether a submitted write has not landed yet, including one whose
// result Begin already discarded.
func (s *Session) Writing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing
}

// Reset returns a settled session to idle. A pending publish is left alone.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State == StatePublishing {
		return
	}
	s.status = Status{State: StateIdle, UpdatedAt: s.now()}
}

// Publish serializes doc and submits it in the background. It returns once the write has
// been handed off; Status reports the outcome.
func (s *Session) Publish(ctx context.Context, wallet chain.Wallet, doc *page.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writing {
		return ErrPublishInFlight
	}
	if wallet == nil {
		s.status = Status{
			State:     StateError,
			Category:  CategoryWalletNotReady,
			Message:   Message(CategoryWalletNotReady, s.network, nil),
			UpdatedAt: s.now(),
		}
		return chain.ErrWalletNotReady
	}
	if err := s.identity.Validate(); err != nil {
		return err
	}
	if doc == nil {
		doc = page.EmptyDocument()
	}
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	s.status = Status{
		State:     StatePublishing,
		Message:   fmt.Sprintf("Sending transaction to %s blockchain...", s.network),
		UpdatedAt: s.now(),
	}
	gen := s.gen
	identity := s.identity
	done := make(chan struct{})
	s.done = done
	s.writing = true

	// 链上确认时间不可控，后台写入不设超时。
	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		hash, err := s.store.StoreDocument(bg, wallet, identity.Identifier, data)
		s.settle(bg, gen, identity, wallet.Address(), hash, err)
	}()
	return nil
}

func (s *Session) settle(ctx context.Context, gen uint64, identity page.Identity, owner common.Address, hash common.Hash, err error) {
	status := Status{TxHash: hash, UpdatedAt: s.now()}
	if err != nil {
		status.State = StateError
		status.Category = Classify(err)
		status.Message = Message(status.Category, s.network, err)
		log.Printf("[PUBLISH] %s failed (%s): %v", identity, status.Category, err)
	} else {
		status.State = StateSuccess
		status.Message = fmt.Sprintf("Data stored successfully on %s blockchain!", s.network)
		log.Printf("[PUBLISH] %s stored in %s", identity, hash.Hex())
	}

	if s.history != nil {
		if recErr := s.history.Record(ctx, owner, identity.Identifier, status, s.chainID); recErr != nil {
			log.Printf("[PUBLISH] record history for %s failed: %v", identity, recErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writing = false
	if gen != s.gen {
		log.Printf("[PUBLISH] dropping stale result for %s", identity)
		return
	}
	s.status = status
}

// Wait blocks until the pending publish (if any) settles or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
