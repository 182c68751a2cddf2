package evict

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/codepair/backend/internal/room"
)

type Config struct {
	// Interval between sweeps.
	Interval time.Duration

	// Grace is how long a room may sit empty before deletion. Quick
	// rejoins inside the grace window find the document intact.
	Grace time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Grace:    5 * time.Minute,
	}
}

// Service bounds room-table memory: the protocol never deletes a room,
// so a background sweep reclaims rooms once everyone has left.
type Service struct {
	store  *room.Store
	config Config
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(store *room.Store, config Config) *Service {
	return &Service{
		store:  store,
		config: config,
		stop:   make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("🧹 Eviction service started (interval: %v, grace: %v)",
		s.config.Interval, s.config.Grace)
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("🧹 Eviction service stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	evicted := s.store.EvictIdle(s.config.Grace)
	if len(evicted) > 0 {
		log.Printf("🧹 Evicted %d empty rooms: %s", len(evicted), strings.Join(evicted, ", "))
	}
}

// SweepNow runs one sweep immediately, outside the ticker.
func (s *Service) SweepNow() {
	s.sweep()
}
