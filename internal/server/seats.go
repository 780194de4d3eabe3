package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// ErrInvalidSeatToken is returned when a token does not match its seat.
var ErrInvalidSeatToken = errors.New("invalid seat token")

// SeatStore issues one secret token per seat of a game. Only bcrypt hashes
// are kept; the plain tokens are handed out once, at creation.
type SeatStore struct {
	cost int

	mu     sync.RWMutex
	hashes map[uuid.UUID][][]byte
}

// NewSeatStore creates a store hashing with cost. A cost outside bcrypt's
// bounds falls back to bcrypt.DefaultCost.
func NewSeatStore(cost int) *SeatStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &SeatStore{cost: cost, hashes: make(map[uuid.UUID][][]byte)}
}

// Issue creates tokens for seats seats of gameID, replacing any earlier ones.
func (s *SeatStore) Issue(gameID uuid.UUID, seats int) ([]string, error) {
	tokens := make([]string, seats)
	hashes := make([][]byte, seats)
	for i := range tokens {
		tokens[i] = uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(tokens[i]), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash seat token: %w", err)
		}
		hashes[i] = hash
	}

	s.mu.Lock()
	s.hashes[gameID] = hashes
	s.mu.Unlock()
	return tokens, nil
}

// Verify checks token against player's seat in gameID.
func (s *SeatStore) Verify(gameID uuid.UUID, player roster.PlayerRef, token string) error {
	s.mu.RLock()
	hashes := s.hashes[gameID]
	s.mu.RUnlock()

	if player < 0 || int(player) >= len(hashes) || token == "" {
		return ErrInvalidSeatToken
	}
	if bcrypt.CompareHashAndPassword(hashes[player], []byte(token)) != nil {
		return ErrInvalidSeatToken
	}
	return nil
}

// Forget drops every token of gameID.
func (s *SeatStore) Forget(gameID uuid.UUID) {
	s.mu.Lock()
	delete(s.hashes, gameID)
	s.mu.Unlock()
}
