/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/Seednode/dilemma/games/ipd"
)

// Memory is a Recorder that lives for the lifetime of the process.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]ipd.RoundSnapshot
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string][]ipd.RoundSnapshot),
	}
}

func (m *Memory) SaveRound(_ context.Context, sessionID string, snap ipd.RoundSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rounds := m.sessions[sessionID]
	i, found := slices.BinarySearchFunc(rounds, snap.Round, func(s ipd.RoundSnapshot, n int) int {
		return s.Round - n
	})
	if found {
		rounds[i] = snap
	} else {
		rounds = slices.Insert(rounds, i, snap)
	}
	m.sessions[sessionID] = rounds

	return nil
}

func (m *Memory) Rounds(_ context.Context, sessionID string) ([]ipd.RoundSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rounds, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return slices.Clone(rounds), nil
}

func (m *Memory) Close() {}
