/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store keeps completed round snapshots per experiment session.
package store

import (
	"context"
	"errors"

	"github.com/Seednode/dilemma/games/ipd"
)

var ErrSessionNotFound = errors.New("session not found")

// Recorder persists round snapshots keyed by session id and round number.
// Saving a round that already exists replaces it.
type Recorder interface {
	SaveRound(ctx context.Context, sessionID string, snap ipd.RoundSnapshot) error
	Rounds(ctx context.Context, sessionID string) ([]ipd.RoundSnapshot, error)
	Close()
}
