/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Seednode/dilemma/games/ipd"
)

//go:embed schema.sql
var schema embed.FS

// Postgres is a Recorder backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() {
	db.pool.Close()
}

// Migrate creates the history tables if they do not exist.
func (db *Postgres) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx, string(sqlBytes))
	return err
}

func (db *Postgres) SaveRound(ctx context.Context, sessionID string, snap ipd.RoundSnapshot) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		// cascades to groups and players
		if _, err := tx.Exec(ctx, `DELETE FROM ipd_rounds WHERE session_id = $1 AND round = $2`, sessionID, snap.Round); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO ipd_rounds(session_id, round, phase)
			VALUES ($1, $2, $3)
		`, sessionID, snap.Round, snap.Phase); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, g := range snap.Groups {
			batch.Queue(`
				INSERT INTO ipd_groups(session_id, round, group_index, status, rematched, match_success, continue_game, continue_draw)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, sessionID, snap.Round, g.Index, g.Status, g.Rematched, g.MatchSuccess, g.ContinueGame, g.ContinueDraw)

			for pos, p := range g.Players {
				batch.Queue(`
					INSERT INTO ipd_players(session_id, round, participant, group_index, position, rematched,
					                        signal_stars, partner_signal_stars, accept_partner, decision, payoff)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				`, sessionID, snap.Round, string(p.ID), g.Index, pos, p.Rematched,
					p.Signal, p.PartnerSignal, p.Accept, p.Decision, p.Payoff)
			}
		}

		return tx.SendBatch(ctx, batch).Close()
	})
}

func (db *Postgres) Rounds(ctx context.Context, sessionID string) ([]ipd.RoundSnapshot, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT round, phase
		  FROM ipd_rounds
		 WHERE session_id = $1
		 ORDER BY round
	`, sessionID)
	if err != nil {
		return nil, err
	}

	var out []ipd.RoundSnapshot
	index := map[int]int{}
	for rows.Next() {
		var snap ipd.RoundSnapshot
		if err := rows.Scan(&snap.Round, &snap.Phase); err != nil {
			rows.Close()
			return nil, err
		}
		index[snap.Round] = len(out)
		out = append(out, snap)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrSessionNotFound
	}

	rows, err = db.pool.Query(ctx, `
		SELECT round, group_index, status, rematched, match_success, continue_game, continue_draw
		  FROM ipd_groups
		 WHERE session_id = $1
		 ORDER BY round, group_index
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var round int
		var g ipd.GroupSnapshot
		if err := rows.Scan(&round, &g.Index, &g.Status, &g.Rematched, &g.MatchSuccess, &g.ContinueGame, &g.ContinueDraw); err != nil {
			rows.Close()
			return nil, err
		}
		snap := &out[index[round]]
		snap.Groups = append(snap.Groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.pool.Query(ctx, `
		SELECT round, group_index, position, participant, rematched,
		       signal_stars, partner_signal_stars, accept_partner, decision, payoff
		  FROM ipd_players
		 WHERE session_id = $1
		 ORDER BY round, group_index, position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var round, groupIndex, pos int
		var id string
		var p ipd.PlayerSnapshot
		if err := rows.Scan(&round, &groupIndex, &pos, &id, &p.Rematched,
			&p.Signal, &p.PartnerSignal, &p.Accept, &p.Decision, &p.Payoff); err != nil {
			return nil, err
		}
		p.ID = ipd.PlayerID(id)

		snap := &out[index[round]]
		if groupIndex < 0 || groupIndex >= len(snap.Groups) || pos < 0 || pos > 1 {
			return nil, fmt.Errorf("player %s in round %d references group %d position %d", id, round, groupIndex, pos)
		}
		snap.Groups[groupIndex].Players[pos] = p
	}

	return out, rows.Err()
}
