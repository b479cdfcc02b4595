/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/dilemma/games/ipd"
	"github.com/Seednode/dilemma/store"
)

// Export is the downloadable record of one session.
type Export struct {
	Session          string              `json:"session"`
	Rounds           int                 `json:"rounds"`
	ContinuationProb float64             `json:"continuation_prob"`
	Payoffs          []int               `json:"payoffs"`
	Live             bool                `json:"live"`
	Participants     []ExportParticipant `json:"participants"`
	History          []ipd.RoundSnapshot `json:"history"`
}

type ExportParticipant struct {
	ID         ipd.PlayerID `json:"id"`
	Username   string       `json:"username,omitempty"`
	Cumulative int          `json:"cumulative"`
}

// newExport folds payoffs out of the snapshots, so a live session and one
// read back from the recorder produce the same totals.
func newExport(gameID string, game ipd.Config, snaps []ipd.RoundSnapshot, names map[ipd.PlayerID]string) Export {
	exp := Export{
		Session:          gameID,
		Rounds:           game.Rounds,
		ContinuationProb: game.ContinuationProb,
		Payoffs:          game.Payoffs.Values(),
		Participants:     []ExportParticipant{},
		History:          snaps,
	}

	index := make(map[ipd.PlayerID]int)
	for _, snap := range snaps {
		for _, g := range snap.Groups {
			for _, p := range g.Players {
				i, ok := index[p.ID]
				if !ok {
					i = len(exp.Participants)
					index[p.ID] = i
					exp.Participants = append(exp.Participants, ExportParticipant{
						ID:       p.ID,
						Username: names[p.ID],
					})
				}
				if p.Payoff != nil {
					exp.Participants[i].Cumulative += *p.Payoff
				}
			}
		}
	}

	return exp
}

// export reads a live hub's history under its lock.
func (h *Hub) export() (Export, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.session == nil {
		return Export{}, false
	}

	names := make(map[ipd.PlayerID]string, len(h.participants))
	for _, p := range h.participants {
		names[ipd.PlayerID(p.PlayerID)] = p.Username
	}

	exp := newExport(h.id, h.game, h.session.History().Snapshots(), names)
	exp.Live = true
	return exp, true
}

func serveExport(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		gameID := ps.ByName("gameid")

		var exp Export
		found := false

		if hub, ok := gm.lookup(gameID); ok {
			exp, found = hub.export()
		}

		if !found && gm.recorder != nil {
			snaps, err := gm.recorder.Rounds(r.Context(), gameID)
			switch {
			case err == nil:
				exp, found = newExport(gameID, gm.game, snaps, nil), true
			case !errors.Is(err, store.ErrSessionNotFound):
				logf(cfg, "ERROR: Reading history of %s: %v", gameID, err)
				http.Error(w, "unable to read session history", http.StatusInternalServerError)
				return
			}
		}

		if !found {
			http.Error(w, "no history for this session", http.StatusNotFound)
			return
		}

		data, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="dilemma-`+gameID+`.json"`)
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Export of %s (%s) to %s in %s",
			gameID,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
