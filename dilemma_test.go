/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/dilemma/games/ipd"
	"github.com/Seednode/dilemma/store"
)

func newTestHub(t *testing.T, rounds int) (*Hub, *store.Memory) {
	t.Helper()

	game := ipd.DefaultConfig()
	game.Rounds = rounds

	mem := store.NewMemory()
	return newHub("testgame", game, 1, mem), mem
}

func newTestClient(h *Hub, playerID string) *Client {
	c := &Client{
		send:     make(chan any, 256),
		playerID: playerID,
	}
	h.handleRegister(c)
	return c
}

// drain returns every queued message for c.
func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastOf[T any](c *Client) (T, bool) {
	var last T
	found := false
	for _, msg := range drain(c) {
		if m, ok := msg.(T); ok {
			last, found = m, true
		}
	}
	return last, found
}

func simpleOf(c *Client, kind string) bool {
	for _, msg := range drain(c) {
		if m, ok := msg.(SimpleMessage); ok && m.Type == kind {
			return true
		}
	}
	return false
}

func join(h *Hub, c *Client, name string) {
	h.handleJoin(&Config{}, joinRequest{client: c, msg: ClientMessage{Type: "join", Username: name}})
}

func mod(h *Hub, c *Client, msg ClientMessage) {
	h.handleModCommand(&Config{}, modCommand{client: c, msg: msg})
}

func submit(h *Hub, c *Client, msg ClientMessage) {
	h.handleSubmission(&Config{}, submission{client: c, msg: msg})
}

func ptr[T any](v T) *T {
	return &v
}

type testTable struct {
	hub  *Hub
	mem  *store.Memory
	mod  *Client
	a, b *Client
}

func startedTable(t *testing.T, rounds int) testTable {
	t.Helper()

	h, mem := newTestHub(t, rounds)
	tt := testTable{hub: h, mem: mem}
	tt.mod = newTestClient(h, "mod")
	tt.a = newTestClient(h, "player-a")
	tt.b = newTestClient(h, "player-b")

	join(h, tt.a, "Ada")
	join(h, tt.b, "Bo")
	mod(h, tt.mod, ClientMessage{Type: "start_session"})

	require.NotNil(t, h.session)
	require.Equal(t, ipd.PhaseSignal, h.session.Phase())
	return tt
}

func (tt testTable) playFreshRound(t *testing.T, a, b bool) {
	t.Helper()

	submit(tt.hub, tt.a, ClientMessage{Type: "signal", Stars: ptr(4)})
	submit(tt.hub, tt.b, ClientMessage{Type: "signal", Stars: ptr(2)})
	require.Equal(t, ipd.PhaseDecision, tt.hub.session.Phase())

	submit(tt.hub, tt.a, ClientMessage{Type: "accept", Accept: ptr(true)})
	submit(tt.hub, tt.b, ClientMessage{Type: "accept", Accept: ptr(true)})
	require.Equal(t, ipd.PhaseMoves, tt.hub.session.Phase())

	submit(tt.hub, tt.a, ClientMessage{Type: "move", Cooperate: ptr(a)})
	submit(tt.hub, tt.b, ClientMessage{Type: "move", Cooperate: ptr(b)})
}

func TestHubFirstConnectionModerates(t *testing.T) {
	h, _ := newTestHub(t, 2)

	m := newTestClient(h, "mod")
	info, ok := lastOf[SessionInfoMessage](m)
	require.True(t, ok)
	assert.True(t, info.IsModerator)

	p := newTestClient(h, "player-a")
	info, ok = lastOf[SessionInfoMessage](p)
	require.True(t, ok)
	assert.False(t, info.IsModerator)
	assert.False(t, info.IsExisting)
}

func TestHubJoinRejectsDuplicateNames(t *testing.T) {
	h, _ := newTestHub(t, 2)
	newTestClient(h, "mod")
	a := newTestClient(h, "player-a")
	b := newTestClient(h, "player-b")

	join(h, a, "Ada")
	join(h, b, "Ada")

	assert.True(t, simpleOf(b, "collision"))
	assert.Len(t, h.participants, 1)

	join(h, a, "Ada Lovelace")
	assert.Equal(t, "Ada Lovelace", h.participants[0].Username)
}

func TestHubModeratorCannotJoin(t *testing.T) {
	h, _ := newTestHub(t, 2)
	m := newTestClient(h, "mod")

	join(h, m, "Boss")
	assert.Empty(t, h.participants)
}

func TestHubLockedLobby(t *testing.T) {
	h, _ := newTestHub(t, 2)
	m := newTestClient(h, "mod")
	a := newTestClient(h, "player-a")

	mod(h, m, ClientMessage{Type: "lock_lobby", Lock: ptr(true)})
	join(h, a, "Ada")

	assert.True(t, simpleOf(a, "lobby_locked"))
	assert.Empty(t, h.participants)
}

func TestHubOnlyModeratorCommands(t *testing.T) {
	h, _ := newTestHub(t, 2)
	newTestClient(h, "mod")
	a := newTestClient(h, "player-a")
	b := newTestClient(h, "player-b")
	join(h, a, "Ada")
	join(h, b, "Bo")

	mod(h, a, ClientMessage{Type: "start_session"})
	assert.Nil(t, h.session)
}

func TestHubKick(t *testing.T) {
	h, _ := newTestHub(t, 2)
	m := newTestClient(h, "mod")
	a := newTestClient(h, "player-a")
	join(h, a, "Ada")

	mod(h, m, ClientMessage{Type: "kick", TargetUsername: "Ada"})

	assert.Empty(t, h.participants)
	assert.True(t, simpleOf(a, "kicked"))
	assert.NotContains(t, h.clients, a)
}

func TestHubStartNeedsEvenRoster(t *testing.T) {
	h, _ := newTestHub(t, 2)
	m := newTestClient(h, "mod")
	a := newTestClient(h, "player-a")
	join(h, a, "Ada")

	mod(h, m, ClientMessage{Type: "start_session"})

	assert.Nil(t, h.session)
	assert.True(t, simpleOf(m, "start_error"))
}

func TestHubStartFixesRoster(t *testing.T) {
	tt := startedTable(t, 2)

	late := newTestClient(tt.hub, "player-c")
	join(tt.hub, late, "Cy")
	assert.True(t, simpleOf(late, "session_started"))
	assert.Len(t, tt.hub.participants, 2)

	mod(tt.hub, tt.mod, ClientMessage{Type: "kick", TargetUsername: "Ada"})
	assert.Len(t, tt.hub.participants, 2)
}

func TestHubPlaysRoundAndRecordsIt(t *testing.T) {
	tt := startedTable(t, 2)
	drain(tt.a)

	tt.playFreshRound(t, true, false)

	r := tt.hub.session.Current()
	require.Equal(t, ipd.PhaseRoundComplete, r.Phase())

	view, ok := lastOf[PlayerViewMessage](tt.a)
	require.True(t, ok)
	assert.Equal(t, "Ada", view.Username)
	assert.Equal(t, "Bo", view.Partner)
	require.NotNil(t, view.View.Payoff)
	assert.Equal(t, 0, *view.View.Payoff)
	require.NotNil(t, view.View.PartnerDecision)
	assert.False(t, *view.View.PartnerDecision)

	modView, ok := lastOf[ModeratorViewMessage](tt.mod)
	require.True(t, ok)
	assert.Equal(t, 5, modView.Cumulative["Bo"])
	assert.ElementsMatch(t, []string{"Ada", "Bo"}, modView.Unready)

	require.Eventually(t, func() bool {
		rounds, err := tt.mem.Rounds(context.Background(), "testgame")
		return err == nil && len(rounds) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHubRejectsBadSubmissions(t *testing.T) {
	tt := startedTable(t, 2)
	drain(tt.a)

	submit(tt.hub, tt.a, ClientMessage{Type: "signal", Stars: ptr(9)})
	assert.True(t, simpleOf(tt.a, "rejected"))

	submit(tt.hub, tt.a, ClientMessage{Type: "move", Cooperate: ptr(true)})
	assert.True(t, simpleOf(tt.a, "rejected"))

	submit(tt.hub, tt.a, ClientMessage{Type: "signal"})
	assert.True(t, simpleOf(tt.a, "rejected"))

	submit(tt.hub, tt.a, ClientMessage{Type: "ready"})
	assert.True(t, simpleOf(tt.a, "rejected"))

	assert.Equal(t, ipd.PhaseSignal, tt.hub.session.Phase())
}

func TestHubReadyBarrierMatchesNextRound(t *testing.T) {
	tt := startedTable(t, 2)
	tt.playFreshRound(t, true, true)

	submit(tt.hub, tt.a, ClientMessage{Type: "ready"})
	assert.Equal(t, 1, tt.hub.session.Current().Number)

	view, ok := lastOf[PlayerViewMessage](tt.a)
	require.True(t, ok)
	assert.True(t, view.Ready)

	submit(tt.hub, tt.b, ClientMessage{Type: "ready"})
	assert.Equal(t, 2, tt.hub.session.Current().Number)
	assert.Empty(t, tt.hub.ready)
}

func TestHubModeratorAdvanceSkipsAcknowledgement(t *testing.T) {
	tt := startedTable(t, 2)
	tt.playFreshRound(t, false, false)

	mod(tt.hub, tt.mod, ClientMessage{Type: "advance"})
	assert.Equal(t, 2, tt.hub.session.Current().Number)
}

func TestHubForceFillsConsentDefaults(t *testing.T) {
	tt := startedTable(t, 2)

	submit(tt.hub, tt.a, ClientMessage{Type: "signal", Stars: ptr(5)})
	mod(tt.hub, tt.mod, ClientMessage{Type: "force"})
	require.Equal(t, ipd.PhaseDecision, tt.hub.session.Phase())

	p, ok := tt.hub.session.Current().Player("player-b")
	require.True(t, ok)
	stars, err := p.Signal()
	require.NoError(t, err)
	assert.Equal(t, 0, stars)

	submit(tt.hub, tt.a, ClientMessage{Type: "accept", Accept: ptr(true)})
	mod(tt.hub, tt.mod, ClientMessage{Type: "force"})

	g := tt.hub.session.Current().Groups[0]
	assert.Equal(t, ipd.StatusConsentFailed, g.Status)
	assert.False(t, g.MatchSuccess)
	assert.Equal(t, ipd.PhaseRoundComplete, tt.hub.session.Current().Phase())
}

func TestHubForceNeverFillsMoves(t *testing.T) {
	tt := startedTable(t, 2)

	submit(tt.hub, tt.a, ClientMessage{Type: "signal", Stars: ptr(5)})
	submit(tt.hub, tt.b, ClientMessage{Type: "signal", Stars: ptr(5)})
	submit(tt.hub, tt.a, ClientMessage{Type: "accept", Accept: ptr(true)})
	submit(tt.hub, tt.b, ClientMessage{Type: "accept", Accept: ptr(true)})
	drain(tt.mod)

	mod(tt.hub, tt.mod, ClientMessage{Type: "force"})

	assert.True(t, simpleOf(tt.mod, "force_refused"))
	assert.Equal(t, ipd.PhaseMoves, tt.hub.session.Phase())
}

func TestHubFinishes(t *testing.T) {
	tt := startedTable(t, 1)
	tt.playFreshRound(t, true, true)

	assert.True(t, tt.hub.session.Finished())

	submit(tt.hub, tt.a, ClientMessage{Type: "ready"})
	submit(tt.hub, tt.b, ClientMessage{Type: "ready"})
	assert.Equal(t, 1, tt.hub.session.Current().Number)

	view, ok := lastOf[PlayerViewMessage](tt.b)
	require.True(t, ok)
	assert.True(t, view.View.ShowFinalResults)
	assert.Equal(t, 4, view.View.Cumulative)
}

func TestHubRegisterRestoresExistingPlayer(t *testing.T) {
	tt := startedTable(t, 2)

	again := newTestClient(tt.hub, "player-a")
	info, ok := lastOf[SessionInfoMessage](again)
	require.True(t, ok)
	assert.True(t, info.IsExisting)
	assert.True(t, info.Started)
	assert.Equal(t, "Ada", info.Username)
}

func TestHubDropsSlowClients(t *testing.T) {
	h, _ := newTestHub(t, 2)
	newTestClient(h, "mod")

	slow := &Client{send: make(chan any), playerID: "player-a"}
	h.handleRegister(slow)

	assert.NotContains(t, h.clients, slow)
}
