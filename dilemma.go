/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Dilemma experiment server
//
// The first connection to a game id is the experimenter. Everyone after that
// joins the lobby with a display name. Once the experimenter starts the
// session the roster is fixed and every round runs through the same phases
// for everyone:
//
// - Fresh pairs send a 0-5 star signal, see their partner's, and each accept
//   or reject the match.
// - Matched pairs play one Prisoner's Dilemma and draw whether they stay
//   together. Pairs that stay skip straight to the Dilemma next round.
// - Everyone acknowledges the results before the next round is matched.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Participants identified by a uuid cookie
// - Moderator can lock the lobby, kick players, start the session, force
//   missing consent inputs and skip the acknowledgement barrier
// - Each client receives only its own view of the round
// - Completed rounds are written to the configured recorder
// - Games auto-reaped after configurable idle timeout
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/dilemma/games/ipd"
	"github.com/Seednode/dilemma/store"
)

// Participant holds the data we store server-side
type Participant struct {
	PlayerID string
	Username string
}

// Messages coming from clients
type ClientMessage struct {
	Type           string `json:"type"`                      // "join", "signal", "accept", "move", "ready", or a moderator command
	Username       string `json:"username,omitempty"`        // join
	Lock           *bool  `json:"lock,omitempty"`            // lock_lobby
	TargetUsername string `json:"target_username,omitempty"` // kick
	Stars          *int   `json:"stars,omitempty"`           // signal
	Accept         *bool  `json:"accept,omitempty"`          // accept
	Cooperate      *bool  `json:"cooperate,omitempty"`       // move
}

// SimpleMessage is for generic notifications ("kicked", "lobby_locked", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionInfoMessage is sent immediately on connect so the client knows
// whether the lobby is locked and what role this cookie has.
type SessionInfoMessage struct {
	Type        string `json:"type"` // "session_info"
	LobbyLocked bool   `json:"lobby_locked"`
	Started     bool   `json:"started"`
	IsExisting  bool   `json:"is_existing"`
	IsModerator bool   `json:"is_moderator"`
	Username    string `json:"username,omitempty"`
}

// LobbyMessage lists who has joined before the session starts.
type LobbyMessage struct {
	Type    string   `json:"type"` // "lobby"
	Players []string `json:"players"`
	Locked  bool     `json:"locked"`
	Started bool     `json:"started"`
}

// PlayerViewMessage carries one participant's view of the current round.
type PlayerViewMessage struct {
	Type     string         `json:"type"` // "player_view"
	Username string         `json:"username"`
	Partner  string         `json:"partner,omitempty"`
	Ready    bool           `json:"ready"`
	View     ipd.PlayerView `json:"view"`
}

// ModeratorViewMessage is sent only to the moderator with every group.
type ModeratorViewMessage struct {
	Type        string             `json:"type"` // "moderator_view"
	Players     []string           `json:"players"`
	LobbyLocked bool               `json:"lobby_locked"`
	Started     bool               `json:"started"`
	Phase       string             `json:"phase"`
	NumRounds   int                `json:"num_rounds"`
	Pending     []string           `json:"pending,omitempty"`
	Unready     []string           `json:"unready,omitempty"`
	Round       *ipd.RoundSnapshot `json:"round,omitempty"`
	Usernames   map[string]string  `json:"usernames,omitempty"`
	Cumulative  map[string]int     `json:"cumulative,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	LastActive  time.Time          `json:"last_active"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type joinRequest struct {
	client *Client
	msg    ClientMessage
}

type modCommand struct {
	client *Client
	msg    ClientMessage
}

type submission struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id           string
	clients      map[*Client]bool
	participants []Participant

	register chan *Client
	unreg    chan *Client
	joins    chan joinRequest
	mods     chan modCommand
	submits  chan submission

	mu sync.RWMutex

	createdAt         time.Time
	lastActive        time.Time
	lobbyLocked       bool
	moderatorPlayerID string // cookie/playerID of moderator (never a participant)

	game     ipd.Config
	seed     uint64
	recorder store.Recorder

	session *ipd.Session
	ready   map[string]bool // acknowledged the current round's results
	saved   int             // last round handed to the recorder
}

func newHub(gameID string, game ipd.Config, seed uint64, recorder store.Recorder) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		joins:      make(chan joinRequest),
		mods:       make(chan modCommand),
		submits:    make(chan submission),
		createdAt:  now,
		lastActive: now,
		game:       game,
		seed:       seed,
		recorder:   recorder,
		ready:      make(map[string]bool),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			playerID := c.playerID
			isModerator := (playerID == h.moderatorPlayerID)
			started := h.session != nil
			h.mu.Unlock()

			// Once started the roster is fixed; only lobby players are reaped.
			if playerID != "" && !isModerator && !started {
				go h.scheduleRemoval(playerID, cfg.playerTimeout)
			}

		case jr := <-h.joins:
			h.handleJoin(cfg, jr)

		case cmd := <-h.mods:
			h.handleModCommand(cfg, cmd)

		case sr := <-h.submits:
			h.handleSubmission(cfg, sr)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	// First connection becomes moderator
	if h.moderatorPlayerID == "" {
		h.moderatorPlayerID = c.playerID
	}

	existing, isExisting := h.participantLocked(c.playerID)

	h.clients[c] = true

	h.sendLocked(c, SessionInfoMessage{
		Type:        "session_info",
		LobbyLocked: h.lobbyLocked,
		Started:     h.session != nil,
		IsExisting:  isExisting,
		IsModerator: c.playerID == h.moderatorPlayerID,
		Username:    existing.Username,
	})

	h.sendStateLocked(c)
}

func (h *Hub) participantLocked(playerID string) (Participant, bool) {
	for _, p := range h.participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return Participant{}, false
}

func (h *Hub) usernameLocked(id ipd.PlayerID) string {
	p, _ := h.participantLocked(string(id))
	return p.Username
}

func (h *Hub) usernamesLocked() []string {
	names := make([]string, 0, len(h.participants))
	for _, p := range h.participants {
		names = append(names, p.Username)
	}
	return names
}

func (h *Hub) namesLocked(ids []ipd.PlayerID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, h.usernameLocked(id))
	}
	return names
}

// sendLocked queues msg for c, dropping the client if its buffer is full.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) notifyLocked(c *Client, kind, text string) {
	h.sendLocked(c, SimpleMessage{Type: kind, Message: text})
}

// broadcastLocked sends every client its own view of the hub.
func (h *Hub) broadcastLocked() {
	for c := range h.clients {
		h.sendStateLocked(c)
	}
}

func (h *Hub) sendStateLocked(c *Client) {
	if c.playerID == h.moderatorPlayerID {
		h.sendLocked(c, h.moderatorViewLocked())
		return
	}

	if h.session != nil {
		if v, err := h.session.View(ipd.PlayerID(c.playerID)); err == nil {
			h.sendLocked(c, h.playerViewLocked(v))
			return
		}
	}

	h.sendLocked(c, LobbyMessage{
		Type:    "lobby",
		Players: h.usernamesLocked(),
		Locked:  h.lobbyLocked,
		Started: h.session != nil,
	})
}

func (h *Hub) playerViewLocked(v ipd.PlayerView) PlayerViewMessage {
	msg := PlayerViewMessage{
		Type:     "player_view",
		Username: h.usernameLocked(v.Player),
		Ready:    h.ready[string(v.Player)],
		View:     v,
	}

	if p, ok := h.session.Current().Player(v.Player); ok {
		if partner, ok := p.Group().Partner(v.Player); ok {
			msg.Partner = h.usernameLocked(partner.ID)
		}
	}

	return msg
}

func (h *Hub) moderatorViewLocked() ModeratorViewMessage {
	msg := ModeratorViewMessage{
		Type:        "moderator_view",
		Players:     h.usernamesLocked(),
		LobbyLocked: h.lobbyLocked,
		Started:     h.session != nil,
		Phase:       ipd.PhaseLobby.String(),
		NumRounds:   h.game.Rounds,
		CreatedAt:   h.createdAt,
		LastActive:  h.lastActive,
	}

	if h.session == nil {
		return msg
	}

	msg.Phase = h.session.Phase().String()
	msg.Pending = h.namesLocked(h.session.Pending())
	msg.Unready = h.namesLocked(h.unreadyLocked())

	snap := h.session.Current().Snapshot()
	msg.Round = &snap

	msg.Usernames = make(map[string]string, len(h.participants))
	msg.Cumulative = make(map[string]int, len(h.participants))
	for _, id := range h.session.Roster() {
		name := h.usernameLocked(id)
		msg.Usernames[string(id)] = name
		msg.Cumulative[name] = h.session.CumulativePayoff(id)
	}

	return msg
}

// unreadyLocked lists who has not yet acknowledged a completed round.
func (h *Hub) unreadyLocked() []ipd.PlayerID {
	if h.session == nil || h.session.Current().Phase() != ipd.PhaseRoundComplete {
		return nil
	}

	var out []ipd.PlayerID
	for _, id := range h.session.Roster() {
		if !h.ready[string(id)] {
			out = append(out, id)
		}
	}
	return out
}

// scheduleRemoval waits for d, and if no client with this playerID is
// connected and the session has not started, drops that participant.
func (h *Hub) scheduleRemoval(playerID string, d time.Duration) {
	time.Sleep(d)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != nil {
		return
	}

	for client := range h.clients {
		if client.playerID == playerID {
			return
		}
	}

	before := len(h.participants)
	h.participants = slices.DeleteFunc(h.participants, func(p Participant) bool {
		return p.PlayerID == playerID
	})
	if len(h.participants) == before {
		return
	}

	h.lastActive = time.Now()

	h.broadcastLocked()
}

// handleJoin processes "join" messages.
func (h *Hub) handleJoin(cfg *Config, jr joinRequest) {
	msg := jr.msg
	c := jr.client

	username := strings.TrimSpace(msg.Username)
	if username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if c.playerID == h.moderatorPlayerID {
		return
	}

	existingIndex := slices.IndexFunc(h.participants, func(p Participant) bool {
		return p.PlayerID == c.playerID
	})

	switch {
	case h.session != nil && existingIndex == -1:
		h.notifyLocked(c, "session_started", "This session has already started; no new players may join.")
		return
	case h.lobbyLocked && existingIndex == -1:
		h.notifyLocked(c, "lobby_locked", "The lobby is locked; no new players may join.")
		return
	}

	for _, p := range h.participants {
		if p.PlayerID != c.playerID && p.Username == username {
			h.notifyLocked(c, "collision", "That username is already taken. Please choose a different username.")
			return
		}
	}

	if existingIndex >= 0 {
		h.participants[existingIndex].Username = username
	} else {
		h.participants = append(h.participants, Participant{
			PlayerID: c.playerID,
			Username: username,
		})
		logf(cfg, "GAMES: Player %q joined %s", username, h.id)
	}

	h.broadcastLocked()
}

// handleSubmission processes signal, accept, move and ready messages.
func (h *Hub) handleSubmission(cfg *Config, sr submission) {
	c := sr.client
	msg := sr.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if h.session == nil {
		h.notifyLocked(c, "rejected", "The session has not started yet.")
		return
	}

	id := ipd.PlayerID(c.playerID)
	if _, ok := h.session.Current().Player(id); !ok {
		return
	}

	var err error
	switch msg.Type {
	case "signal":
		if msg.Stars == nil {
			h.notifyLocked(c, "rejected", "Choose between 0 and 5 stars.")
			return
		}
		err = h.session.SubmitSignal(id, *msg.Stars)
	case "accept":
		if msg.Accept == nil {
			h.notifyLocked(c, "rejected", "Choose whether to accept your partner.")
			return
		}
		err = h.session.SubmitAccept(id, *msg.Accept)
	case "move":
		if msg.Cooperate == nil {
			h.notifyLocked(c, "rejected", "Choose to cooperate or defect.")
			return
		}
		err = h.session.SubmitMove(id, ipd.Move(*msg.Cooperate))
	case "ready":
		if h.session.Current().Phase() != ipd.PhaseRoundComplete {
			h.notifyLocked(c, "rejected", "This round is still in progress.")
			return
		}
		h.ready[c.playerID] = true
		if len(h.unreadyLocked()) == 0 {
			h.nextRoundLocked(cfg)
		}
		h.broadcastLocked()
		return
	default:
		return
	}

	if err != nil {
		logf(cfg, "GAMES: Rejected %s from %q in %s: %v", msg.Type, h.usernameLocked(id), h.id, err)
		h.notifyLocked(c, "rejected", err.Error())
		return
	}

	h.advanceLocked(cfg)
	h.broadcastLocked()
}

// advanceLocked fires every barrier that has all its inputs and records the
// round once it completes.
func (h *Hub) advanceLocked(cfg *Config) {
	for h.session.Ready() {
		if err := h.session.Advance(); err != nil {
			logf(cfg, "ERROR: Advancing round %d of %s: %v", h.session.Current().Number, h.id, err)
			return
		}
		logf(cfg, "GAMES: Round %d of %s moved to %s", h.session.Current().Number, h.id, h.session.Current().Phase())
	}

	r := h.session.Current()
	if r.Phase() == ipd.PhaseRoundComplete && r.Number > h.saved {
		h.saved = r.Number
		h.saveRound(cfg, r.Snapshot())
	}
}

func (h *Hub) saveRound(cfg *Config, snap ipd.RoundSnapshot) {
	if h.recorder == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := h.recorder.SaveRound(ctx, h.id, snap); err != nil {
			logf(cfg, "ERROR: Saving round %d of %s: %v", snap.Round, h.id, err)
		}
	}()
}

// startSessionLocked fixes the roster and matches the first round.
func (h *Hub) startSessionLocked(cfg *Config) error {
	roster := make([]ipd.PlayerID, 0, len(h.participants))
	for _, p := range h.participants {
		roster = append(roster, ipd.PlayerID(p.PlayerID))
	}

	session, err := ipd.NewSession(h.game, roster, ipd.NewRand(h.seed))
	if err != nil {
		return err
	}
	if _, err := session.StartRound(); err != nil {
		return err
	}

	h.session = session
	h.lobbyLocked = true
	logf(cfg, "GAMES: Started %s with %d players", h.id, len(roster))

	h.advanceLocked(cfg)
	return nil
}

func (h *Hub) nextRoundLocked(cfg *Config) {
	if h.session.Finished() {
		return
	}

	r, err := h.session.StartRound()
	if err != nil {
		logf(cfg, "ERROR: Matching next round of %s: %v", h.id, err)
		for c := range h.clients {
			if c.playerID == h.moderatorPlayerID {
				h.notifyLocked(c, "session_error", err.Error())
			}
		}
		return
	}
	clear(h.ready)

	logf(cfg, "GAMES: Round %d of %s matched into %d groups", r.Number, h.id, len(r.Groups))

	h.advanceLocked(cfg)
}

// forceLocked fills explicit defaults for the consent phase's missing
// inputs: no stars, and a rejection. Dilemma moves are never filled.
func (h *Hub) forceLocked(cfg *Config) error {
	r := h.session.Current()

	for _, id := range r.Pending() {
		var err error
		switch r.Phase() {
		case ipd.PhaseSignal:
			err = h.session.SubmitSignal(id, 0)
		case ipd.PhaseDecision:
			err = h.session.SubmitAccept(id, false)
		default:
			return errForceMoves
		}
		if err != nil {
			return err
		}
		logf(cfg, "GAMES: Forced %s for %q in %s", r.Phase(), h.usernameLocked(id), h.id)
	}

	h.advanceLocked(cfg)
	return nil
}

// handleModCommand processes moderator commands.
func (h *Hub) handleModCommand(cfg *Config, cmd modCommand) {
	c := cmd.client
	msg := cmd.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	// Only moderator may issue these commands
	if h.moderatorPlayerID == "" || c.playerID != h.moderatorPlayerID {
		return
	}

	switch msg.Type {
	case "lock_lobby":
		if h.session != nil {
			return
		}
		h.lobbyLocked = msg.Lock != nil && *msg.Lock

	case "kick":
		target := msg.TargetUsername
		if target == "" || h.session != nil {
			return
		}

		i := slices.IndexFunc(h.participants, func(p Participant) bool {
			return p.Username == target
		})
		if i == -1 {
			return
		}
		kicked := h.participants[i].PlayerID
		h.participants = slices.Delete(h.participants, i, i+1)

		for client := range h.clients {
			if client.playerID == kicked {
				h.notifyLocked(client, "kicked", "You have been removed by the moderator.")
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
		logf(cfg, "GAMES: Kicked %q from %s", target, h.id)

	case "start_session":
		if h.session != nil {
			return
		}
		if err := h.startSessionLocked(cfg); err != nil {
			h.notifyLocked(c, "start_error", "Need an even number of at least two players to start.")
			logf(cfg, "GAMES: Unable to start %s: %v", h.id, err)
			return
		}

	case "force":
		if h.session == nil {
			return
		}
		if err := h.forceLocked(cfg); err != nil {
			h.notifyLocked(c, "force_refused", err.Error())
			return
		}

	case "advance":
		if h.session == nil || h.session.Current().Phase() != ipd.PhaseRoundComplete {
			return
		}
		h.nextRoundLocked(cfg)

	default:
		return
	}

	h.broadcastLocked()
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "dilemma_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		log.Println("uuid error:", err)
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id.String()
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	game     ipd.Config
	recorder store.Recorder
	newSeed  func() uint64
}

func newGameManager(cfg *Config, game ipd.Config, recorder store.Recorder) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		game:        game,
		recorder:    recorder,
		newSeed:     cfg.newSeed,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop(cfg)
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gameID, gm.game, gm.newSeed(), gm.recorder)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// lookup returns a live hub without creating one.
func (gm *GameManager) lookup(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]
	return hub, ok
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
				logf(cfg, "GAMES: Reaped idle game %s", id)
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrading websocket for %s: %v", gameID, err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			h.joins <- joinRequest{
				client: c,
				msg:    msg,
			}
		case "lock_lobby", "kick", "start_session", "force", "advance":
			h.mods <- modCommand{
				client: c,
				msg:    msg,
			}
		case "signal", "accept", "move", "ready":
			h.submits <- submission{
				client: c,
				msg:    msg,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveGamePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/dilemma/index.html")
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, err = w.Write(data)
		if err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerDilemmaGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
//   - $path/:gameid/export   → JSON history for that game
func registerDilemmaGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	mux.GET(cfg.prefix+path+"/:gameid/export", serveExport(cfg, gm, errs))
}
