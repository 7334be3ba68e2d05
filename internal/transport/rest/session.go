package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/EABruton/waitlist/internal/application/waitlist"
	"github.com/EABruton/waitlist/internal/domain"
	"github.com/EABruton/waitlist/internal/logger"
)

const sessionName = "waitlist_session"

// Session value keys. The cookie is the only client-side state the API
// keeps; everything in it can be rebuilt by re-joining.
const (
	keyPartyID       = "partyID"
	keyPartySize     = "partySize"
	keyStatus        = "status"
	keyInitialPos    = "initialQueuePosition"
	keySeatExpiresAt = "seatExpiresAt"
)

// Sessions wraps the cookie store with the party vocabulary the handlers
// speak.
type Sessions struct {
	store *sessions.CookieStore
	clock waitlist.Clock
}

func NewSessions(secret string, maxAge int, secure bool, clock waitlist.Clock) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Secure = secure
	return &Sessions{store: store, clock: clock}
}

// get never fails the request: a cookie that will not decode (rotated
// secret, tampering) comes back as a fresh empty session.
func (m *Sessions) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, sessionName)
	return s
}

func (m *Sessions) save(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if err := s.Save(r, w); err != nil {
		logger.Logger.Error().Err(err).Msg("session save failed")
	}
}

// partyClaims is the session's view of the client's party.
type partyClaims struct {
	PartyID         string
	PartySize       int
	Status          string
	InitialPosition int
	SeatExpiresAt   time.Time
}

func readClaims(s *sessions.Session) partyClaims {
	var c partyClaims
	c.PartyID, _ = s.Values[keyPartyID].(string)
	c.PartySize, _ = s.Values[keyPartySize].(int)
	c.Status, _ = s.Values[keyStatus].(string)
	c.InitialPosition, _ = s.Values[keyInitialPos].(int)
	if raw, _ := s.Values[keySeatExpiresAt].(string); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			c.SeatExpiresAt = t
		}
	}
	return c
}

func seedParty(s *sessions.Session, ticket domain.PartyTicket, size int) {
	s.Values[keyPartyID] = ticket.PartyID
	s.Values[keyPartySize] = size
	s.Values[keyStatus] = string(domain.StatusQueued)
	s.Values[keyInitialPos] = ticket.PositionInQueue
	delete(s.Values, keySeatExpiresAt)
}

// Timestamps are stored as RFC3339 strings so the cookie codec never has
// to gob-encode a time.Time.
func markSeated(s *sessions.Session, seatExpiresAt time.Time) {
	s.Values[keyStatus] = string(domain.StatusSeated)
	s.Values[keySeatExpiresAt] = seatExpiresAt.UTC().Format(time.RFC3339)
}

func clearParty(s *sessions.Session) {
	delete(s.Values, keyPartyID)
	delete(s.Values, keyPartySize)
	delete(s.Values, keyStatus)
	delete(s.Values, keyInitialPos)
	delete(s.Values, keySeatExpiresAt)
}

// SweepLapsedSeat runs ahead of every party route. Once a seated party's
// table time has lapsed the cookie is stale state, so it is cleared and
// the client can rejoin. The store-side cleanup is the seat expiry worker;
// this only keeps the client's view consistent with it.
func (m *Sessions) SweepLapsedSeat(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.get(r)
		c := readClaims(s)
		if c.Status == string(domain.StatusSeated) &&
			!c.SeatExpiresAt.IsZero() &&
			!c.SeatExpiresAt.After(m.clock.Now()) {
			clearParty(s)
			m.save(w, r, s)
		}
		next.ServeHTTP(w, r)
	})
}
