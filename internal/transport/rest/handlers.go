package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/EABruton/waitlist/internal/application/waitlist"
	"github.com/EABruton/waitlist/internal/domain"
	redisbus "github.com/EABruton/waitlist/internal/infrastructure/redis"
	"github.com/EABruton/waitlist/internal/transport/rest/response"
)

// codeNoSession is transport-only: the store never sees a request that
// lacks a party cookie.
const codeNoSession = "NO_PARTY_SESSION"

type Handler struct {
	svc      *waitlist.Service
	sessions *Sessions
	bus      *redisbus.Bus
	validate *validator.Validate
}

func NewHandler(svc *waitlist.Service, sessions *Sessions, bus *redisbus.Bus) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		bus:      bus,
		validate: validator.New(),
	}
}

type joinRequest struct {
	Name string `json:"name" validate:"required"`
	Size int    `json:"size" validate:"required,min=1"`
}

// Join creates a queued party and seeds the cookie with its identity.
// A session already bound to a live party is rejected; one bound to a
// vanished party is cleared and the join proceeds.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "request body is not valid JSON", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "name and size are required", fieldErrors(err))
		return
	}

	s := h.sessions.get(r)
	if c := readClaims(s); c.PartyID != "" {
		if _, err := h.svc.Get(r.Context(), c.PartyID); err == nil {
			fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "already in the waitlist", nil)
			return
		} else if !domain.IsNotFound(err) {
			response.Err(w, r, err)
			return
		}
		clearParty(s)
	}

	ticket, err := h.svc.Join(r.Context(), waitlist.JoinCmd{Name: req.Name, Size: req.Size})
	if err != nil {
		response.Err(w, r, err)
		return
	}

	seedParty(s, ticket, req.Size)
	h.sessions.save(w, r, s)

	response.Data(w, http.StatusCreated, map[string]any{
		"partyID":         ticket.PartyID,
		"positionInQueue": ticket.PositionInQueue,
	})
}

// Leave removes the session's party from the queue.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.get(r)
	c := readClaims(s)
	if c.PartyID == "" {
		fail(w, r, http.StatusUnauthorized, codeNoSession, "join the waitlist first", nil)
		return
	}

	if err := h.svc.Leave(r.Context(), c.PartyID); err != nil {
		h.failParty(w, r, err, domain.CodePartyDelete, "party could not be deleted")
		return
	}

	clearParty(s)
	h.sessions.save(w, r, s)
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn seats the session's party. Only works while the party holds a
// checking-in window; a lapsed window surfaces as a 400 with the cookie
// cleared so the client can rejoin.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.get(r)
	c := readClaims(s)
	if c.PartyID == "" {
		fail(w, r, http.StatusUnauthorized, codeNoSession, "join the waitlist first", nil)
		return
	}
	if c.PartySize < 1 {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "session is missing the party size", nil)
		return
	}

	seatExpiresAt, err := h.svc.CheckIn(r.Context(), c.PartyID, c.PartySize)
	if err != nil {
		h.failParty(w, r, err, domain.CodePartyCheckIn, "party could not check in")
		return
	}

	markSeated(s, seatExpiresAt)
	h.sessions.save(w, r, s)

	response.Data(w, http.StatusOK, map[string]string{
		"message": "checked in, your table is ready",
	})
}

// failParty maps service errors for the session-bound routes. NOT_FOUND
// clears the cookie so the client can rejoin, then surfaces as the route's
// operation failure rather than a 404.
func (h *Handler) failParty(w http.ResponseWriter, r *http.Request, err error, code domain.ErrCode, msg string) {
	if domain.IsNotFound(err) {
		s := h.sessions.get(r)
		clearParty(s)
		h.sessions.save(w, r, s)
		fail(w, r, http.StatusBadRequest, string(code), msg, nil)
		return
	}
	response.Err(w, r, err)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	response.Fail(w, status, code, message, meta, middleware.GetReqID(r.Context()))
}

func fieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return meta
}
