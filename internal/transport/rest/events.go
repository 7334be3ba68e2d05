package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/EABruton/waitlist/internal/application/waitlist"
	"github.com/EABruton/waitlist/internal/domain"
	"github.com/EABruton/waitlist/internal/logger"
	"github.com/EABruton/waitlist/internal/metrics"
	"github.com/EABruton/waitlist/internal/transport/rest/response"
)

// SSE statuses pushed to the browser.
const (
	sseCanDequeue          = "CAN_DEQUEUE"
	sseQueuePositionUpdate = "QUEUE_POSITION_UPDATE"
	sseUnqueuedClient      = "UNQUEUED_CLIENT"
	sseCheckinExpired      = "CHECKIN_WINDOW_EXPIRED"
)

const keepaliveInterval = 15 * time.Second

// sseFrame is the single wire shape for every pushed event. Position is
// 1-based, so omitempty never swallows a real value.
type sseFrame struct {
	Status               string `json:"status"`
	CheckingInExpiration string `json:"checkingInExpiration,omitempty"`
	Position             int    `json:"position,omitempty"`
}

func canDequeueFrame(expiresAt time.Time) sseFrame {
	return sseFrame{
		Status:               sseCanDequeue,
		CheckingInExpiration: expiresAt.UTC().Format(time.RFC3339),
	}
}

type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s sseWriter) event(frame sseFrame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

func (s sseWriter) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Events upgrades the request to a server-sent event stream and relays the
// party's transitions until a terminal event or disconnect.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.get(r)
	c := readClaims(s)
	if c.PartyID == "" {
		fail(w, r, http.StatusUnauthorized, codeNoSession, "join the waitlist first", nil)
		return
	}

	if _, err := h.svc.Get(r.Context(), c.PartyID); err != nil {
		if domain.IsNotFound(err) {
			clearParty(s)
			h.sessions.save(w, r, s)
			fail(w, r, http.StatusNotFound, string(domain.CodePartyNotFound), "party not found", nil)
			return
		}
		response.Err(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		fail(w, r, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming unsupported", nil)
		return
	}

	h.stream(w, r, flusher, c.PartyID)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, flusher http.Flusher, partyID string) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncSSEConnections()
	defer metrics.DecSSEConnections()

	// Dedicated subscriber connection; cache reads keep using the shared
	// command client.
	sub := h.bus.Subscribe(ctx,
		waitlist.ChannelDequeued,
		waitlist.ChannelCheckinExpired,
		waitlist.ChannelQueuePositions,
	)
	defer sub.Close()

	out := sseWriter{w: w, f: flusher}
	log := logger.Logger.With().Str("party_id", partyID).Logger()

	if done := h.catchUp(ctx, out, log, sub, partyID); done {
		return
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if err := out.comment("keepalive"); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			done, err := h.relay(ctx, out, log, sub, partyID, msg)
			if err != nil || done {
				return
			}
		}
	}
}

// catchUp replays state that predates the subscription. The party is
// re-read after subscribing, so a transition can land either in the
// re-read or on a channel but never in neither.
func (h *Handler) catchUp(ctx context.Context, out sseWriter, log zerolog.Logger, sub *redis.PubSub, partyID string) (done bool) {
	party, err := h.svc.Get(ctx, partyID)
	switch {
	case domain.IsNotFound(err):
		_ = out.event(sseFrame{Status: sseUnqueuedClient})
		return true
	case err != nil:
		log.Error().Err(err).Msg("event stream catch-up read failed")
		return true
	}

	if party.Status == domain.StatusCheckingIn && party.CheckinExpiration != nil {
		if err := out.event(canDequeueFrame(*party.CheckinExpiration)); err != nil {
			return true
		}
		h.unsubscribeQueued(ctx, log, sub)
		return false
	}

	var snapshot waitlist.QueuePositionsMessage
	ok, err := h.bus.GetJSON(ctx, waitlist.KeyQueuedPartyPositions, &snapshot)
	if err != nil {
		log.Error().Err(err).Msg("queue positions snapshot read failed")
		return false
	}
	if ok {
		if err := emitPosition(out, log, partyID, snapshot); err != nil {
			return true
		}
	}
	return false
}

func (h *Handler) relay(ctx context.Context, out sseWriter, log zerolog.Logger, sub *redis.PubSub, partyID string, msg *redis.Message) (done bool, err error) {
	switch msg.Channel {
	case waitlist.ChannelDequeued:
		var m waitlist.DequeuedMessage
		if !decodeMessage(log, msg, &m) || !containsParty(m.PartyIDs, partyID) {
			return false, nil
		}
		if err := out.event(canDequeueFrame(m.CheckingInExpiration)); err != nil {
			return false, err
		}
		h.unsubscribeQueued(ctx, log, sub)
		return false, nil

	case waitlist.ChannelQueuePositions:
		var m waitlist.QueuePositionsMessage
		if !decodeMessage(log, msg, &m) {
			return false, nil
		}
		return false, emitPosition(out, log, partyID, m)

	case waitlist.ChannelCheckinExpired:
		var m waitlist.CheckinExpiredMessage
		if !decodeMessage(log, msg, &m) || !containsParty(m.PartyIDs, partyID) {
			return false, nil
		}
		if err := out.event(sseFrame{Status: sseCheckinExpired}); err != nil {
			return false, err
		}
		if err := sub.Unsubscribe(ctx); err != nil {
			log.Error().Err(err).Msg("unsubscribe failed")
		}
		return true, nil
	}
	return false, nil
}

// unsubscribeQueued drops the channels that only matter while waiting in
// line. The check-in expiry channel stays open to end the stream.
func (h *Handler) unsubscribeQueued(ctx context.Context, log zerolog.Logger, sub *redis.PubSub) {
	err := sub.Unsubscribe(ctx, waitlist.ChannelDequeued, waitlist.ChannelQueuePositions)
	if err != nil {
		log.Error().Err(err).Msg("unsubscribe failed")
	}
}

func emitPosition(out sseWriter, log zerolog.Logger, partyID string, m waitlist.QueuePositionsMessage) error {
	for _, qp := range m.QueuedParties {
		if qp.PartyID == partyID {
			return out.event(sseFrame{Status: sseQueuePositionUpdate, Position: qp.Row})
		}
	}
	log.Debug().Msg("party absent from queue positions snapshot")
	return nil
}

func decodeMessage(log zerolog.Logger, msg *redis.Message, dest any) bool {
	if err := json.Unmarshal([]byte(msg.Payload), dest); err != nil {
		log.Error().Err(err).Str("channel", msg.Channel).Msg("undecodable pub/sub message")
		return false
	}
	return true
}

func containsParty(partyIDs []string, partyID string) bool {
	for _, id := range partyIDs {
		if id == partyID {
			return true
		}
	}
	return false
}
