package domain

import (
	"strconv"
	"strings"
	"time"
)

// Party is one group of guests waiting for (or occupying) seats.
// It is the only persistent entity; the store owns every row.
type Party struct {
	ID      string
	PartyID string
	Name    string
	Size    int

	QueuedAt time.Time
	Status   PartyStatus

	// CheckinExpiration is non-nil only while Status is checking-in,
	// SeatExpiration only while seated.
	CheckinExpiration *time.Time
	SeatExpiration    *time.Time
}

// PartyTicket is what a successful join hands back to the client.
type PartyTicket struct {
	PartyID         string
	PositionInQueue int
}

// QueuePosition is one row of the canonical queue ordering,
// ascending (queued_at, party_id), 1-based.
type QueuePosition struct {
	PartyID string
	Row     int
}

// ValidatePartyName trims and checks a join-request name against the
// configured limit. The stored name is escaped at render time, not here.
func ValidatePartyName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrValidation("name is required")
	}
	if len(name) > maxLen {
		return "", ErrValidationMeta("name is too long", map[string]string{
			"max_length": strconv.Itoa(maxLen),
		})
	}
	return name, nil
}

// ValidatePartySize checks a join-request size against venue capacity.
func ValidatePartySize(size, maxSeats int) error {
	if size < 1 || size > maxSeats {
		return ErrValidationMeta("size is out of range", map[string]string{
			"min": "1",
			"max": strconv.Itoa(maxSeats),
		})
	}
	return nil
}
