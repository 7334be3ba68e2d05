package rest

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/EABruton/waitlist/internal/domain"
	"github.com/EABruton/waitlist/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type joinPageData struct {
	MaxSeats      int
	MaxNameLength int
}

type statusPageData struct {
	PartyID         string
	PartySize       int
	InitialPosition int
	Seated          bool
	SeatExpiresAt   string
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/party/new", http.StatusFound)
}

func (h *Handler) NewPartyPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "join.html", joinPageData{
		MaxSeats:      h.svc.MaxSeats(),
		MaxNameLength: h.svc.MaxNameLength(),
	})
}

// StatusPage renders from the cookie alone; the page's event stream is
// what keeps it current.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	c := readClaims(h.sessions.get(r))
	if c.PartyID == "" {
		http.Redirect(w, r, "/party/new", http.StatusFound)
		return
	}

	data := statusPageData{
		PartyID:         c.PartyID,
		PartySize:       c.PartySize,
		InitialPosition: c.InitialPosition,
		Seated:          c.Status == string(domain.StatusSeated),
	}
	if data.Seated {
		data.SeatExpiresAt = c.SeatExpiresAt.UTC().Format(time.RFC3339)
	}
	renderPage(w, "status.html", data)
}

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		logger.Logger.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}
