package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
)

// ContentHandler serves the read-only pages shared by every role.
type ContentHandler struct {
	content ContentService
	stream  Streamer
	logger  *slog.Logger
}

func NewContentHandler(svc ContentService, stream Streamer, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: svc, stream: stream, logger: logger}
}

func (h *ContentHandler) FAQs(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.FAQs(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]faqView, 0, len(list))
	for _, f := range list {
		out = append(out, faqFrom(f))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ContentHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.Announcements(r.Context())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]announcementView, 0, len(list))
	for _, a := range list {
		out = append(out, announcementFrom(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Stream upgrades to the caller's websocket notification feed.
func (h *ContentHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.stream.Serve(w, r, principal(r).AccountID)
}
