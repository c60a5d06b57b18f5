package http

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"unicode/utf8"

	"finchat/internal/chat"
	"finchat/internal/log"
)

// chatResponse is the JSON shape of a reply for non-HTMX clients.
type chatResponse struct {
	Kind        string               `json:"kind"`
	Title       string               `json:"title,omitempty"`
	Text        string               `json:"text"`
	Intent      string               `json:"intent,omitempty"`
	Score       float64              `json:"score,omitempty"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
}

type transactionResponse struct {
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// handleChat runs one message through the router. JSON bodies get a JSON
// reply; form posts get the reply fragment.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	message := body.Get("message")
	if utf8.RuneCountInString(message) > maxMessageLength {
		UnprocessableEntityError("Message is too long.").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.chatMessages, 1)
	reply := s.deps.Router.Handle(r.Context(), message)
	if reply.Kind == chat.KindError {
		atomic.AddInt64(&s.appMetrics.ledgerFailures, 1)
	}

	logger := log.FromContext(r.Context()).WithComponent(log.ComponentChat)
	logger.InfoContext(r.Context(), "Chat message handled",
		"reply_kind", reply.Kind,
		log.FieldIntent, reply.Intent,
		log.FieldScore, reply.Score,
		"recorded", reply.Transaction != nil)

	if body.IsJSON() {
		s.writeChatJSON(w, reply)
		return
	}

	html, err := s.renderFragment(r, "reply", struct {
		Message string
		Reply   chat.Reply
	}{Message: message, Reply: reply})
	if err != nil {
		InternalServerError("Could not render the reply.").Write(w)
		return
	}

	b := NewHTMXResponse().BodyHTML(html)
	if reply.Transaction != nil {
		b.TriggerLedgerChanged("created", 0)
	}
	b.Write(w)
}

func (s *Server) writeChatJSON(w http.ResponseWriter, reply chat.Reply) {
	out := chatResponse{
		Kind:   string(reply.Kind),
		Title:  reply.Title,
		Text:   reply.Text,
		Intent: string(reply.Intent),
		Score:  reply.Score,
	}
	if t := reply.Transaction; t != nil {
		out.Transaction = &transactionResponse{
			Kind:        t.Kind.String(),
			Amount:      t.Amount,
			Category:    t.Category,
			Description: t.Description,
			Date:        t.Date.String(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}
