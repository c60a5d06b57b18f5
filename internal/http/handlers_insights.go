package http

import (
	"net/http"
	"sync/atomic"

	"finchat/internal/core"
	"finchat/internal/log"
)

const insightTopCategories = 3

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.deps.Ledger.Summary(ctx)
	if err != nil {
		s.ledgerFailure(r, err, log.OpRead)
		s.renderError(w, r, "Could not load your insights.")
		return
	}
	txns, err := s.deps.Ledger.ListAll(ctx)
	if err != nil {
		s.ledgerFailure(r, err, log.OpList)
		s.renderError(w, r, "Could not load your insights.")
		return
	}

	s.render(w, r, http.StatusOK, "insights.html", struct {
		page
		Summary       core.Summary
		SavingsRate   float64
		ExpenseRatio  float64
		NoIncome      bool
		TopCategories []core.CategoryTotal
	}{
		page:          page{Title: "Insights", Page: "insights"},
		Summary:       summary,
		SavingsRate:   summary.SavingsRate(),
		ExpenseRatio:  summary.ExpenseRatio(),
		NoIncome:      summary.Income <= 0,
		TopCategories: core.TopExpenseCategories(txns, insightTopCategories),
	})
}

// handleAdvice generates the three advice variants. Model failures show up
// inside the fragment; only ledger failures produce an error status.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.adviceRequests, 1)

	all, err := s.deps.Advisor.All(r.Context())
	if err != nil {
		s.ledgerFailure(r, err, log.OpGenerate)
		InternalServerError("Could not generate advice right now.").Write(w)
		return
	}

	html, err := s.renderFragment(r, "advice", all)
	if err != nil {
		InternalServerError("Could not render the advice.").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}
