package http

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"finchat/internal/core"
	"finchat/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	in, err := ParseTransactionInput(body)
	if err != nil {
		UnprocessableEntityError(inputErrorMessage(err)).Write(w)
		return
	}

	ctx := r.Context()
	if err := s.deps.Ledger.Add(ctx, in.Kind, in.Amount, in.Category, in.Description); err != nil {
		s.ledgerFailure(r, err, log.OpCreate)
		InternalServerError("Error saving transaction.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactions, 1)

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionRecorded(ctx, log.OpCreate, 0, in.Kind.String(), in.Amount, in.Category)

	FlashResponse(http.StatusOK, "success",
		"Added "+in.Kind.String()+": "+core.FormatAmount(s.currency, in.Amount)+" ("+in.Category+")").
		TriggerLedgerChanged("created", 0).
		TriggerFormReset().
		Write(w)
}

// handleRecords shows totals and every transaction, with an edit form for ?id=.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.deps.Ledger.Summary(ctx)
	if err != nil {
		s.ledgerFailure(r, err, log.OpRead)
		s.renderError(w, r, "Could not load your records.")
		return
	}
	txns, err := s.deps.Ledger.ListAll(ctx)
	if err != nil {
		s.ledgerFailure(r, err, log.OpList)
		s.renderError(w, r, "Could not load your records.")
		return
	}

	var selected *core.Transaction
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := ParseID(raw)
		if err != nil {
			log.FromContext(ctx).DebugContext(ctx, "Ignoring invalid record id", "id", raw)
		} else {
			t, ok, err := s.deps.Ledger.Get(ctx, id)
			switch {
			case err != nil:
				s.ledgerFailure(r, err, log.OpRead)
			case ok:
				selected = &t
			}
		}
	}

	s.render(w, r, http.StatusOK, "records.html", struct {
		page
		Summary      core.Summary
		Transactions []core.Transaction
		Selected     *core.Transaction
		Kinds        []core.Kind
	}{
		page:         page{Title: "Records", Page: "records"},
		Summary:      summary,
		Transactions: txns,
		Selected:     selected,
		Kinds:        []core.Kind{core.Income, core.Expense},
	})
}

// handleUpdateTransaction edits a transaction. Unknown ids change nothing.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	id, err := ParseID(body.Get("id"))
	if err != nil {
		BadRequestError(inputErrorMessage(err)).Write(w)
		return
	}
	in, err := ParseTransactionInput(body)
	if err != nil {
		UnprocessableEntityError(inputErrorMessage(err)).Write(w)
		return
	}

	ctx := r.Context()
	if err := s.deps.Ledger.Edit(ctx, id, in.Kind, in.Amount, in.Category, in.Description); err != nil {
		s.ledgerFailure(r, err, log.OpUpdate)
		InternalServerError("Error updating transaction.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.edits, 1)
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionRecorded(ctx, log.OpUpdate, id, in.Kind.String(), in.Amount, in.Category)

	if isHTMX(r.Header) {
		FlashResponse(http.StatusOK, "success", "Transaction updated.").
			TriggerLedgerChanged("updated", id).
			Write(w)
		return
	}
	http.Redirect(w, r, "/records?id="+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

// handleDeleteTransaction accepts POST from the records form and DELETE from
// htmx. Unknown ids change nothing.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	id, err := ParseID(body.Get("id"))
	if err != nil {
		BadRequestError(inputErrorMessage(err)).Write(w)
		return
	}

	ctx := r.Context()
	if err := s.deps.Ledger.Delete(ctx, id); err != nil {
		s.ledgerFailure(r, err, log.OpDelete)
		InternalServerError("Error deleting transaction.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.deletes, 1)
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Transaction delete requested", log.FieldTransactionID, id)

	if isHTMX(r.Header) {
		FlashResponse(http.StatusOK, "success", "Transaction deleted.").
			TriggerLedgerChanged("deleted", id).
			Write(w)
		return
	}
	http.Redirect(w, r, "/records", http.StatusSeeOther)
}

func (s *Server) ledgerFailure(r *http.Request, err error, op string) {
	atomic.AddInt64(&s.appMetrics.ledgerFailures, 1)
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), "Ledger operation failed", err, log.ComponentLedger, op, nil)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, message string) {
	s.render(w, r, http.StatusInternalServerError, "error.html", struct {
		page
		Message string
	}{page: page{Title: "Error"}, Message: message})
}
