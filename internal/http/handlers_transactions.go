package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleListTransactions returns the ledger newest first. ?catchup= runs the
// recurring catch-up first, defaulting to the server setting. ?year=,
// ?month= and ?type= narrow the result.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	catchUp := parseBool(q, "catchup", s.catchUpOnRead)

	txs, err := s.ledger.ListTransactions(r.Context(), catchUp)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if catchUp {
		s.invalidate()
	}

	if q.Has("year") || q.Has("month") {
		params, err := ParseMonthParams(q, s.now())
		if err != nil {
			badRequest(w, err)
			return
		}
		txs = params.Filter(txs)
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			s.fail(w, r, log.OpList, err)
			return
		}
		filtered := make([]core.Transaction, 0, len(txs))
		for _, tx := range txs {
			if tx.Type == t {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Payload(txs).Write(w)
}

// handleAddTransaction records a transaction. With "repeat": true a monthly
// recurring template is created from it as well.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.rejectBody(w, r, log.OpCreate, err)
		return
	}
	tx, err := req.toTransaction("")
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	saved, err := s.ledger.AddTransaction(r.Context(), tx, req.Repeat)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.invalidate()
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionAdded(r.Context(), saved.ID, string(saved.Type), saved.Amount, saved.Category)
	NewJSONResponse().Status(http.StatusCreated).Payload(saved).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.rejectBody(w, r, log.OpUpdate, err)
		return
	}
	tx, err := req.toTransaction(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if err := s.ledger.UpdateTransaction(r.Context(), tx); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}
