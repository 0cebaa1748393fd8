package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// handleListCategories returns the registry in stored order, optionally
// filtered with ?type=income|expense.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			s.fail(w, r, log.OpList, err)
			return
		}
		cats = storage.ByType(cats, t)
	}
	NewJSONResponse().Payload(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	t, err := core.ParseTxType(req.Type)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	c, err := s.ledger.CreateCategory(r.Context(), sanitizeInput(req.Name), t)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.invalidate()
	NewJSONResponse().Status(http.StatusCreated).Payload(c).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.ledger.RenameCategory(r.Context(), r.PathValue("id"), sanitizeInput(req.Name)); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}

// handleReorderCategories persists a full ordering. The body is the complete
// category list; any id or type mismatch is rejected with 422.
func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var ordered []core.Category
	if err := decodeJSON(w, r, &ordered); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.ledger.ReorderCategories(r.Context(), ordered); err != nil {
		s.fail(w, r, log.OpReorder, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}

func (s *Server) handleMoveCategory(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.ledger.MoveCategory(r.Context(), r.PathValue("id"), req.OverID); err != nil {
		s.fail(w, r, log.OpReorder, err)
		return
	}
	s.invalidate()
	NoContent().Write(w)
}

// handleCategoryTotal sums the transactions labelled {name}, optionally
// restricted with ?year= and ?month=.
func (s *Server) handleCategoryTotal(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), false)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		params, err := ParseMonthParams(q, s.now())
		if err != nil {
			badRequest(w, err)
			return
		}
		txs = params.Filter(txs)
	}

	name := r.PathValue("name")
	total := core.PerCategoryTotal(txs, name)
	NewJSONResponse().Payload(map[string]any{
		"name":  name,
		"total": total.InexactFloat64(),
	}).Write(w)
}
