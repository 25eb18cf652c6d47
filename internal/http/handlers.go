package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bodekasse/internal/auth"
	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/services"
)

// pageData backs index.html and the board partial.
type pageData struct {
	Board   services.Board
	Admin   bool
	Token   string
	History historyData
}

// historyData backs the history partial.
type historyData struct {
	Member   string
	Selected bool
	Fines    []core.Fine
	Total    int64
	Admin    bool
	Token    string
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and that the store can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ledger.Ready(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// adminToken returns the request's token only when it unlocks admin access,
// so pages never echo a wrong token back into links and forms.
func (s *Server) adminToken(r *http.Request) (string, bool) {
	token := auth.TokenFromRequest(r)
	if s.ledger.IsAdmin(token) {
		return token, true
	}
	return "", false
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	page, ok := s.loadPage(w, r)
	if !ok {
		return
	}

	selected := sanitizeInput(r.URL.Query().Get("member"))
	switch {
	case selected != "":
	case len(page.Board.Members) > 0:
		selected = page.Board.Members[0].Name
	case len(page.Board.Former) > 0:
		selected = page.Board.Former[0]
	}
	history, err := s.loadHistory(r.Context(), selected, page.Admin, page.Token)
	if err != nil {
		s.storageFailure(w, r, "Failed to load history", err)
		return
	}
	page.History = history

	s.render(w, r, "index.html", page)
}

// handleBoard renders the totals and payment links.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	page, ok := s.loadPage(w, r)
	if !ok {
		return
	}
	s.render(w, r, "board", page)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	token, admin := s.adminToken(r)
	member := sanitizeInput(r.URL.Query().Get("member"))

	history, err := s.loadHistory(r.Context(), member, admin, token)
	if err != nil {
		s.storageFailure(w, r, "Failed to load history", err)
		return
	}
	s.render(w, r, "history", history)
}

func (s *Server) loadPage(w http.ResponseWriter, r *http.Request) (pageData, bool) {
	token, admin := s.adminToken(r)
	board, err := s.ledger.Board(r.Context())
	if err != nil {
		s.storageFailure(w, r, "Failed to load board", err)
		return pageData{}, false
	}
	return pageData{Board: board, Admin: admin, Token: token}, true
}

func (s *Server) loadHistory(ctx context.Context, member string, admin bool, token string) (historyData, error) {
	h := historyData{Member: member, Selected: member != "", Admin: admin, Token: token}
	if member == "" {
		return h, nil
	}
	fines, err := s.ledger.History(ctx, member)
	if err != nil {
		return historyData{}, err
	}
	h.Fines = fines
	h.Total = core.GrandTotal(fines)
	return h, nil
}

func (s *Server) handleAssignFine(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, log.OpAssignFine, func(ctx context.Context, f AdminForm) (string, string, error) {
		fine, err := s.ledger.AssignFine(ctx, f.Token, f.Member, f.FineType)
		if err != nil {
			return f.Member, "", err
		}
		return fine.Member, fmt.Sprintf("Bøde '%s' tilføjet til %s.", fine.FineType, fine.Member), nil
	})
}

func (s *Server) handleClearFines(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, log.OpClearFines, func(ctx context.Context, f AdminForm) (string, string, error) {
		n, err := s.ledger.ClearMemberFines(ctx, f.Token, f.Member)
		if err != nil {
			return f.Member, "", err
		}
		if n == 0 {
			return f.Member, fmt.Sprintf("%s havde ingen bøder.", f.Member), nil
		}
		return f.Member, fmt.Sprintf("Alle bøder for %s er slettet.", f.Member), nil
	})
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, log.OpAddMember, func(ctx context.Context, f AdminForm) (string, string, error) {
		m, err := s.ledger.AddMember(ctx, f.Token, f.Name)
		if err != nil {
			return f.Name, "", err
		}
		return m.Name, fmt.Sprintf("Tilføjede: %s", m.Name), nil
	})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, log.OpRemoveMember, func(ctx context.Context, f AdminForm) (string, string, error) {
		if _, err := s.ledger.RemoveMember(ctx, f.Token, f.Name); err != nil {
			return f.Name, "", err
		}
		return f.Name, fmt.Sprintf("Fjernede: %s", f.Name), nil
	})
}

type adminFunc func(ctx context.Context, f AdminForm) (member, message string, err error)

// adminAction parses the admin form, runs op and maps its outcome onto the
// HTMX response: 200 with a ledger:changed trigger, 422 for rejected input,
// 403 for a bad token and 500 for storage failures.
func (s *Server) adminAction(w http.ResponseWriter, r *http.Request, op string, run adminFunc) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	form, err := ParseAdminForm(r)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed admin request",
			log.FieldOperation, op,
			log.FieldError, err)
		BadRequestError("Ugyldig forespørgsel.").Write(w)
		return
	}

	member, message, err := run(r.Context(), form)
	switch {
	case err == nil:
		resp := NoticeResponse(http.StatusOK, "success", message).
			TriggerLedgerChanged(op, member).
			TriggerFormReset().
			TriggerSuccessNotification(message)
		if op == log.OpAddMember || op == log.OpRemoveMember {
			// every roster select on the page is stale
			resp.Header("HX-Refresh", "true")
		}
		resp.Write(w)
	case errors.Is(err, core.ErrNotAuthorized):
		ForbiddenError("Adgang nægtet.").Write(w)
	case core.IsInputError(err):
		WarningResponse(warningMessage(err)).Write(w)
	default:
		log.FromContext(r.Context()).WithComponent(log.ComponentAdmin).ErrorContext(r.Context(), "Admin operation failed",
			log.FieldOperation, op,
			log.FieldMember, member,
			log.FieldError, err)
		InternalServerError("Ændringen kunne ikke gemmes.").
			TriggerErrorNotification("Ændringen kunne ikke gemmes.").
			Write(w)
	}
}

func (s *Server) storageFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentStorage).ErrorContext(r.Context(), msg,
		log.FieldPath, r.URL.Path,
		log.FieldError, err)
	InternalServerError("Data kunne ikke indlæses.").Write(w)
}
