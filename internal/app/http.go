// Package app is the HTTP boundary: routing, the session cookie, the
// access gate, and the translation of service errors into wire responses.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"openspaces/api/internal/auth"
	"openspaces/api/internal/ideas"
	"openspaces/api/internal/rbac"
	"openspaces/api/internal/schedule"
	"openspaces/api/internal/store"
	"openspaces/api/internal/util"
)

const sessionCookieName = "session_id"

// loginResponse is returned verbatim for known and unknown emails alike so
// the login endpoint cannot be used to probe for accounts.
const loginResponseMessage = "If an account exists for this email, a magic link has been sent."

// dataStore is the relational surface the HTTP layer touches directly.
type dataStore interface {
	Ping(ctx context.Context) error

	GetUserByID(ctx context.Context, userID string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	DeleteUser(ctx context.Context, userID string) error

	ListRooms(ctx context.Context) ([]store.Room, error)
	InsertRoom(ctx context.Context, room store.Room) error
	DeleteRoom(ctx context.Context, roomID string) error
	CountSlotsForRoom(ctx context.Context, roomID string) (int, error)
	DeleteAllRooms(ctx context.Context) error

	ListSlots(ctx context.Context) ([]store.Slot, error)
	InsertSlot(ctx context.Context, slot store.Slot) error
	DeleteSlot(ctx context.Context, slotID string) error
	UpdateSlotRoom(ctx context.Context, slotID, roomID string) error
	DeleteAllSlots(ctx context.Context) error
}

type kvPinger interface {
	Ping(ctx context.Context) error
}

type HTTPServer struct {
	auth       *auth.Service
	ideas      *ideas.Service
	schedule   *schedule.Assembler
	db         dataStore
	kv         kvPinger
	corsOrigin string
}

func NewHTTPServer(authSvc *auth.Service, ideaSvc *ideas.Service, assembler *schedule.Assembler, db dataStore, kvStore kvPinger, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		auth:       authSvc,
		ideas:      ideaSvc,
		schedule:   assembler,
		db:         db,
		kv:         kvStore,
		corsOrigin: corsOrigin,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	// Every other route resolves the caller first. A missing or expired
	// session is not an error; public endpoints accept anonymous callers.
	identity, err := s.auth.ResolveSession(r.Context(), sessionIDFromRequest(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/verify" {
		s.handleVerify(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/me" {
		if identity.Anonymous() {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": identity})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		if err := s.auth.Logout(r.Context(), sessionIDFromRequest(r)); err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Logout failed", nil)
			return
		}
		clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/schedule" {
		entries, err := s.schedule.Build(r.Context())
		if err != nil {
			log.Printf("schedule build failed: %v", err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to retrieve schedule data", nil)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/ideas" {
		items, err := s.ideas.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list ideas", nil)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/ideas" {
		s.handleSubmitIdea(w, r, identity)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/ideas/merge" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleMergeIdeas(w, r, identity)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/slots" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		slots, err := s.db.ListSlots(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list slots", nil)
			return
		}
		writeJSON(w, http.StatusOK, slots)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/slots" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleCreateSlot(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/rooms" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		rooms, err := s.db.ListRooms(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list rooms", nil)
			return
		}
		writeJSON(w, http.StatusOK, rooms)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/rooms" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleCreateRoom(w, r)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "ideas" {
		ideaID := parts[2]
		if r.Method == http.MethodDelete {
			if !s.allow(w, identity, rbac.ActionManage) {
				return
			}
			if err := s.ideas.Remove(r.Context(), ideaID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Idea deleted"})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "ideas" && parts[3] == "vote" && r.Method == http.MethodPost {
		idea, err := s.ideas.Vote(r.Context(), parts[2], resolveVoterKey(identity, r))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, idea)
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "ideas" && parts[3] == "assign" && r.Method == http.MethodPost {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleAssignIdea(w, r, parts[2])
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "slots" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleSlot(w, r, parts[2])
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "rooms" {
		if !s.allow(w, identity, rbac.ActionManage) {
			return
		}
		s.handleRoom(w, r, parts[2])
		return
	}

	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "admin" {
		if !s.allow(w, identity, rbac.ActionAdmin) {
			return
		}
		s.handleAdmin(w, r, identity, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
		"kv":       map[string]any{"status": "ok"},
	}

	if err := s.db.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "error", "error": err.Error()}
	}
	if err := s.kv.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["kv"] = map[string]any{"status": "error", "error": err.Error()}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email is required", nil)
		return
	}
	if err := s.auth.RequestLogin(r.Context(), strings.TrimSpace(body.Email)); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Login failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": loginResponseMessage})
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required", nil)
		return
	}
	session, err := s.auth.Verify(r.Context(), token)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleSubmitIdea(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	idea, err := s.ideas.Submit(r.Context(), body.Title, body.Description, identity.Email)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *HTTPServer) handleMergeIdeas(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var body struct {
		IdeaIDs        []string `json:"ideaIds"`
		NewTitle       string   `json:"newTitle"`
		NewDescription string   `json:"newDescription"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	merged, err := s.ideas.Merge(r.Context(), body.IdeaIDs, body.NewTitle, body.NewDescription, identity.Email)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "mergedIdea": merged})
}

func (s *HTTPServer) handleAssignIdea(w http.ResponseWriter, r *http.Request, ideaID string) {
	var body struct {
		SlotID string `json:"slotId"`
		RoomID string `json:"roomId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	idea, err := s.ideas.Assign(r.Context(), ideaID, body.SlotID, body.RoomID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "idea": idea})
}

func (s *HTTPServer) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartTime       string `json:"start_time"`
		DurationMinutes int    `json:"duration_minutes"`
		RoomID          string `json:"roomId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.StartTime == "" || body.DurationMinutes <= 0 || body.RoomID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Start time, duration, and room are required", nil)
		return
	}
	if _, err := time.Parse(time.RFC3339, body.StartTime); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start_time must be an RFC 3339 timestamp", nil)
		return
	}

	slot := store.Slot{
		ID:              util.NewID("slot"),
		StartTime:       body.StartTime,
		DurationMinutes: body.DurationMinutes,
		RoomID:          &body.RoomID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.db.InsertSlot(r.Context(), slot); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not create slot", nil)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (s *HTTPServer) handleSlot(w http.ResponseWriter, r *http.Request, slotID string) {
	if r.Method == http.MethodDelete {
		if err := s.db.DeleteSlot(r.Context(), slotID); err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not delete slot", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.Method == http.MethodPatch {
		var body struct {
			RoomID string `json:"roomId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body.RoomID == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Room ID is required", nil)
			return
		}
		if err := s.db.UpdateSlotRoom(r.Context(), slotID, body.RoomID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Room name is required", nil)
		return
	}

	room := store.Room{
		ID:        util.NewID("room"),
		Name:      strings.TrimSpace(body.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.InsertRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not create room", nil)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *HTTPServer) handleRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	count, err := s.db.CountSlotsForRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not delete room", nil)
		return
	}
	if count > 0 {
		writeError(w, http.StatusConflict, "CONFLICT", "Cannot delete a room that has time slots assigned to it", nil)
		return
	}
	if err := s.db.DeleteRoom(r.Context(), roomID); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not delete room", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, identity auth.Identity, parts []string) {
	if len(parts) == 1 && parts[0] == "users" {
		if r.Method == http.MethodGet {
			users, err := s.db.ListUsers(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list users", nil)
				return
			}
			writeJSON(w, http.StatusOK, users)
			return
		}
		if r.Method == http.MethodPost {
			s.handleInviteUser(w, r, identity)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 2 && parts[0] == "users" && r.Method == http.MethodDelete {
		s.handleDeleteUser(w, r, identity, parts[1])
		return
	}

	if len(parts) == 1 && parts[0] == "reset-votes" && r.Method == http.MethodPost {
		reset, err := s.ideas.ResetVotes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not reset votes", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "reset": reset})
		return
	}

	if len(parts) == 1 && parts[0] == "reset" && r.Method == http.MethodPost {
		if err := s.ideas.RemoveAll(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not reset event", nil)
			return
		}
		// Slots reference rooms, so they go first.
		if err := s.db.DeleteAllSlots(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not reset event", nil)
			return
		}
		if err := s.db.DeleteAllRooms(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not reset event", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleInviteUser(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Role == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and role are required", nil)
		return
	}

	result, err := s.auth.Invite(r.Context(), strings.TrimSpace(body.Email), body.Role, identity)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"user":           result.User,
		"emailDelivered": result.EmailDelivered,
	})
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request, identity auth.Identity, userID string) {
	user, err := s.db.GetUserByID(r.Context(), userID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	if user.Email == identity.Email {
		writeError(w, http.StatusConflict, "CONFLICT", "You cannot delete your own account", nil)
		return
	}
	if err := s.db.DeleteUser(r.Context(), userID); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// allow writes the uniform 403 when the identity's role cannot perform the
// action. Role and permission failures are indistinguishable on the wire.
func (s *HTTPServer) allow(w http.ResponseWriter, identity auth.Identity, action rbac.Action) bool {
	if !rbac.Can(rbac.Normalize(identity.Role), action) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return false
	}
	return true
}

// resolveVoterKey picks the identifier a vote is recorded under: the
// session email when logged in, otherwise the client address, otherwise the
// shared anonymous bucket.
func resolveVoterKey(identity auth.Identity, r *http.Request) string {
	if identity.Email != "" {
		return identity.Email
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return ideas.AnonymousAuthor
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, session auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
	header.Set("Access-Control-Allow-Credentials", "true")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
