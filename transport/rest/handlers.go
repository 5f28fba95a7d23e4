// Package rest exposes the synchronous request/response surface:
// relationship mutations, history access and the thin account routes.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"lovefindme/domain"
	"lovefindme/domain/event"
	"lovefindme/errors"
	"lovefindme/repositories"
	"lovefindme/services"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/samber/lo"
)

type Handlers struct {
	log         *slog.Logger
	chat        services.IChatService
	auth        services.IAuthService
	users       repositories.IUserRepository
	searchLimit int
}

func NewHandlers(log *slog.Logger, chat services.IChatService,
	auth services.IAuthService, users repositories.IUserRepository,
	searchLimit int) *Handlers {
	return &Handlers{log: log, chat: chat, auth: auth, users: users, searchLimit: searchLimit}
}

// Router assembles all routes behind a permissive CORS layer, plus the
// websocket upgrade endpoint.
func (h *Handlers) Router(wsHandler http.HandlerFunc) http.Handler {
	router := httprouter.New()

	router.GET("/", h.root)
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)
	router.GET("/api/users", h.listUsers)
	router.POST("/api/block/:id", h.block)
	router.POST("/api/accept/:id", h.accept)
	router.GET("/api/messages/:user1/:user2", h.history)
	router.DELETE("/api/messages/:user1/:user2", h.deleteConversation)
	router.DELETE("/api/message/:id", h.deleteMessage)
	router.GET("/api/search", h.search)
	router.HandlerFunc(http.MethodGet, "/ws", wsHandler)

	return cors.AllowAll().Handler(router)
}

func (h *Handlers) root(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("LoveFindMe API is running"))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	token, id, err := h.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered",
		"id":      id,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (h *Handlers) listUsers(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	users, err := h.users.ListUsers()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(users, func(u domain.User, _ int) map[string]any {
		return map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"email":    u.Email,
		}
	}))
}

type relationshipRequest struct {
	UserID string `json:"userId"`
}

func (h *Handlers) block(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	h.mutateRelationship(w, r, params, h.chat.Block, "User blocked")
}

func (h *Handlers) accept(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	h.mutateRelationship(w, r, params, h.chat.Accept, "User accepted")
}

func (h *Handlers) mutateRelationship(w http.ResponseWriter, r *http.Request,
	params httprouter.Params, op func(actor, target domain.UserID) error, confirmation string) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "Missing userId or targetId")
		return
	}

	actor := domain.UserID(req.UserID)
	target := domain.UserID(params.ByName("id"))
	if err := op(actor, target); err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, confirmation)
}

func (h *Handlers) history(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	a := domain.UserID(params.ByName("user1"))
	b := domain.UserID(params.ByName("user2"))

	messages, err := h.chat.History(a, b)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) event.MessageDelivered {
		return event.FromMessage(m)
	}))
}

func (h *Handlers) deleteConversation(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	a := domain.UserID(params.ByName("user1"))
	b := domain.UserID(params.ByName("user2"))

	if err := h.chat.DeleteConversation(a, b); err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Chat deleted")
}

func (h *Handlers) deleteMessage(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	if err := h.chat.DeleteMessage(domain.MessageID(params.ByName("id"))); err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Message deleted")
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	a := domain.UserID(query.Get("user1"))
	b := domain.UserID(query.Get("user2"))
	terms := query.Get("q")
	if !a.Valid() || !b.Valid() || terms == "" {
		writeMessage(w, http.StatusBadRequest, "user1, user2 and q are required")
		return
	}

	limit := h.searchLimit
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	ids, err := h.chat.Search(r.Context(), a, b, terms, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "error", err)
		writeMessage(w, status, "Server error")
		return
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
