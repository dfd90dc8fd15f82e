// Package api holds the HTTP handlers for the CRM backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/ai"
	"github.com/gportela85/gestor/internal/alerts"
	"github.com/gportela85/gestor/internal/db"
	"github.com/gportela85/gestor/internal/metrics"
	"github.com/gportela85/gestor/internal/redis"
	"github.com/gportela85/gestor/internal/reminder"
)

// Repository defines the store operations the handlers use.
type Repository interface {
	CreateClient(ctx context.Context, c *db.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*db.Client, error)
	ListClients(ctx context.Context) ([]*db.Client, error)
	ListClientsByStatus(ctx context.Context, status string) ([]*db.Client, error)
	UpdateClient(ctx context.Context, c *db.Client) error
	UpdateClientStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteClient(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *db.Message) error
	ListMessages(ctx context.Context) ([]*db.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error

	CreateSeller(ctx context.Context, s *db.Seller) error
	ListSellers(ctx context.Context) ([]*db.Seller, error)
	GetSellerByEmail(ctx context.Context, email string) (*db.Seller, error)
	UpdateSeller(ctx context.Context, s *db.Seller) error
	DeleteSeller(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, p *db.Product) error
	ListProducts(ctx context.Context) ([]*db.Product, error)
	UpdateProduct(ctx context.Context, p *db.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ErrorResponse represents an error in problem+json format
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Handler holds dependencies for API handlers
type Handler struct {
	logger    *zap.Logger
	repo      Repository
	feed      *alerts.Service
	composer  *ai.Composer
	sender    reminder.Sender        // nil if no delivery channel configured
	locations *redis.LocationTracker // nil if redis unavailable
}

// NewHandler creates a new API handler. sender and locations may be nil;
// the matching endpoints answer 503 in that case.
func NewHandler(
	logger *zap.Logger,
	repo Repository,
	feed *alerts.Service,
	composer *ai.Composer,
	sender reminder.Sender,
	locations *redis.LocationTracker,
) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		feed:      feed,
		composer:  composer,
		sender:    sender,
		locations: locations,
	}
}

// ClientRequest is the payload for creating or updating a client.
type ClientRequest struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Whatsapp     string     `json:"whatsapp"`
	Address      string     `json:"address"`
	AppName      string     `json:"app_name"`
	MonthlyValue float64    `json:"monthly_value"`
	PaymentLink  string     `json:"payment_link"`
	DueDay       int        `json:"due_day"`
	Status       string     `json:"status"`
	SaleDate     *time.Time `json:"sale_date,omitempty"`
}

// CreateClient handles POST /v1/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "name is required")
		return
	}
	if req.DueDay < 1 || req.DueDay > 31 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid due day", "due_day must be between 1 and 31")
		return
	}
	if req.MonthlyValue < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid monthly value", "monthly_value must not be negative")
		return
	}
	if req.Status == "" {
		req.Status = db.StatusActive
	}
	if !db.ValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid status", "status must be ACTIVE, LATE, PAUSED or TESTING")
		return
	}

	client := &db.Client{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Whatsapp:     req.Whatsapp,
		Address:      req.Address,
		AppName:      req.AppName,
		MonthlyValue: req.MonthlyValue,
		PaymentLink:  req.PaymentLink,
		DueDay:       req.DueDay,
		Status:       req.Status,
		SaleDate:     req.SaleDate,
	}

	if err := h.repo.CreateClient(r.Context(), client); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create client", "")
		return
	}

	h.writeJSON(w, http.StatusCreated, client)
}

// ListClients handles GET /v1/clients with an optional ?status= filter
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var (
		clients []*db.Client
		err     error
	)
	if status != "" {
		if !db.ValidStatus(status) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid status filter", "status must be ACTIVE, LATE, PAUSED or TESTING")
			return
		}
		clients, err = h.repo.ListClientsByStatus(r.Context(), status)
	} else {
		clients, err = h.repo.ListClients(r.Context())
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list clients", "")
		return
	}

	if clients == nil {
		clients = []*db.Client{}
	}
	h.writeJSON(w, http.StatusOK, clients)
}

// GetClient handles GET /v1/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	client, err := h.repo.GetClient(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Client not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get client", "")
		return
	}

	h.writeJSON(w, http.StatusOK, client)
}

// UpdateClient handles PUT /v1/clients/{id}. Fields missing from the
// body keep their stored values.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	client, err := h.repo.GetClient(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Client not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get client", "")
		return
	}

	// Decoding over the loaded record gives partial-update semantics.
	if err := json.NewDecoder(r.Body).Decode(client); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	client.ID = id

	if client.DueDay < 1 || client.DueDay > 31 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid due day", "due_day must be between 1 and 31")
		return
	}
	if client.MonthlyValue < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid monthly value", "monthly_value must not be negative")
		return
	}

	if err := h.repo.UpdateClient(r.Context(), client); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update client", "")
		return
	}

	h.writeJSON(w, http.StatusOK, client)
}

// UpdateClientStatus handles PATCH /v1/clients/{id}/status
func (h *Handler) UpdateClientStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if !db.ValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid status", "status must be ACTIVE, LATE, PAUSED or TESTING")
		return
	}

	err := h.repo.UpdateClientStatus(r.Context(), id, req.Status)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Client not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update status", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteClient handles DELETE /v1/clients/{id}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := h.repo.DeleteClient(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Client not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete client", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MessageRequest is the payload for creating a message.
type MessageRequest struct {
	Content       string  `json:"content"`
	SenderName    string  `json:"sender_name"`
	ReceiverEmail *string `json:"receiver_email,omitempty"`
}

// CreateMessage handles POST /v1/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Content == "" || req.SenderName == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "content and sender_name are required")
		return
	}

	msg := &db.Message{
		ID:            uuid.New(),
		Content:       req.Content,
		SenderName:    req.SenderName,
		ReceiverEmail: req.ReceiverEmail,
	}

	if err := h.repo.CreateMessage(r.Context(), msg); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create message", "")
		return
	}

	h.writeJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /v1/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.repo.ListMessages(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list messages", "")
		return
	}

	if messages == nil {
		messages = []*db.Message{}
	}
	h.writeJSON(w, http.StatusOK, messages)
}

// DeleteMessage handles DELETE /v1/messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteMessage(r.Context(), id); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete message", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetNotifications handles GET /v1/notifications. The feed is rebuilt
// from fresh snapshots on every request; nothing is cached.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	feed, err := h.feed.Feed(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build notification feed", "")
		return
	}

	counts := make(map[string]int)
	for _, n := range feed {
		if n.Kind == alerts.KindWarning {
			counts[n.Title]++
		}
	}
	metrics.RecordFeedBuild(counts)

	if feed == nil {
		feed = []alerts.Notification{}
	}
	h.writeJSON(w, http.StatusOK, feed)
}

// DeleteNotification handles DELETE /v1/notifications/{id}. Only
// message-origin entries (msg-<uuid>) are deletable; billing and trial
// ids have no backing record and answer 404.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")

	if !strings.HasPrefix(rawID, "msg-") {
		h.writeError(w, http.StatusNotFound, "not_found", "Notification is not deletable", "only message notifications can be dismissed")
		return
	}

	msgID, err := uuid.Parse(strings.TrimPrefix(rawID, "msg-"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid notification id", "")
		return
	}

	if err := h.feed.DeleteMessage(r.Context(), msgID); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete notification", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReminderRequest optionally asks for immediate delivery.
type ReminderRequest struct {
	Channel string `json:"channel,omitempty"` // email, sms or whatsapp
}

// ReminderResponse carries the composed text and the delivery outcome.
type ReminderResponse struct {
	Text    string `json:"text"`
	Kind    string `json:"kind"`
	Sent    bool   `json:"sent"`
	Channel string `json:"channel,omitempty"`
}

// ComposeReminder handles POST /v1/clients/{id}/reminder
func (h *Handler) ComposeReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req ReminderRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
			return
		}
	}

	client, err := h.repo.GetClient(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Client not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get client", "")
		return
	}

	kind := ai.KindFor(client)
	text := h.composer.Compose(r.Context(), client, kind)

	resp := ReminderResponse{Text: text, Kind: string(kind)}

	if req.Channel != "" {
		rem, errResp := buildChannelReminder(client, req.Channel, text)
		if errResp != "" {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Cannot deliver reminder", errResp)
			return
		}
		if h.sender == nil || !h.sender.SupportsChannel(req.Channel) {
			h.writeError(w, http.StatusServiceUnavailable, "channel_unavailable", "Delivery channel not configured", req.Channel)
			return
		}

		err := h.sender.Send(r.Context(), rem)
		metrics.RecordReminderSent(req.Channel, err)
		if err != nil {
			h.logger.Error("reminder delivery failed",
				zap.Error(err),
				zap.String("client_id", client.ID.String()),
				zap.String("channel", req.Channel),
			)
			h.writeError(w, http.StatusBadGateway, "delivery_failed", "Reminder could not be delivered", "")
			return
		}

		resp.Sent = true
		resp.Channel = req.Channel
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func buildChannelReminder(client *db.Client, channel, text string) (*reminder.Reminder, string) {
	rem := &reminder.Reminder{
		ClientID: client.ID,
		Channel:  channel,
		Body:     text,
	}

	switch channel {
	case reminder.ChannelEmail:
		if client.Email == "" {
			return nil, "client has no email address"
		}
		rem.To = client.Email
		rem.Subject = "Lembrete de pagamento - " + client.AppName
	case reminder.ChannelSMS, reminder.ChannelWhatsapp:
		if client.Whatsapp == "" {
			return nil, "client has no phone number"
		}
		rem.To = client.Whatsapp
	default:
		return nil, "channel must be email, sms or whatsapp"
	}

	return rem, ""
}

// DashboardResponse holds the admin dashboard aggregates.
type DashboardResponse struct {
	ClientsByStatus map[string]int `json:"clients_by_status"`
	TotalClients    int            `json:"total_clients"`
	MonthlyRevenue  float64        `json:"monthly_revenue"`
	OverdueCount    int            `json:"overdue_count"`
	TrialsEnding    int            `json:"trials_ending"`
}

// GetDashboard handles GET /v1/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.ListClients(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list clients", "")
		return
	}

	resp := DashboardResponse{
		ClientsByStatus: make(map[string]int, 4),
		TotalClients:    len(clients),
	}
	for _, s := range alerts.Statuses() {
		resp.ClientsByStatus[s] = 0
	}

	for _, c := range clients {
		resp.ClientsByStatus[c.Status]++
		if c.Status == db.StatusActive {
			resp.MonthlyRevenue += c.MonthlyValue
		}
		if c.Status == db.StatusLate {
			resp.OverdueCount++
		}
	}

	for _, n := range alerts.DeriveBillingAlerts(clients, time.Now()) {
		if n.Title == alerts.TitleTrial {
			resp.TrialsEnding++
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// pathID parses the {id} URL parameter, writing a 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
