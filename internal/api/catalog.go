package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/db"
)

// SellerRequest is the payload for creating or updating a seller.
type SellerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photo_url"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateSeller handles POST /v1/sellers
func (h *Handler) CreateSeller(w http.ResponseWriter, r *http.Request) {
	var req SellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "name, email and password are required")
		return
	}

	seller := &db.Seller{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		IsAdmin:  req.IsAdmin,
	}

	if err := h.repo.CreateSeller(r.Context(), seller); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create seller", "")
		return
	}

	h.writeJSON(w, http.StatusCreated, seller)
}

// ListSellers handles GET /v1/sellers
func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.repo.ListSellers(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list sellers", "")
		return
	}

	if sellers == nil {
		sellers = []*db.Seller{}
	}
	h.writeJSON(w, http.StatusOK, sellers)
}

// UpdateSeller handles PUT /v1/sellers/{id}. An empty password keeps
// the stored one.
func (h *Handler) UpdateSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req SellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Name == "" || req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "name and email are required")
		return
	}

	seller := &db.Seller{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		IsAdmin:  req.IsAdmin,
	}

	err := h.repo.UpdateSeller(r.Context(), seller)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Seller not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update seller", "")
		return
	}

	h.writeJSON(w, http.StatusOK, seller)
}

// DeleteSeller handles DELETE /v1/sellers/{id}
func (h *Handler) DeleteSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := h.repo.DeleteSeller(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Seller not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete seller", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LoginRequest is the payload for POST /v1/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/login. Credentials are compared as stored;
// on success the seller record is returned without the password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "email and password are required")
		return
	}

	seller, err := h.repo.GetSellerByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to look up seller", "")
		return
	}

	if seller.Password != req.Password {
		h.logger.Warn("failed login attempt", zap.String("email", req.Email))
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials", "")
		return
	}

	h.writeJSON(w, http.StatusOK, seller)
}

// LocationRequest is the payload for PUT /v1/sellers/{id}/location.
type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation handles PUT /v1/sellers/{id}/location
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if h.locations == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "Location tracking is not configured", "")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid coordinates", "latitude must be -90..90 and longitude -180..180")
		return
	}

	if err := h.locations.Update(r.Context(), id, req.Latitude, req.Longitude); err != nil {
		h.logger.Error("failed to store seller location", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to store location", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLocations handles GET /v1/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	if h.locations == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "Location tracking is not configured", "")
		return
	}

	locations, err := h.locations.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list seller locations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list locations", "")
		return
	}

	h.writeJSON(w, http.StatusOK, locations)
}

// ProductRequest is the payload for creating or updating a product.
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	DemoLink    string  `json:"demo_link"`
}

// CreateProduct handles POST /v1/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "name is required")
		return
	}
	if req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid price", "price must not be negative")
		return
	}

	product := &db.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		DemoLink:    req.DemoLink,
	}

	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create product", "")
		return
	}

	h.writeJSON(w, http.StatusCreated, product)
}

// ListProducts handles GET /v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list products", "")
		return
	}

	if products == nil {
		products = []*db.Product{}
	}
	h.writeJSON(w, http.StatusOK, products)
}

// UpdateProduct handles PUT /v1/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "name is required")
		return
	}
	if req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid price", "price must not be negative")
		return
	}

	product := &db.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		DemoLink:    req.DemoLink,
	}

	err := h.repo.UpdateProduct(r.Context(), product)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Product not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update product", "")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /v1/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := h.repo.DeleteProduct(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Product not found", "")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete product", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
