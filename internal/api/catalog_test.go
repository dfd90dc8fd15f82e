package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/gportela85/gestor/internal/db"
)

func TestSellerLifecycle(t *testing.T) {
	repo := NewMockRepository()
	router := newTestRouter(newTestHandler(repo, nil))

	rec := doRequest(t, router, http.MethodPost, "/v1/sellers", SellerRequest{
		Name:     "Joana",
		Email:    "joana@example.com",
		Password: "segredo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created db.Seller
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected a generated id")
	}

	// Password must never appear in responses
	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}
	if _, ok := raw["password"]; ok {
		t.Error("password field leaked in response")
	}

	// Update with empty password keeps the stored one
	rec = doRequest(t, router, http.MethodPut, "/v1/sellers/"+created.ID.String(), SellerRequest{
		Name:  "Joana Silva",
		Email: "joana@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.sellers[created.ID].Password != "segredo" {
		t.Errorf("expected stored password kept, got %q", repo.sellers[created.ID].Password)
	}

	rec = doRequest(t, router, http.MethodDelete, "/v1/sellers/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(repo.sellers) != 0 {
		t.Error("expected seller removed")
	}
}

func TestSellerValidation(t *testing.T) {
	router := newTestRouter(newTestHandler(NewMockRepository(), nil))

	rec := doRequest(t, router, http.MethodPost, "/v1/sellers", SellerRequest{Name: "no creds"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing email and password, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	repo := NewMockRepository()
	router := newTestRouter(newTestHandler(repo, nil))

	id := uuid.New()
	repo.sellers[id] = &db.Seller{
		ID:       id,
		Name:     "Joana",
		Email:    "joana@example.com",
		Password: "segredo",
	}

	rec := doRequest(t, router, http.MethodPost, "/v1/login",
		LoginRequest{Email: "joana@example.com", Password: "segredo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var seller db.Seller
	if err := json.Unmarshal(rec.Body.Bytes(), &seller); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if seller.ID != id {
		t.Errorf("expected seller %s, got %s", id, seller.ID)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/login",
		LoginRequest{Email: "joana@example.com", Password: "errada"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/login",
		LoginRequest{Email: "ninguem@example.com", Password: "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", rec.Code)
	}
}

func TestProductLifecycle(t *testing.T) {
	repo := NewMockRepository()
	router := newTestRouter(newTestHandler(repo, nil))

	rec := doRequest(t, router, http.MethodPost, "/v1/products", ProductRequest{
		Name:  "App Delivery",
		Price: 149.90,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created db.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/products/"+created.ID.String(), ProductRequest{
		Name:  "App Delivery Pro",
		Price: 199.90,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.products[created.ID].Price != 199.90 {
		t.Errorf("expected updated price, got %.2f", repo.products[created.ID].Price)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/products", ProductRequest{Name: "x", Price: -5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative price, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/v1/products/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestLocationEndpointsUnavailable(t *testing.T) {
	router := newTestRouter(newTestHandler(NewMockRepository(), nil))

	rec := doRequest(t, router, http.MethodPut, "/v1/sellers/"+uuid.NewString()+"/location",
		LocationRequest{Latitude: -23.55, Longitude: -46.63})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without redis, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/locations", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without redis, got %d", rec.Code)
	}
}
