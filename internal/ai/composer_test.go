package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/db"
)

func testClientRecord(status string) *db.Client {
	return &db.Client{
		ID:           uuid.New(),
		Name:         "Carlos Lima",
		AppName:      "Cardápio Digital",
		MonthlyValue: 59.9,
		DueDay:       10,
		PaymentLink:  "https://pay.example/abc",
		Status:       status,
	}
}

// fakeGenerator is a scriptable Generator.
type fakeGenerator struct {
	text  string
	err   error
	delay time.Duration
}

func (f *fakeGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestKindFor(t *testing.T) {
	if KindFor(testClientRecord(db.StatusLate)) != KindOverdue {
		t.Error("LATE client should get overdue kind")
	}
	if KindFor(testClientRecord(db.StatusActive)) != KindReminder {
		t.Error("ACTIVE client should get reminder kind")
	}
}

func TestCompose_UsesGeneratedText(t *testing.T) {
	gen := &fakeGenerator{text: "Oi Carlos, seu pagamento vence dia 10! https://pay.example/abc"}
	composer := NewComposer(gen, time.Second, zap.NewNop())

	got := composer.Compose(context.Background(), testClientRecord(db.StatusActive), KindReminder)
	if got != gen.text {
		t.Errorf("expected generated text verbatim, got %q", got)
	}
}

func TestCompose_FallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	composer := NewComposer(gen, time.Second, zap.NewNop())
	client := testClientRecord(db.StatusActive)

	got := composer.Compose(context.Background(), client, KindReminder)
	if !strings.Contains(got, client.PaymentLink) {
		t.Errorf("fallback must carry the payment link, got %q", got)
	}
	if strings.Contains(got, client.Name) {
		t.Errorf("fallback must not be personalized, got %q", got)
	}
}

func TestCompose_FallbackOnEmptyText(t *testing.T) {
	gen := &fakeGenerator{text: "   \n"}
	composer := NewComposer(gen, time.Second, zap.NewNop())

	got := composer.Compose(context.Background(), testClientRecord(db.StatusLate), KindOverdue)
	if !strings.Contains(got, "em atraso") {
		t.Errorf("overdue fallback expected, got %q", got)
	}
}

func TestCompose_FallbackOnTimeout(t *testing.T) {
	gen := &fakeGenerator{text: "too late", delay: 500 * time.Millisecond}
	composer := NewComposer(gen, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	got := composer.Compose(context.Background(), testClientRecord(db.StatusActive), KindReminder)
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("compose did not respect its timeout, took %v", elapsed)
	}
	if got == "too late" {
		t.Error("slow generator output must be discarded for the fallback")
	}
}

func TestCompose_NilGeneratorAlwaysFallsBack(t *testing.T) {
	composer := NewComposer(nil, time.Second, zap.NewNop())
	client := testClientRecord(db.StatusActive)

	got := composer.Compose(context.Background(), client, KindReminder)
	if !strings.Contains(got, client.PaymentLink) {
		t.Errorf("expected fallback text, got %q", got)
	}
}

func TestCompose_DeterministicFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down")}
	composer := NewComposer(gen, time.Second, zap.NewNop())
	client := testClientRecord(db.StatusLate)

	a := composer.Compose(context.Background(), client, KindOverdue)
	b := composer.Compose(context.Background(), client, KindOverdue)
	if a != b {
		t.Error("fallback text must be deterministic")
	}
}

func TestClient_GenerateTextAgainstFakeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Olá! Lembrete."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := client.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Olá! Lembrete." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestClient_GenerateTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.GenerateText(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected an error from the API error payload")
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}, zap.NewNop()); err == nil {
		t.Fatal("expected an error without an API key")
	}
}
