package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gportela85/gestor/internal/db"
)

func makeClient(status string, dueDay int) *db.Client {
	return &db.Client{
		ID:           uuid.New(),
		Name:         "Maria Souza",
		AppName:      "Delivery Pro",
		MonthlyValue: 99.9,
		DueDay:       dueDay,
		Status:       status,
		CreatedAt:    time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeriveBillingAlerts_PausedClientIsSkipped(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	// Due day matches today, but PAUSED always wins.
	c := makeClient(db.StatusPaused, 15)

	alerts := DeriveBillingAlerts([]*db.Client{c}, now)
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts for paused client, got %d", len(alerts))
	}
}

func TestDeriveBillingAlerts_LateClientAlwaysAlerts(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	for _, dueDay := range []int{1, 15, 31} {
		c := makeClient(db.StatusLate, dueDay)

		alerts := DeriveBillingAlerts([]*db.Client{c}, now)
		if len(alerts) != 1 {
			t.Fatalf("due day %d: expected 1 alert, got %d", dueDay, len(alerts))
		}
		if alerts[0].Title != TitleOverdue {
			t.Errorf("due day %d: expected title %q, got %q", dueDay, TitleOverdue, alerts[0].Title)
		}
		if alerts[0].Deletable {
			t.Error("billing alerts must not be deletable")
		}
	}
}

func TestDeriveBillingAlerts_ActiveDueWindow(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dueDay    int
		wantTitle string
		wantNone  bool
	}{
		{name: "due today", dueDay: 15, wantTitle: TitleDueToday},
		{name: "due tomorrow", dueDay: 16, wantTitle: TitleDueSoon},
		{name: "due yesterday", dueDay: 14, wantNone: true},
		{name: "far away", dueDay: 28, wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := makeClient(db.StatusActive, tt.dueDay)
			alerts := DeriveBillingAlerts([]*db.Client{c}, now)

			if tt.wantNone {
				if len(alerts) != 0 {
					t.Fatalf("expected no alerts, got %d", len(alerts))
				}
				return
			}

			if len(alerts) != 1 {
				t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
			}
			if alerts[0].Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, alerts[0].Title)
			}
			if !strings.Contains(alerts[0].Content, "Maria Souza") {
				t.Errorf("content should name the client, got %q", alerts[0].Content)
			}
			if !strings.Contains(alerts[0].Content, "R$ 99.90") {
				t.Errorf("content should carry the formatted value, got %q", alerts[0].Content)
			}
		})
	}
}

func TestDeriveBillingAlerts_MonthRollover(t *testing.T) {
	// March 31st: "tomorrow" is April 1st, so due day 1 fires as due soon.
	now := time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC)

	c := makeClient(db.StatusActive, 1)
	alerts := DeriveBillingAlerts([]*db.Client{c}, now)

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert on month rollover, got %d", len(alerts))
	}
	if alerts[0].Title != TitleDueSoon {
		t.Errorf("expected %q, got %q", TitleDueSoon, alerts[0].Title)
	}
}

func TestDeriveBillingAlerts_TrialWindow(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		createdAgo  time.Duration
		wantAlert   bool
		wantContent string
	}{
		{name: "6 days in", createdAgo: 6 * 24 * time.Hour, wantAlert: true, wantContent: "1 dias"},
		{name: "5 days in", createdAgo: 5 * 24 * time.Hour, wantAlert: true, wantContent: "2 dias"},
		{name: "exactly 7 days", createdAgo: 7 * 24 * time.Hour, wantAlert: true, wantContent: "encerra hoje"},
		{name: "9 days in, already expired", createdAgo: 9 * 24 * time.Hour, wantAlert: false},
		{name: "fresh trial", createdAgo: 24 * time.Hour, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := makeClient(db.StatusTesting, 28) // due day out of the way
			c.CreatedAt = now.Add(-tt.createdAgo)

			alerts := DeriveBillingAlerts([]*db.Client{c}, now)

			if !tt.wantAlert {
				if len(alerts) != 0 {
					t.Fatalf("expected no trial alert, got %d", len(alerts))
				}
				return
			}

			if len(alerts) != 1 {
				t.Fatalf("expected 1 trial alert, got %d", len(alerts))
			}
			if alerts[0].Title != TitleTrial {
				t.Errorf("expected title %q, got %q", TitleTrial, alerts[0].Title)
			}
			if !strings.Contains(alerts[0].Content, tt.wantContent) {
				t.Errorf("expected content containing %q, got %q", tt.wantContent, alerts[0].Content)
			}
		})
	}
}

func TestDeriveBillingAlerts_TrialUsesSaleDateWhenSet(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	c := makeClient(db.StatusTesting, 28)
	c.CreatedAt = now.Add(-30 * 24 * time.Hour) // created long ago
	sale := now.Add(-6 * 24 * time.Hour)        // but sold 6 days ago
	c.SaleDate = &sale

	alerts := DeriveBillingAlerts([]*db.Client{c}, now)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert keyed off sale date, got %d", len(alerts))
	}
	if alerts[0].Title != TitleTrial {
		t.Errorf("expected %q, got %q", TitleTrial, alerts[0].Title)
	}
}

func TestDeriveBillingAlerts_TestingClientCanHaveBothAlerts(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	c := makeClient(db.StatusTesting, 15) // due today
	c.CreatedAt = now.Add(-6 * 24 * time.Hour)

	alerts := DeriveBillingAlerts([]*db.Client{c}, now)
	if len(alerts) != 2 {
		t.Fatalf("expected due + trial alerts, got %d", len(alerts))
	}

	titles := map[string]bool{alerts[0].Title: true, alerts[1].Title: true}
	if !titles[TitleDueToday] || !titles[TitleTrial] {
		t.Errorf("expected %q and %q, got %v", TitleDueToday, TitleTrial, titles)
	}

	if alerts[0].ID == alerts[1].ID {
		t.Error("due and trial alerts must use distinct id namespaces")
	}
}

func TestDeriveBillingAlerts_AtMostOneBillingAlertPerClient(t *testing.T) {
	// An ACTIVE client can never match today and tomorrow at once.
	for day := 1; day <= 28; day++ {
		now := time.Date(2024, time.February, day, 10, 0, 0, 0, time.UTC)
		for due := 1; due <= 31; due++ {
			c := makeClient(db.StatusActive, due)
			if got := len(DeriveBillingAlerts([]*db.Client{c}, now)); got > 1 {
				t.Fatalf("day %d due %d: %d alerts in one pass", day, due, got)
			}
		}
	}
}
