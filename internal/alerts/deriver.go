package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/gportela85/gestor/internal/db"
)

// TrialDuration is the fixed trial window measured from the sale date,
// or from the creation date when no sale date was recorded.
const TrialDuration = 7 * 24 * time.Hour

// Alert titles surfaced to the admin.
const (
	TitleOverdue  = "Cliente em Atraso"
	TitleDueToday = "Vencimento Hoje"
	TitleDueSoon  = "Vence Amanhã"
	TitleTrial    = "Teste Terminando"
)

// DeriveBillingAlerts computes the billing-origin notifications for a
// set of clients at the given instant.
//
// Per client: PAUSED clients are skipped entirely; LATE clients always
// produce one overdue alert regardless of due day; everyone else
// produces at most one alert, when the due day matches today or
// tomorrow. Tomorrow comes from real date arithmetic so month
// boundaries roll over correctly (due day 1 fires on the last day of
// the month).
//
// Independently, TESTING clients whose trial window ends within two
// days get a trial alert. A TESTING client can therefore carry both a
// due alert and a trial alert in the same pass.
func DeriveBillingAlerts(clients []*db.Client, now time.Time) []Notification {
	todayDay := now.Day()
	tomorrowDay := now.AddDate(0, 0, 1).Day()

	var out []Notification
	for _, c := range clients {
		if c.Status == db.StatusPaused {
			continue
		}

		switch {
		case c.Status == db.StatusLate:
			out = append(out, Notification{
				ID:    "client-" + c.ID.String(),
				Kind:  KindWarning,
				Title: TitleOverdue,
				Content: fmt.Sprintf("%s está com o pagamento de %s (R$ %.2f) em atraso.",
					c.Name, c.AppName, c.MonthlyValue),
				Timestamp: now,
			})

		case c.DueDay == todayDay:
			out = append(out, Notification{
				ID:    "client-" + c.ID.String(),
				Kind:  KindWarning,
				Title: TitleDueToday,
				Content: fmt.Sprintf("O pagamento de %s (%s, R$ %.2f) vence hoje.",
					c.Name, c.AppName, c.MonthlyValue),
				Timestamp: now,
			})

		case c.DueDay == tomorrowDay:
			out = append(out, Notification{
				ID:    "client-" + c.ID.String(),
				Kind:  KindWarning,
				Title: TitleDueSoon,
				Content: fmt.Sprintf("O pagamento de %s (%s, R$ %.2f) vence amanhã.",
					c.Name, c.AppName, c.MonthlyValue),
				Timestamp: now,
			})
		}

		if c.Status == db.StatusTesting {
			if n, ok := trialAlert(c, now); ok {
				out = append(out, n)
			}
		}
	}

	return out
}

// trialAlert returns the trial-expiry notification for a TESTING client,
// if its trial ends within the alert window (0 to 2 days from now).
// Expired trials are not clamped into the window; once daysRemaining
// goes negative the alert disappears.
func trialAlert(c *db.Client, now time.Time) (Notification, bool) {
	start := c.CreatedAt
	if c.SaleDate != nil {
		start = *c.SaleDate
	}

	trialEnd := start.Add(TrialDuration)
	daysRemaining := int(math.Ceil(trialEnd.Sub(now).Hours() / 24))

	if daysRemaining < 0 || daysRemaining > 2 {
		return Notification{}, false
	}

	var content string
	if daysRemaining == 0 {
		content = fmt.Sprintf("O período de teste de %s (%s) encerra hoje.", c.Name, c.AppName)
	} else {
		content = fmt.Sprintf("O período de teste de %s (%s) encerra em %d dias.", c.Name, c.AppName, daysRemaining)
	}

	return Notification{
		ID:        "trial-" + c.ID.String(),
		Kind:      KindWarning,
		Title:     TitleTrial,
		Content:   content,
		Timestamp: now,
	}, true
}
