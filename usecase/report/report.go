package report

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/usecase"
)

// Financial record categories.
const (
	CategoryBudget  = "budget"
	CategoryInvoice = "invoice"
	CategoryRevenue = "revenue"
	CategoryExpense = "expense"
)

// Summary aggregates the portal's collections for the dashboard.
type Summary struct {
	Projects         Breakdown `json:"projects"`
	Tasks            Breakdown `json:"tasks"`
	Leads            Breakdown `json:"leads"`
	LeadConversion   float64   `json:"lead_conversion_rate"`
	ActiveTeams      int       `json:"active_teams"`
	TeamMembers      int       `json:"team_members"`
	UpcomingEvents   int       `json:"upcoming_events"`
	TrackedHours     float64   `json:"tracked_hours"`
	Revenue          float64   `json:"revenue"`
	Expenses         float64   `json:"expenses"`
	Balance          float64   `json:"balance"`
	OutstandingBills float64   `json:"outstanding_invoices"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Breakdown counts a collection by its status field.
type Breakdown struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type UseCase struct {
	stores usecase.Collections
	logger *zap.Logger
	now    func() time.Time
}

func New(stores usecase.Collections, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		stores: stores,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Summary reloads every collection it reports on.
func (uc *UseCase) Summary(ctx context.Context) Summary {
	now := uc.now()
	load := func(kind domain.Kind) []domain.Entity {
		return uc.stores.Store(kind, "").Load(ctx)
	}

	leads := load(domain.Lead)
	s := Summary{
		Projects:    breakdown(load(domain.Project)),
		Tasks:       breakdown(load(domain.Task)),
		Leads:       breakdown(leads),
		TeamMembers: len(load(domain.TeamMember)),
		GeneratedAt: now,
	}
	if s.Leads.Total > 0 {
		s.LeadConversion = round2(float64(s.Leads.ByStatus["converted"]) / float64(s.Leads.Total) * 100)
	}

	for _, team := range load(domain.Team) {
		if active, ok := team.Fields["active"].(bool); !ok || active {
			s.ActiveTeams++
		}
	}

	for _, ev := range load(domain.CalendarEvent) {
		if start, err := time.Parse(time.RFC3339, ev.Fields.String("start")); err == nil && start.After(now) {
			s.UpcomingEvents++
		}
	}

	minutes := 0.0
	for _, rec := range load(domain.TimeRecord) {
		minutes += rec.Fields.Float("duration_minutes")
	}
	s.TrackedHours = round2(minutes / 60)

	for _, rec := range load(domain.FinancialRecord) {
		amount := rec.Fields.Float("amount")
		switch rec.Fields.String("category") {
		case CategoryRevenue:
			s.Revenue += amount
		case CategoryExpense:
			s.Expenses += amount
		case CategoryInvoice:
			s.OutstandingBills += amount - rec.Fields.Float("amount_paid")
		}
	}
	s.Revenue = round2(s.Revenue)
	s.Expenses = round2(s.Expenses)
	s.OutstandingBills = round2(s.OutstandingBills)
	s.Balance = round2(s.Revenue - s.Expenses)

	uc.logger.Debug("report summary built", zap.Int("projects", s.Projects.Total), zap.Int("leads", s.Leads.Total))
	return s
}

func breakdown(items []domain.Entity) Breakdown {
	b := Breakdown{Total: len(items), ByStatus: map[string]int{}}
	for _, e := range items {
		status := e.Fields.String("status")
		if status == "" {
			status = "unknown"
		}
		b.ByStatus[status]++
	}
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
