package service

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"feeledger/internal/models"
	"feeledger/internal/pricing"
	"feeledger/internal/repository"
)

const trendDays = 7

// AnalyticsStore is the read surface the aggregator scans.
type AnalyticsStore interface {
	ListLedger(ctx context.Context, filter repository.LedgerFilter) ([]models.LedgerEntry, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// CollegeStats aggregates collections per college group.
type CollegeStats struct {
	Amount       decimal.Decimal `json:"amount"`
	StudentCount int             `json:"student_count"`
}

// StaffStats aggregates collections per operator.
type StaffStats struct {
	Name             string          `json:"name"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionCount int             `json:"transaction_count"`
}

// TrendPoint is one calendar day in the trailing trend.
type TrendPoint struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// AnalyticsSnapshot is the full rollup returned to callers.
type AnalyticsSnapshot struct {
	TotalCollections decimal.Decimal         `json:"total_collections"`
	TodayCollections decimal.Decimal         `json:"today_collections"`
	TotalStudents    int                     `json:"total_students"`
	FullyPaid        int                     `json:"fully_paid"`
	PartialPaid      int                     `json:"partial_paid"`
	PackageBreakdown map[string]int          `json:"package_breakdown"`
	CollegeBreakdown map[string]CollegeStats `json:"college_breakdown"`
	StaffBreakdown   map[string]StaffStats   `json:"staff_breakdown"`
	DailyTrend       []TrendPoint            `json:"daily_trend"`
}

// AnalyticsService derives read-only rollups from the ledger. Every snapshot
// is computed fresh from the authoritative store; no counter survives between
// requests.
type AnalyticsService struct {
	store    AnalyticsStore
	location *time.Location
	now      func() time.Time
}

// NewAnalyticsService builds the aggregator. Calendar-day bucketing uses the
// given location.
func NewAnalyticsService(store AnalyticsStore, location *time.Location) *AnalyticsService {
	if location == nil {
		location = time.UTC
	}
	return &AnalyticsService{
		store:    store,
		location: location,
		now:      time.Now,
	}
}

// Snapshot scans the non-voided transaction set and the student set and
// returns the aggregate view.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*AnalyticsSnapshot, error) {
	entries, err := s.store.ListLedger(ctx, repository.LedgerFilter{})
	if err != nil {
		return nil, err
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)

	snapshot := &AnalyticsSnapshot{
		TotalCollections: decimal.Zero,
		TodayCollections: decimal.Zero,
		TotalStudents:    len(students),
		PackageBreakdown: make(map[string]int),
		CollegeBreakdown: make(map[string]CollegeStats),
		StaffBreakdown:   make(map[string]StaffStats),
	}

	for _, pkg := range pricing.Packages() {
		snapshot.PackageBreakdown[pkg] = 0
	}
	for _, college := range reportedColleges {
		snapshot.CollegeBreakdown[college] = CollegeStats{Amount: decimal.Zero}
	}

	for _, student := range students {
		switch student.PaymentStatus {
		case models.StatusFullyPaid:
			snapshot.FullyPaid++
		case models.StatusPartial:
			snapshot.PartialPaid++
		}
	}

	paidStudents := make(map[string]map[string]struct{})
	trendTotals := make([]decimal.Decimal, trendDays)
	for i := range trendTotals {
		trendTotals[i] = decimal.Zero
	}

	for _, entry := range entries {
		snapshot.TotalCollections = snapshot.TotalCollections.Add(entry.Amount)

		created := entry.CreatedAt.In(s.location)
		if !created.Before(today) {
			snapshot.TodayCollections = snapshot.TodayCollections.Add(entry.Amount)
		}

		snapshot.PackageBreakdown[entry.PackageSnapshot]++

		group := collegeGroup(entry.College)
		if stats, ok := snapshot.CollegeBreakdown[group]; ok {
			stats.Amount = stats.Amount.Add(entry.Amount)
			snapshot.CollegeBreakdown[group] = stats
			if paidStudents[group] == nil {
				paidStudents[group] = make(map[string]struct{})
			}
			paidStudents[group][entry.StudentID] = struct{}{}
		}

		staffName := entry.StaffName
		if staffName == "" {
			staffName = "Unknown Staff"
		}
		staffStats := snapshot.StaffBreakdown[staffName]
		if staffStats.Name == "" {
			staffStats.Name = staffName
			staffStats.Amount = decimal.Zero
		}
		staffStats.Amount = staffStats.Amount.Add(entry.Amount)
		staffStats.TransactionCount++
		snapshot.StaffBreakdown[staffName] = staffStats

		// Bucket into the trailing trend window by calendar day.
		day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, s.location)
		offset := daysBetween(day, today)
		if offset >= 0 && offset < trendDays {
			idx := trendDays - 1 - offset
			trendTotals[idx] = trendTotals[idx].Add(entry.Amount)
		}
	}

	for group, members := range paidStudents {
		stats := snapshot.CollegeBreakdown[group]
		stats.StudentCount = len(members)
		snapshot.CollegeBreakdown[group] = stats
	}

	snapshot.DailyTrend = make([]TrendPoint, trendDays)
	for i := 0; i < trendDays; i++ {
		day := today.AddDate(0, 0, i-(trendDays-1))
		snapshot.DailyTrend[i] = TrendPoint{
			Date:   day.Format("Mon, Jan 2"),
			Amount: trendTotals[i],
		}
	}

	return snapshot, nil
}

// daysBetween counts calendar days from a to b, both taken at local midnight.
// Rounding absorbs DST transitions, where a calendar day is not 24 hours.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
