package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/models"
)

// AnalyticsFilters narrows analytics queries. Zero values mean "no filter";
// Month without Year applies to the current year.
type AnalyticsFilters struct {
	BranchID string
	RegionID string
	Year     int
	Month    int
}

// BranchShiftCount is one row of the shifts-by-branch report.
type BranchShiftCount struct {
	BranchID   string `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Count      int64  `json:"count"`
}

// TimelineBucket aggregates one day's shifts by status.
type TimelineBucket struct {
	Day     string `json:"day"`
	Open    int64  `json:"open"`
	Claimed int64  `json:"claimed"`
	Filled  int64  `json:"filled"`
	Closed  int64  `json:"closed"`
}

// AnalyticsOption customises AnalyticsService behaviour.
type AnalyticsOption func(*AnalyticsService)

// WithAnalyticsClock injects a custom clock primarily for testing.
func WithAnalyticsClock(clock func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AnalyticsService answers read-only reporting queries. Every query starts
// from the actor's shift visibility scope, so reports never leak shifts the
// caller could not list directly.
type AnalyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *gorm.DB, opts ...AnalyticsOption) (*AnalyticsService, error) {
	if db == nil {
		return nil, errors.New("analytics service: db is required")
	}

	service := &AnalyticsService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ShiftsByBranch counts open shifts per branch within the actor's scope.
func (s *AnalyticsService) ShiftsByBranch(ctx context.Context, actor authz.Actor, filters AnalyticsFilters) ([]BranchShiftCount, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Shift{}).
		Scopes(authz.ShiftsFor(actor)).
		Joins("JOIN branches ON branches.id = shifts.branch_id").
		Where("shifts.status = ?", models.ShiftOpen).
		Select("branches.id AS branch_id, branches.name AS branch_name, COUNT(shifts.id) AS count").
		Group("branches.id, branches.name").
		Order("branches.name ASC")

	query = s.applyFilters(query, filters)

	var counts []BranchShiftCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("analytics service: shifts by branch: %w", err)
	}
	return counts, nil
}

// Timeline returns per-day shift counts by status within the actor's scope.
func (s *AnalyticsService) Timeline(ctx context.Context, actor authz.Actor, filters AnalyticsFilters) ([]TimelineBucket, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Shift{}).
		Scopes(authz.ShiftsFor(actor)).
		Select(`DATE(shifts.start_time) AS day,
			SUM(CASE WHEN shifts.status = 'open' THEN 1 ELSE 0 END) AS open,
			SUM(CASE WHEN shifts.status = 'claimed' THEN 1 ELSE 0 END) AS claimed,
			SUM(CASE WHEN shifts.status = 'filled' THEN 1 ELSE 0 END) AS filled,
			SUM(CASE WHEN shifts.status = 'closed' THEN 1 ELSE 0 END) AS closed`).
		Group("DATE(shifts.start_time)").
		Order("day ASC")

	query = s.applyFilters(query, filters)

	var buckets []TimelineBucket
	if err := query.Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("analytics service: timeline: %w", err)
	}
	return buckets, nil
}

func (s *AnalyticsService) applyFilters(query *gorm.DB, filters AnalyticsFilters) *gorm.DB {
	if filters.BranchID != "" {
		query = query.Where("shifts.branch_id = ?", filters.BranchID)
	}
	if filters.RegionID != "" {
		query = query.Where("shifts.branch_id IN (?)",
			s.db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Branch{}).Select("id").Where("region_id = ?", filters.RegionID))
	}

	if from, to, ok := s.timeRange(filters); ok {
		query = query.Where("shifts.start_time >= ? AND shifts.start_time < ?", from, to)
	}
	return query
}

// timeRange converts year/month filters into a half-open UTC interval. The
// range is computed in Go so the SQL stays portable across drivers.
func (s *AnalyticsService) timeRange(filters AnalyticsFilters) (time.Time, time.Time, bool) {
	year := filters.Year
	if year == 0 && filters.Month == 0 {
		return time.Time{}, time.Time{}, false
	}
	if year == 0 {
		year = s.now().UTC().Year()
	}

	if filters.Month != 0 {
		from := time.Date(year, time.Month(filters.Month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}
