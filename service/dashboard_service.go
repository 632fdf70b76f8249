package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	model "github.com/caseboard/caseboard/models"

	"gorm.io/gorm"
)

// DashboardService owns the filter/query side of the dashboard: filtered
// legal-action reads, the dropdown option sets and the chart aggregates.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ActionFilter is the caller's current filter state. Zero values impose no
// constraint; all supplied filters combine with AND semantics.
type ActionFilter struct {
	CompanyID  string
	IndustryID string
	Status     string
	From       *time.Time
	To         *time.Time
}

// ActionRow is a legal action joined with its company and industry names,
// shaped for the results table.
type ActionRow struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"company_id"`
	CompanyName        string    `json:"company_name"`
	IndustryID         string    `json:"industry_id"`
	IndustryName       string    `json:"industry_name"`
	IndustryCode       string    `json:"industry_code"`
	ActionType         string    `json:"action_type"`
	Title              string    `json:"title"`
	Status             string    `json:"status"`
	Date               time.Time `json:"date"`
	SettlementAmount   float64   `json:"settlement_amount"`
	SettlementCurrency string    `json:"settlement_currency"`
}

type CompanyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type IndustryOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// FilterOptions holds the distinct values the filter controls are populated
// from, as stored at query time.
type FilterOptions struct {
	Companies  []CompanyOption  `json:"companies"`
	Industries []IndustryOption `json:"industries"`
	Statuses   []string         `json:"statuses"`
}

type IndustryCount struct {
	IndustryID   string `json:"industry_id"`
	IndustryName string `json:"industry_name"`
	Count        int64  `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// ActionSummary carries the aggregates the chart renders from.
type ActionSummary struct {
	Total      int64           `json:"total"`
	ByIndustry []IndustryCount `json:"by_industry"`
	ByMonth    []MonthCount    `json:"by_month"`
}

// filtered applies the filter's constraints to a legal_actions query.
// Absent dimensions add no clause, so an empty filter is return-all.
func (s *DashboardService) filtered(f ActionFilter) *gorm.DB {
	q := s.db.Table("legal_actions")
	if f.CompanyID != "" {
		q = q.Where("legal_actions.company_id = ?", f.CompanyID)
	}
	if f.IndustryID != "" {
		q = q.Where("legal_actions.industry_id = ?", f.IndustryID)
	}
	if f.Status != "" {
		q = q.Where("legal_actions.status = ?", f.Status)
	}
	// Range boundaries are inclusive on both ends.
	if f.From != nil {
		q = q.Where("legal_actions.date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("legal_actions.date <= ?", *f.To)
	}
	return q
}

// GetLegalActions returns the actions satisfying the filter, joined with
// company and industry names, newest first. An empty result is normal.
func (s *DashboardService) GetLegalActions(f ActionFilter) ([]ActionRow, error) {
	var rows []ActionRow
	err := s.filtered(f).
		Select("legal_actions.id, legal_actions.company_id, companies.name AS company_name, " +
			"legal_actions.industry_id, industries.name AS industry_name, industries.code AS industry_code, " +
			"legal_actions.action_type, legal_actions.title, legal_actions.status, legal_actions.date, " +
			"legal_actions.settlement_amount, legal_actions.settlement_currency").
		Joins("JOIN companies ON companies.id = legal_actions.company_id").
		Joins("JOIN industries ON industries.id = legal_actions.industry_id").
		Order("legal_actions.date DESC").
		Scan(&rows).Error
	if err != nil {
		log.Printf("[GetLegalActions] Database query error: %v", err)
		return nil, fmt.Errorf("failed to fetch legal actions: %w", err)
	}
	if rows == nil {
		rows = []ActionRow{}
	}
	log.Printf("[GetLegalActions] Retrieved %d actions", len(rows))
	return rows, nil
}

// GetFilterOptions returns the companies, industries and status values the
// filter controls offer. Always reads storage; the controls must reflect
// what is actually stored at query time.
func (s *DashboardService) GetFilterOptions() (*FilterOptions, error) {
	opts := &FilterOptions{
		Companies:  []CompanyOption{},
		Industries: []IndustryOption{},
		Statuses:   []string{},
	}

	if err := s.db.Model(&model.Company{}).Select("id, name").Order("name").Scan(&opts.Companies).Error; err != nil {
		log.Printf("[GetFilterOptions] Error fetching companies: %v", err)
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	if err := s.db.Model(&model.Industry{}).Select("id, name, code").Order("name").Scan(&opts.Industries).Error; err != nil {
		log.Printf("[GetFilterOptions] Error fetching industries: %v", err)
		return nil, fmt.Errorf("failed to fetch industries: %w", err)
	}
	if err := s.db.Model(&model.LegalAction{}).Distinct("status").Order("status").Pluck("status", &opts.Statuses).Error; err != nil {
		log.Printf("[GetFilterOptions] Error fetching statuses: %v", err)
		return nil, fmt.Errorf("failed to fetch statuses: %w", err)
	}

	return opts, nil
}

// GetSummary computes the chart aggregates for the same filter state the
// table uses: total count, count per industry and count per month.
func (s *DashboardService) GetSummary(f ActionFilter) (*ActionSummary, error) {
	summary := &ActionSummary{
		ByIndustry: []IndustryCount{},
		ByMonth:    []MonthCount{},
	}

	if err := s.filtered(f).Count(&summary.Total).Error; err != nil {
		log.Printf("[GetSummary] Error counting actions: %v", err)
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}

	if err := s.filtered(f).
		Select("legal_actions.industry_id, industries.name AS industry_name, COUNT(*) AS count").
		Joins("JOIN industries ON industries.id = legal_actions.industry_id").
		Group("legal_actions.industry_id, industries.name").
		Order("industries.name").
		Scan(&summary.ByIndustry).Error; err != nil {
		log.Printf("[GetSummary] Error aggregating by industry: %v", err)
		return nil, fmt.Errorf("failed to aggregate by industry: %w", err)
	}

	// Month bucketing happens here rather than in SQL so the query stays
	// portable between the Postgres deployment and the test database.
	var dates []time.Time
	if err := s.filtered(f).Order("legal_actions.date").Pluck("legal_actions.date", &dates).Error; err != nil {
		log.Printf("[GetSummary] Error fetching dates: %v", err)
		return nil, fmt.Errorf("failed to fetch action dates: %w", err)
	}
	buckets := make(map[string]int64)
	for _, d := range dates {
		buckets[d.UTC().Format("2006-01")]++
	}
	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		summary.ByMonth = append(summary.ByMonth, MonthCount{Month: m, Count: buckets[m]})
	}

	log.Printf("[GetSummary] Total=%d, industries=%d, months=%d", summary.Total, len(summary.ByIndustry), len(summary.ByMonth))
	return summary, nil
}
