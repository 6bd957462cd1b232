// Package pricehistory loads a user's purchase history and runs the price
// analytics over it for the HTTP API, the CLI and report exports.
package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrItemRequired is returned by ItemHistory when no item name is given.
var ErrItemRequired = errors.New("item is required")

// PurchaseRepository supplies validated purchase records for a user.
type PurchaseRepository interface {
	// ListPurchaseHistory returns the user's purchases dated on or after since.
	// A zero since returns the full history.
	ListPurchaseHistory(ctx context.Context, userID string, since civil.Date) ([]domain.PurchaseRecord, error)

	// ListItemHistory returns the user's purchases of one normalized item.
	ListItemHistory(ctx context.Context, userID, itemNormalized string) ([]domain.PurchaseRecord, error)
}

// Ranking sizes for the trends report.
const (
	RankingLimit      = 5
	FrequentMinCount  = 3
	FrequentItemLimit = 10
)

// Config holds defaults applied when callers leave options unset.
type Config struct {
	AlertThresholdPct float64
	AlertLookbackDays int
}

// Service runs price analytics over a repository.
type Service struct {
	repo  PurchaseRepository
	cfg   Config
	log   zerolog.Logger
	today func() civil.Date
}

// NewService creates a new price history service.
func NewService(repo PurchaseRepository, cfg Config, log zerolog.Logger) *Service {
	if cfg.AlertThresholdPct <= 0 {
		cfg.AlertThresholdPct = pricing.DefaultAlertThreshold
	}
	if cfg.AlertLookbackDays <= 0 {
		cfg.AlertLookbackDays = pricing.ShortWindowDays
	}
	return &Service{
		repo:  repo,
		cfg:   cfg,
		log:   log,
		today: pricing.Today,
	}
}

// TrendsOptions tunes Trends.
type TrendsOptions struct {
	Period domain.ChangePeriod
	AsOf   civil.Date
}

// TrendsReport is every item trend plus the rankings derived from them.
type TrendsReport struct {
	AsOf             civil.Date          `json:"as_of"`
	Period           domain.ChangePeriod `json:"period"`
	Trends           []domain.PriceTrend `json:"trends"`
	BiggestIncreases []domain.PriceTrend `json:"biggest_increases"`
	BiggestDecreases []domain.PriceTrend `json:"biggest_decreases"`
	FrequentItems    []domain.PriceTrend `json:"frequent_items"`
	SkippedRecords   int                 `json:"skipped_records,omitempty"`
}

// Trends computes one trend per item the user has bought.
func (s *Service) Trends(ctx context.Context, userID string, opts TrendsOptions) (*TrendsReport, error) {
	asOf := s.asOf(opts.AsOf)
	period := opts.Period
	if period == "" {
		period = domain.Period30d
	}

	records, err := s.repo.ListPurchaseHistory(ctx, userID, civil.Date{})
	if err != nil {
		return nil, fmt.Errorf("Service.Trends: list history: %w", err)
	}

	trends := pricing.CalculateTrends(pricing.GroupByItem(records), asOf)

	report := &TrendsReport{
		AsOf:             asOf,
		Period:           period,
		Trends:           trends,
		BiggestIncreases: pricing.FindBiggestIncreases(trends, period, RankingLimit),
		BiggestDecreases: pricing.FindBiggestDecreases(trends, period, RankingLimit),
		FrequentItems:    pricing.FindFrequentItems(trends, FrequentMinCount, FrequentItemLimit),
	}
	for _, t := range trends {
		report.SkippedRecords += t.SkippedRecords
	}

	s.log.Debug().
		Str("user_id", userID).
		Int("records", len(records)).
		Int("trends", len(trends)).
		Msg("Computed price trends")

	return report, nil
}

// AlertOptions tunes Alerts. Zero values take the service defaults.
type AlertOptions struct {
	ThresholdPct float64
	LookbackDays int
	AsOf         civil.Date
}

// Alerts checks the user's recent purchases against the purchases made before
// the lookback window. A purchase is recent when it is dated within
// LookbackDays of AsOf.
func (s *Service) Alerts(ctx context.Context, userID string, opts AlertOptions) ([]domain.PriceAlert, error) {
	asOf := s.asOf(opts.AsOf)
	threshold := opts.ThresholdPct
	if threshold <= 0 {
		threshold = s.cfg.AlertThresholdPct
	}
	days := opts.LookbackDays
	if days <= 0 {
		days = s.cfg.AlertLookbackDays
	}

	records, err := s.repo.ListPurchaseHistory(ctx, userID, civil.Date{})
	if err != nil {
		return nil, fmt.Errorf("Service.Alerts: list history: %w", err)
	}

	recent, prior := SplitRecent(records, asOf.AddDays(-days))
	alerts := pricing.GeneratePriceAlerts(ObservedItems(recent), pricing.GroupByItem(prior), threshold)

	s.log.Debug().
		Str("user_id", userID).
		Int("recent", len(recent)).
		Int("prior", len(prior)).
		Int("alerts", len(alerts)).
		Msg("Generated price alerts")

	return alerts, nil
}

// ItemHistoryReport is the drill-down view of one item.
type ItemHistoryReport struct {
	Item       string                  `json:"item"`
	History    []domain.PurchaseRecord `json:"history"`
	Trend      *domain.PriceTrend      `json:"trend"`
	TotalSpent float64                 `json:"total_spent"`
	BestPrice  *domain.BestPrice       `json:"best_price"`
}

// ItemHistory returns the purchases of one item, newest first, with its summary figures.
func (s *Service) ItemHistory(ctx context.Context, userID, item string) (*ItemHistoryReport, error) {
	key := pricing.NormalizeItemName(item)
	if key == "" {
		return nil, ErrItemRequired
	}

	records, err := s.repo.ListItemHistory(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("Service.ItemHistory: list item history: %w", err)
	}

	history := make([]domain.PurchaseRecord, len(records))
	copy(history, records)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].PurchaseDate.After(history[j].PurchaseDate)
	})

	report := &ItemHistoryReport{
		Item:       key,
		History:    history,
		TotalSpent: pricing.CalculateTotalSpent(history),
	}
	if trend, ok := pricing.CalculatePriceTrend(history, s.today()); ok {
		report.Trend = &trend
	}
	if best, ok := pricing.FindBestPrice(history); ok {
		report.BestPrice = &best
	}
	return report, nil
}

// OverviewOptions combines trends and alert options.
type OverviewOptions struct {
	Trends TrendsOptions
	Alerts AlertOptions
}

// Overview is the trends report together with current alerts.
type Overview struct {
	*TrendsReport
	Alerts []domain.PriceAlert `json:"alerts"`
}

// Overview runs Trends and Alerts concurrently.
func (s *Service) Overview(ctx context.Context, userID string, opts OverviewOptions) (*Overview, error) {
	g, ctx := errgroup.WithContext(ctx)

	var (
		report *TrendsReport
		alerts []domain.PriceAlert
	)
	g.Go(func() error {
		var err error
		report, err = s.Trends(ctx, userID, opts.Trends)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.Alerts(ctx, userID, opts.Alerts)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Service.Overview: %w", err)
	}
	return &Overview{TrendsReport: report, Alerts: alerts}, nil
}

func (s *Service) asOf(d civil.Date) civil.Date {
	if d.IsValid() {
		return d
	}
	return s.today()
}

// SplitRecent partitions records into those dated after cutoff and the rest.
func SplitRecent(records []domain.PurchaseRecord, cutoff civil.Date) (recent, prior []domain.PurchaseRecord) {
	for _, r := range records {
		if r.PurchaseDate.After(cutoff) {
			recent = append(recent, r)
		} else {
			prior = append(prior, r)
		}
	}
	return recent, prior
}

// ObservedItems converts purchase records into alert inputs.
func ObservedItems(records []domain.PurchaseRecord) []domain.ObservedItem {
	items := make([]domain.ObservedItem, 0, len(records))
	for _, r := range records {
		// Alert lookup normalizes the display name, so fall back to the
		// stored key when the two disagree.
		name := r.ItemName
		if key := pricing.NormalizeItemName(r.ItemNameNormalized); key != "" && pricing.NormalizeItemName(name) != key {
			name = r.ItemNameNormalized
		}
		items = append(items, domain.ObservedItem{
			ItemName:     name,
			UnitPrice:    r.UnitPrice,
			Vendor:       r.Vendor,
			PurchaseDate: r.PurchaseDate,
			LineItemID:   r.LineItemID,
		})
	}
	return items
}
