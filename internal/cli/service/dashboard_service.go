package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"DocPlatform/internal/cli/model"
)

// DashboardService собирает счётчики главной страницы.
type DashboardService interface {
	Metrics(ctx context.Context) (model.DashboardMetrics, error)
}

type dashboardService struct {
	api APIClient
}

func NewDashboardService(client APIClient) DashboardService {
	return &dashboardService{api: client}
}

type counter struct {
	path string
	key  string
	dst  *int
}

// Metrics запрашивает четыре счётчика параллельно. Первая ошибка отменяет
// остальные запросы.
func (s *dashboardService) Metrics(ctx context.Context) (model.DashboardMetrics, error) {
	var m model.DashboardMetrics
	counters := []counter{
		{path: "/chatbot/session/", key: "sessions_count", dst: &m.ChatbotSessions},
		{path: "/reports/report_count", key: "report_count", dst: &m.ReportsGenerated},
		{path: "/companies/company_count/", key: "company_count", dst: &m.CompaniesOnboarded},
		{path: "/assets/analysiscount/", key: "asset_count", dst: &m.AssetAnalysisCount},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counters {
		c := c
		g.Go(func() error {
			var raw json.RawMessage
			if err := s.api.GetJSON(gctx, c.path, &raw); err != nil {
				return fmt.Errorf("%s: %w", c.key, err)
			}
			n, err := countFrom(raw, c.key)
			if err != nil {
				return fmt.Errorf("%s: %w", c.key, err)
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.DashboardMetrics{}, err
	}
	return m, nil
}

// countFrom читает key из {data:{key:n}} или {key:n}; отсутствие ключа — 0.
func countFrom(body []byte, key string) (int, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(unwrapData(body), &fields); err != nil {
		return 0, err
	}
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, fmt.Errorf("not a number: %s", v)
	}
	return int(math.Round(f)), nil
}
