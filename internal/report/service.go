package report

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/retail-pos/internal/outcome"
)

const (
	MsgDashboardFailed = "Failed to load dashboard data"
	MsgDashboardReady  = "Dashboard loaded"
)

type Dashboard struct {
	Summary        Summary        `json:"summary"`
	TopProducts    []TopProduct   `json:"top_products"`
	MonthlyRevenue []MonthRevenue `json:"monthly_revenue"`
}

func emptyDashboard() Dashboard {
	return Dashboard{
		TopProducts:    []TopProduct{},
		MonthlyRevenue: []MonthRevenue{},
	}
}

type Service struct {
	reader Reader
	topN   int
}

func NewService(reader Reader, topN int) *Service {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{reader: reader, topN: topN}
}

// Dashboard never fails hard: a read error yields an empty dashboard and a
// store-error outcome.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, outcome.Outcome) {
	orders, err := s.reader.PaidOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("report: failed to fetch paid orders")
		return emptyDashboard(), outcome.Store(MsgDashboardFailed, err.Error())
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; !ok {
				seen[it.ProductID] = struct{}{}
				ids = append(ids, it.ProductID)
			}
		}
	}

	names, err := s.reader.ProductNames(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("report: failed to fetch product names")
		return emptyDashboard(), outcome.Store(MsgDashboardFailed, err.Error())
	}

	products, orderCount, err := s.reader.Counts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("report: failed to fetch counts")
		return emptyDashboard(), outcome.Store(MsgDashboardFailed, err.Error())
	}

	d := Dashboard{
		Summary:        Summarize(orders, products, orderCount),
		TopProducts:    TopProducts(orders, names, s.topN),
		MonthlyRevenue: MonthlyRevenue(orders),
	}
	log.Debug().
		Int("paid_orders", len(orders)).
		Int("top_products", len(d.TopProducts)).
		Int("months", len(d.MonthlyRevenue)).
		Msg("report: dashboard computed")

	return d, outcome.Info(MsgDashboardReady)
}
