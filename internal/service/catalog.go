package service

import (
	"context"
	"strings"

	"github.com/GoPolymarket/polydesk/internal/catalog"
)

type CatalogService struct {
	agg *catalog.Aggregator
}

func NewCatalogService(agg *catalog.Aggregator) *CatalogService {
	return &CatalogService{agg: agg}
}

// EventFilter narrows the aggregated list after scoring.
type EventFilter struct {
	Category string
	Limit    int
}

func (s *CatalogService) Events(ctx context.Context, f EventFilter) (*catalog.Result, error) {
	res, err := s.agg.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	if f.Category != "" {
		kept := res.Events[:0]
		for _, ev := range res.Events {
			if strings.EqualFold(ev.Category, f.Category) {
				kept = append(kept, ev)
			}
		}
		res.Events = kept
	}
	if f.Limit > 0 && len(res.Events) > f.Limit {
		res.Events = res.Events[:f.Limit]
	}
	return res, nil
}
