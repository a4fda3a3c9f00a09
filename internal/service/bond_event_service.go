package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"
	"github.com/yourorg/moex-data-service/internal/normalize"

	"go.uber.org/zap"
)

// bondEventCacheTTL is how long a cached bondization payload is served
// without refetching
const bondEventCacheTTL = 24 * time.Hour

type bondizationFetcher interface {
	GetBondization(ctx context.Context, secid string) (*model.BondizationResponse, error)
}

type bondEventCache interface {
	Get(ctx context.Context, secid string) (*model.BondPaymentsCacheEntry, error)
	Put(ctx context.Context, secid string, payload []byte) error
}

// BondEventService serves per-bond payment schedules (coupons, offers,
// amortizations) through a TTL cache. A stale cached payload is preferred
// over a failed refetch.
type BondEventService struct {
	fetcher bondizationFetcher
	cache   bondEventCache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewBondEventService creates a new bond payment-schedule service
func NewBondEventService(fetcher bondizationFetcher, cache bondEventCache, logger *zap.Logger) *BondEventService {
	return &BondEventService{
		fetcher: fetcher,
		cache:   cache,
		ttl:     bondEventCacheTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// GetPayments returns the payment schedule for one bond, refreshing the
// cache entry when it is absent or older than the TTL
func (s *BondEventService) GetPayments(ctx context.Context, secid string) ([]model.BondEvent, error) {
	entry, err := s.cache.Get(ctx, secid)
	if err != nil {
		s.logger.Error("Failed to read bond payments cache",
			zap.String("secid", secid),
			zap.Error(err))
		return nil, err
	}

	if entry != nil && s.now().Sub(entry.UpdatedAt) <= s.ttl {
		return s.decode(entry.Payload)
	}

	resp, fetchErr := s.fetcher.GetBondization(ctx, secid)
	if fetchErr != nil {
		if entry != nil {
			s.logger.Warn("Bondization fetch failed, serving stale cache",
				zap.String("secid", secid),
				zap.Time("cached_at", entry.UpdatedAt),
				zap.Error(fetchErr))
			return s.decode(entry.Payload)
		}
		s.logger.Error("Bondization fetch failed with no cached fallback",
			zap.String("secid", secid),
			zap.Error(fetchErr))
		return nil, fetchErr
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, secid, payload); err != nil {
		// serve the fresh response anyway, next request retries the write
		s.logger.Error("Failed to update bond payments cache",
			zap.String("secid", secid),
			zap.Error(err))
	}

	return normalize.BondEvents(resp), nil
}

func (s *BondEventService) decode(payload []byte) ([]model.BondEvent, error) {
	var resp model.BondizationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	return normalize.BondEvents(&resp), nil
}
