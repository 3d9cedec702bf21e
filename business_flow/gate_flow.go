package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	"github.com/fangate/fangate/utils"
	"github.com/redis/go-redis/v9"
)

// GateViewFlow resolves a gate by its public slug and records a view event.
// Public flow, no authentication required. Returned gates go through the
// public projection only.
type GateViewFlow interface {
	View(ctx context.Context, slug string, metadata *ClientMetadata, attribution *Attribution) (*dto.PublicGateDTO, error)
}

type GateViewFlowImpl struct {
	gateRepo  repository.GateRepository
	analytics AnalyticsFlow
	cache     *redis.Client
	cacheTTL  time.Duration
}

func NewGateViewFlow(gateRepo repository.GateRepository, analytics AnalyticsFlow, cache *redis.Client) GateViewFlow {
	return &GateViewFlowImpl{
		gateRepo:  gateRepo,
		analytics: analytics,
		cache:     cache,
		cacheTTL:  utils.GateCacheTTL,
	}
}

func (f *GateViewFlowImpl) View(ctx context.Context, slug string, metadata *ClientMetadata, attribution *Attribution) (*dto.PublicGateDTO, error) {
	gate, err := f.lookupGate(ctx, slug)
	if err != nil {
		return nil, NewBusinessError("GATE_LOOKUP_FAILED", "Failed to lookup gate", err)
	}
	if gate == nil {
		return nil, ErrGateNotFound
	}

	// View events are recorded for inactive gates too; the funnel report
	// should show traffic arriving after expiry.
	f.analytics.Record(gate, models.EventTypeView, metadata, attribution)

	return ToPublicGateDTO(gate), nil
}

// lookupGate reads through the Redis cache when one is configured. Slugs are
// immutable so a short TTL only delays visibility of owner edits.
func (f *GateViewFlowImpl) lookupGate(ctx context.Context, slug string) (*models.Gate, error) {
	key := gateCacheKey(slug)

	if f.cache != nil {
		cached, err := f.cache.Get(ctx, key).Result()
		if err == nil {
			var gate models.Gate
			if jsonErr := json.Unmarshal([]byte(cached), &gate); jsonErr == nil {
				return &gate, nil
			}
		} else if err != redis.Nil {
			log.Printf("Gate cache read failed for %s: %v", slug, err)
		}
	}

	gate, err := f.gateRepo.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, nil
	}

	if f.cache != nil {
		if payload, err := json.Marshal(gate); err == nil {
			if err := f.cache.Set(ctx, key, payload, f.cacheTTL).Err(); err != nil {
				log.Printf("Gate cache write failed for %s: %v", slug, err)
			}
		}
	}

	return gate, nil
}

func gateCacheKey(slug string) string {
	return fmt.Sprintf("gate:slug:%s", slug)
}
