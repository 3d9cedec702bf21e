package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/repository"
	"github.com/fangate/fangate/utils"
)

// AnalyticsFlow is the append-only event recorder and its aggregate reader.
//
// Record is fire-and-forget: it detaches from the caller's request and never
// surfaces a failure to the funnel action that triggered it. An occasional
// dropped event is accepted over added latency; there is no retry queue.
type AnalyticsFlow interface {
	Record(gate *models.Gate, eventType string, metadata *ClientMetadata, attribution *Attribution)
	Aggregate(ctx context.Context, gate *models.Gate) (*dto.GateStatsDTO, error)
}

type AnalyticsFlowImpl struct {
	eventRepo     repository.AnalyticsEventRepository
	recordTimeout time.Duration
}

func NewAnalyticsFlow(eventRepo repository.AnalyticsEventRepository) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		eventRepo:     eventRepo,
		recordTimeout: 5 * time.Second,
	}
}

// Record appends one funnel event in a detached goroutine. The event carries
// whatever attribution was available; nothing is required.
func (f *AnalyticsFlowImpl) Record(gate *models.Gate, eventType string, metadata *ClientMetadata, attribution *Attribution) {
	event := &models.AnalyticsEvent{
		GateID:    gate.ID,
		EventType: eventType,
		Pixel:     gate.PixelConfig,
		CreatedAt: utils.UTCNow(),
	}
	if metadata != nil {
		event.IPAddress = utils.NilIfEmpty(metadata.IPAddress)
		event.UserAgent = utils.NilIfEmpty(metadata.UserAgent)
	}
	if attribution != nil {
		event.Referrer = utils.NilIfEmpty(attribution.Referrer)
		event.UtmSource = utils.NilIfEmpty(attribution.UtmSource)
		event.UtmMedium = utils.NilIfEmpty(attribution.UtmMedium)
		event.UtmCampaign = utils.NilIfEmpty(attribution.UtmCampaign)
	}

	// Detached from the request context: the funnel response must not wait on
	// or fail with the event write.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.recordTimeout)
		defer cancel()
		if err := f.eventRepo.Save(ctx, event); err != nil {
			log.Printf("Failed to record %s event for gate %d: %v", eventType, gate.ID, err)
		}
	}()
}

// Aggregate derives gate-level counters from the event log. Conversion is
// submissions over views; per-step rates are completions over submissions.
// Division by zero yields 0, not an error.
func (f *AnalyticsFlowImpl) Aggregate(ctx context.Context, gate *models.Gate) (*dto.GateStatsDTO, error) {
	counts, err := f.eventRepo.CountByType(ctx, gate.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_AGGREGATE_FAILED", "Failed to aggregate analytics events", err)
	}

	views := counts[models.EventTypeView]
	submissions := counts[models.EventTypeSubmit]
	downloads := counts[models.EventTypeDownload]

	stepTypes := []string{
		models.EventTypeSoundcloudRepost,
		models.EventTypeSoundcloudFollow,
		models.EventTypeInstagramClick,
		models.EventTypeSpotifyConnect,
	}

	stepCompletions := make(map[string]int64, len(stepTypes))
	stepRates := make(map[string]float64, len(stepTypes))
	for _, stepType := range stepTypes {
		completions := counts[stepType]
		stepCompletions[stepType] = completions
		stepRates[stepType] = ratio(completions, submissions)
	}

	return &dto.GateStatsDTO{
		GateUUID:        gate.UUID.String(),
		Views:           views,
		Submissions:     submissions,
		Downloads:       downloads,
		ConversionRate:  ratio(submissions, views),
		StepCompletions: stepCompletions,
		StepRates:       stepRates,
	}, nil
}

func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
