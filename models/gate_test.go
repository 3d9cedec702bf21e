package models

import (
	"testing"
	"time"

	"github.com/fangate/fangate/utils"
	"github.com/stretchr/testify/assert"
)

func TestGateIsLive(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ActiveGateWithoutLimitsIsLive", func(t *testing.T) {
		gate := &Gate{IsActive: utils.ToPtr(true)}
		assert.True(t, gate.IsLive(now))
	})

	t.Run("DeactivatedGateIsNotLive", func(t *testing.T) {
		gate := &Gate{IsActive: utils.ToPtr(false)}
		assert.False(t, gate.IsLive(now))
	})

	t.Run("NilActiveFlagIsNotLive", func(t *testing.T) {
		gate := &Gate{}
		assert.False(t, gate.IsLive(now))
	})

	t.Run("FutureExpiryIsLive", func(t *testing.T) {
		gate := &Gate{
			IsActive:  utils.ToPtr(true),
			ExpiresAt: utils.ToPtr(now.Add(time.Hour)),
		}
		assert.True(t, gate.IsLive(now))
	})

	t.Run("PastExpiryIsNotLive", func(t *testing.T) {
		gate := &Gate{
			IsActive:  utils.ToPtr(true),
			ExpiresAt: utils.ToPtr(now.Add(-time.Minute)),
		}
		assert.False(t, gate.IsLive(now))
	})

	t.Run("ExpiryAtExactInstantIsNotLive", func(t *testing.T) {
		gate := &Gate{
			IsActive:  utils.ToPtr(true),
			ExpiresAt: utils.ToPtr(now),
		}
		assert.False(t, gate.IsLive(now))
	})

	t.Run("DownloadCapReachedIsNotLive", func(t *testing.T) {
		gate := &Gate{
			IsActive:      utils.ToPtr(true),
			MaxDownloads:  utils.ToPtr(100),
			DownloadCount: 100,
		}
		assert.False(t, gate.IsLive(now))
	})

	t.Run("UnderDownloadCapIsLive", func(t *testing.T) {
		gate := &Gate{
			IsActive:      utils.ToPtr(true),
			MaxDownloads:  utils.ToPtr(100),
			DownloadCount: 99,
		}
		assert.True(t, gate.IsLive(now))
	})
}

func TestGateRequiredSteps(t *testing.T) {
	t.Run("FunnelOrderIsStable", func(t *testing.T) {
		gate := &Gate{
			RequireEmail:            utils.ToPtr(true),
			RequireSoundcloudRepost: utils.ToPtr(true),
			RequireSoundcloudFollow: utils.ToPtr(false),
			RequireInstagramFollow:  utils.ToPtr(true),
			RequireSpotifyConnect:   utils.ToPtr(true),
		}
		assert.Equal(t, []Step{StepEmail, StepSoundcloudRepost, StepInstagramFollow, StepSpotifyConnect}, gate.RequiredSteps())
	})

	t.Run("NoRequirements", func(t *testing.T) {
		gate := &Gate{}
		assert.Empty(t, gate.RequiredSteps())
	})

	t.Run("RequiresMatchesTheFlagVector", func(t *testing.T) {
		gate := &Gate{
			RequireEmail:          utils.ToPtr(true),
			RequireSpotifyConnect: utils.ToPtr(true),
		}
		assert.True(t, gate.Requires(StepEmail))
		assert.True(t, gate.Requires(StepSpotifyConnect))
		assert.False(t, gate.Requires(StepSoundcloudRepost))
		assert.False(t, gate.Requires(Step("bogus")))
	})
}
