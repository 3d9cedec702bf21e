package models

import (
	"testing"

	"github.com/fangate/fangate/utils"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionStepDone(t *testing.T) {
	t.Run("EmailIsImplicitlyDone", func(t *testing.T) {
		s := &Submission{}
		assert.True(t, s.StepDone(StepEmail))
	})

	t.Run("UnsetFlagsAreNotDone", func(t *testing.T) {
		s := &Submission{}
		assert.False(t, s.StepDone(StepSoundcloudRepost))
		assert.False(t, s.StepDone(StepSoundcloudFollow))
		assert.False(t, s.StepDone(StepInstagramFollow))
		assert.False(t, s.StepDone(StepSpotifyConnect))
	})

	t.Run("SetFlagsAreDone", func(t *testing.T) {
		s := &Submission{
			SoundcloudRepostVerified: utils.ToPtr(true),
			SpotifyConnected:         utils.ToPtr(true),
		}
		assert.True(t, s.StepDone(StepSoundcloudRepost))
		assert.True(t, s.StepDone(StepSpotifyConnect))
		assert.False(t, s.StepDone(StepSoundcloudFollow))
	})

	t.Run("UnknownStepIsNotDone", func(t *testing.T) {
		s := &Submission{}
		assert.False(t, s.StepDone(Step("bogus")))
	})
}

func TestSubmissionCompleteness(t *testing.T) {
	t.Run("EmailOnlyGateIsCompleteOnCreation", func(t *testing.T) {
		gate := &Gate{RequireEmail: utils.ToPtr(true)}
		s := &Submission{}
		assert.True(t, s.IsCompleteFor(gate))
		assert.Empty(t, s.MissingSteps(gate))
	})

	t.Run("MissingStepsInFunnelOrder", func(t *testing.T) {
		gate := &Gate{
			RequireEmail:            utils.ToPtr(true),
			RequireSoundcloudRepost: utils.ToPtr(true),
			RequireInstagramFollow:  utils.ToPtr(true),
		}
		s := &Submission{}
		assert.Equal(t, []Step{StepSoundcloudRepost, StepInstagramFollow}, s.MissingSteps(gate))
		assert.False(t, s.IsCompleteFor(gate))
	})

	t.Run("CompleteOnceAllRequiredFlagsSet", func(t *testing.T) {
		gate := &Gate{
			RequireEmail:            utils.ToPtr(true),
			RequireSoundcloudRepost: utils.ToPtr(true),
			RequireInstagramFollow:  utils.ToPtr(true),
		}
		s := &Submission{
			SoundcloudRepostVerified: utils.ToPtr(true),
			InstagramClickTracked:    utils.ToPtr(true),
		}
		assert.True(t, s.IsCompleteFor(gate))
	})

	t.Run("UnrequiredFlagsAreIgnored", func(t *testing.T) {
		gate := &Gate{
			RequireEmail:           utils.ToPtr(true),
			RequireInstagramFollow: utils.ToPtr(true),
		}
		// Repost is done but not required; instagram required but not done.
		s := &Submission{SoundcloudRepostVerified: utils.ToPtr(true)}
		assert.False(t, s.IsCompleteFor(gate))
		assert.Equal(t, []Step{StepInstagramFollow}, s.MissingSteps(gate))
	})

	t.Run("CompletenessTracksTheCurrentGateConfig", func(t *testing.T) {
		s := &Submission{SoundcloudRepostVerified: utils.ToPtr(true)}

		before := &Gate{
			RequireEmail:            utils.ToPtr(true),
			RequireSoundcloudRepost: utils.ToPtr(true),
		}
		assert.True(t, s.IsCompleteFor(before))

		// Owner adds a requirement after the fact: the same record regresses.
		after := &Gate{
			RequireEmail:            utils.ToPtr(true),
			RequireSoundcloudRepost: utils.ToPtr(true),
			RequireSpotifyConnect:   utils.ToPtr(true),
		}
		assert.False(t, s.IsCompleteFor(after))
		assert.Equal(t, []Step{StepSpotifyConnect}, s.MissingSteps(after))
	})
}
