// Package testing provides test utilities and database setup for testing the download-gate service
package testing

import (
	"fmt"
	"math/rand"

	"github.com/fangate/fangate/models"
	"github.com/fangate/fangate/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// GateOption mutates a gate fixture before it is persisted
type GateOption func(*models.Gate)

// WithRequiredSteps enables exactly the given steps on the gate fixture
func WithRequiredSteps(steps ...models.Step) GateOption {
	return func(g *models.Gate) {
		g.RequireEmail = utils.ToPtr(false)
		g.RequireSoundcloudRepost = utils.ToPtr(false)
		g.RequireSoundcloudFollow = utils.ToPtr(false)
		g.RequireInstagramFollow = utils.ToPtr(false)
		g.RequireSpotifyConnect = utils.ToPtr(false)
		for _, step := range steps {
			switch step {
			case models.StepEmail:
				g.RequireEmail = utils.ToPtr(true)
			case models.StepSoundcloudRepost:
				g.RequireSoundcloudRepost = utils.ToPtr(true)
			case models.StepSoundcloudFollow:
				g.RequireSoundcloudFollow = utils.ToPtr(true)
			case models.StepInstagramFollow:
				g.RequireInstagramFollow = utils.ToPtr(true)
			case models.StepSpotifyConnect:
				g.RequireSpotifyConnect = utils.ToPtr(true)
			}
		}
	}
}

// WithGateOwner sets the owner on the gate fixture
func WithGateOwner(ownerID uint) GateOption {
	return func(g *models.Gate) {
		g.OwnerID = ownerID
	}
}

// WithMaxDownloads caps the gate fixture's downloads
func WithMaxDownloads(n int) GateOption {
	return func(g *models.Gate) {
		g.MaxDownloads = utils.ToPtr(n)
	}
}

// WithInactive deactivates the gate fixture
func WithInactive() GateOption {
	return func(g *models.Gate) {
		g.IsActive = utils.ToPtr(false)
	}
}

// CreateTestGate creates a gate with a random slug; by default only email
// capture is required and the gate is live
func (tf *TestFixtures) CreateTestGate(opts ...GateOption) (*models.Gate, error) {
	suffix := rand.Intn(1000000)
	gate := &models.Gate{
		UUID:                    uuid.New(),
		Slug:                    fmt.Sprintf("test-drop-%d", suffix),
		OwnerID:                 1,
		Title:                   "Midnight Demo",
		ArtistName:              "Test Artist",
		RequireEmail:            utils.ToPtr(true),
		RequireSoundcloudRepost: utils.ToPtr(false),
		RequireSoundcloudFollow: utils.ToPtr(false),
		RequireInstagramFollow:  utils.ToPtr(false),
		RequireSpotifyConnect:   utils.ToPtr(false),
		FileRef:                 fmt.Sprintf("files/test-drop-%d.wav", suffix),
		FileSizeBytes:           48_000_000,
		MediaType:               "audio/wav",
		SoundcloudTrackURL:      utils.ToPtr("https://soundcloud.com/test-artist/midnight-demo"),
		SoundcloudArtistURN:     utils.ToPtr("soundcloud:users:12345"),
		InstagramProfileURL:     utils.ToPtr("https://www.instagram.com/test.artist/"),
		IsActive:                utils.ToPtr(true),
		CreatedAt:               utils.UTCNow(),
		UpdatedAt:               utils.UTCNow(),
	}

	for _, opt := range opts {
		opt(gate)
	}

	if err := tf.DB.DB.Create(gate).Error; err != nil {
		return nil, fmt.Errorf("failed to create test gate: %w", err)
	}

	return gate, nil
}

// CreateTestSubmission creates a submission for the given gate with a random email
func (tf *TestFixtures) CreateTestSubmission(gate *models.Gate) (*models.Submission, error) {
	submission := &models.Submission{
		UUID:             uuid.New(),
		GateID:           gate.ID,
		Email:            fmt.Sprintf("fan.%d@example.com", rand.Intn(1000000)),
		FirstName:        utils.ToPtr("Alex"),
		ConsentMarketing: utils.ToPtr(true),
		IPAddress:        utils.ToPtr("203.0.113.7"),
		UserAgent:        utils.ToPtr("fixtures/1.0"),
		CreatedAt:        utils.UTCNow(),
		UpdatedAt:        utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create test submission: %w", err)
	}

	return submission, nil
}
