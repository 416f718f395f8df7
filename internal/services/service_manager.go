package services

import (
	"log/slog"

	"github.com/memorylane/recall-service/internal/cache"
	"github.com/memorylane/recall-service/internal/config"
	"github.com/memorylane/recall-service/internal/events"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/memorylane/recall-service/internal/validator"
)

// ServiceManager exposes every domain service to the handler layer.
type ServiceManager interface {
	Auth() Authenticator
	Identity() IdentityService
	Patient() PatientService
	Memory() MemoryService
	Caption() CaptionService
	Quiz() QuizService
	Insights() InsightsService
	Speech() SpeechService
}

// ServiceDeps groups what the services are built from.
type ServiceDeps struct {
	Config    *config.Config
	Repo      repositories.Repository
	Cache     cache.CacheService
	Invites   cache.InviteStore
	Model     GenerativeModel
	Auth      Authenticator
	Publisher events.EventPublisher
	Validator *validator.Validator
	Logger    *slog.Logger
}

type serviceManager struct {
	auth     Authenticator
	identity IdentityService
	patient  PatientService
	memory   MemoryService
	caption  CaptionService
	quiz     QuizService
	insights InsightsService
	speech   SpeechService
}

func NewServiceManager(deps ServiceDeps) ServiceManager {
	logger := deps.Logger
	identity := NewIdentityService(deps.Repo, deps.Cache, logger.With("service", "identity"))
	captions := NewCaptionService(deps.Repo, deps.Model, logger.With("service", "caption"))

	return &serviceManager{
		auth:     deps.Auth,
		identity: identity,
		patient: NewPatientService(deps.Repo, deps.Invites, identity, deps.Publisher,
			deps.Config.AppOrigin, logger.With("service", "patient"), deps.Validator),
		memory:   NewMemoryService(deps.Repo, logger.With("service", "memory"), deps.Validator),
		caption:  captions,
		quiz:     NewQuizService(deps.Repo, captions, deps.Model, deps.Publisher, logger.With("service", "quiz")),
		insights: NewInsightsService(deps.Repo, logger.With("service", "insights"), deps.Validator),
		speech:   NewSpeechService(deps.Config.Speech, logger.With("service", "speech")),
	}
}

func (m *serviceManager) Auth() Authenticator       { return m.auth }
func (m *serviceManager) Identity() IdentityService { return m.identity }
func (m *serviceManager) Patient() PatientService   { return m.patient }
func (m *serviceManager) Memory() MemoryService     { return m.memory }
func (m *serviceManager) Caption() CaptionService   { return m.caption }
func (m *serviceManager) Quiz() QuizService         { return m.quiz }
func (m *serviceManager) Insights() InsightsService { return m.insights }
func (m *serviceManager) Speech() SpeechService     { return m.speech }
