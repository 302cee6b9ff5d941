package service

import (
	"context"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/Dan9191/savings-planner/internal/resimulation"
	"github.com/Dan9191/savings-planner/internal/tax"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserStore persists households.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// PlanStore persists plan snapshots.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *models.Plan) error
	GetPlan(ctx context.Context, id string, userID int64, now time.Time) (*models.Plan, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store is implemented by repository.Repository.
type Store interface {
	UserStore
	PlanStore
}

// Advisor is the generative advisory collaborator.
type Advisor interface {
	GetAdvisory(ctx context.Context, req models.AdvisoryRequest) (*models.Advisory, error)
	Resimulate(ctx context.Context, req models.ResimulationRequest) (*models.ResimulationResult, error)
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
}

// QuoteSource looks up live market prices.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) map[string]models.QuoteResult
	Prune() int
}

// NewsSource suggests tickers from market news.
type NewsSource interface {
	RelatedTickers(ctx context.Context, limit int) ([]string, error)
}

// Mailer delivers plan exports.
type Mailer interface {
	SendPlanExport(to, username, planID string, attachment []byte, filename, contentType string) error
}

// Deps groups the collaborators of the service.
type Deps struct {
	Store   Store
	Advisor Advisor
	Quotes  QuoteSource
	News    NewsSource
	Mailer  Mailer
	Rules   *tax.Rules
}

// Service handles business logic
type Service struct {
	store     Store
	advisor   Advisor
	quotes    QuoteSource
	news      NewsSource
	mailer    Mailer
	rules     *tax.Rules
	debouncer *resimulation.Debouncer
	log       *logrus.Logger
	config    *config.Config

	now   func() time.Time
	newID func() string
}

// NewService initializes a new service
func NewService(deps Deps, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:     deps.Store,
		advisor:   deps.Advisor,
		quotes:    deps.Quotes,
		news:      deps.News,
		mailer:    deps.Mailer,
		rules:     deps.Rules,
		debouncer: resimulation.NewDebouncer(cfg.ResimulateQuietPeriod),
		log:       log,
		config:    cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}
