package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/Dan9191/savings-planner/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	plans  map[string][]byte
	owners map[string]int64
	purged int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*models.User),
		plans:  make(map[string][]byte),
		owners: make(map[string]int64),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return models.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	copied := *user
	f.users[user.Email] = &copied
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

// SavePlan keeps a JSON snapshot so callers never share memory with the store.
func (f *fakeStore) SavePlan(ctx context.Context, plan *models.Plan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans[plan.ID] = raw
	f.owners[plan.ID] = plan.UserID
	return nil
}

func (f *fakeStore) GetPlan(ctx context.Context, id string, userID int64, now time.Time) (*models.Plan, error) {
	f.mu.Lock()
	raw, ok := f.plans[id]
	owner := f.owners[id]
	f.mu.Unlock()
	if !ok || owner != userID {
		return nil, fmt.Errorf("%s: %w", id, models.ErrPlanNotFound)
	}
	plan := &models.Plan{}
	if err := json.Unmarshal(raw, plan); err != nil {
		return nil, err
	}
	if !now.Before(plan.ExpiresAt) {
		return nil, fmt.Errorf("%s: %w", id, models.ErrPlanNotFound)
	}
	return plan, nil
}

func (f *fakeStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.purged, nil
}

type fakeAdvisor struct {
	mu sync.Mutex

	advisory    *models.Advisory
	advisoryErr error
	lastRequest models.AdvisoryRequest

	resimCalls []models.ResimulationRequest
	chatReq    models.ChatRequest
}

func (f *fakeAdvisor) GetAdvisory(ctx context.Context, req models.AdvisoryRequest) (*models.Advisory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequest = req
	if f.advisoryErr != nil {
		return nil, f.advisoryErr
	}
	return f.advisory, nil
}

func (f *fakeAdvisor) Resimulate(ctx context.Context, req models.ResimulationRequest) (*models.ResimulationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resimCalls = append(f.resimCalls, req)
	return &models.ResimulationResult{
		GoalIndex:                   req.Goal.Index,
		NewMonthlySavings:           req.NewMonthlySavings,
		ProbabilityOfSuccessPercent: d("90"),
		Analysis:                    "ok",
	}, nil
}

func (f *fakeAdvisor) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatReq = req
	return "reply", nil
}

type fakeQuotes struct{ pruned int }

func (f *fakeQuotes) Quotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	out := make(map[string]models.QuoteResult)
	for _, s := range symbols {
		if s == "VOO" {
			out[s] = models.QuoteResult{Quote: &models.Quote{Symbol: s, Current: d("512.30")}}
		} else {
			out[s] = models.QuoteResult{Error: "quote_unavailable"}
		}
	}
	return out
}

func (f *fakeQuotes) Prune() int { return f.pruned }

type fakeNews struct {
	tickers []string
	err     error
}

func (f *fakeNews) RelatedTickers(ctx context.Context, limit int) ([]string, error) {
	return f.tickers, f.err
}

type fakeMailer struct {
	to, filename string
	data         []byte
	err          error
}

func (f *fakeMailer) SendPlanExport(to, username, planID string, attachment []byte, filename, contentType string) error {
	f.to, f.filename, f.data = to, filename, attachment
	return f.err
}

type testEnv struct {
	svc     *Service
	store   *fakeStore
	advisor *fakeAdvisor
	news    *fakeNews
	mailer  *fakeMailer
	now     time.Time
}

func newTestEnv(t *testing.T, quiet time.Duration) *testEnv {
	t.Helper()
	rules, err := tax.DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &testEnv{
		store:   newFakeStore(),
		advisor: &fakeAdvisor{},
		news:    &fakeNews{tickers: []string{"NVDA", "MSFT"}},
		mailer:  &fakeMailer{},
		now:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := &config.Config{
		JWTSecret:             "test-secret",
		PlanTTL:               72 * time.Hour,
		ResimulateQuietPeriod: quiet,
	}
	env.svc = NewService(Deps{
		Store:   env.store,
		Advisor: env.advisor,
		Quotes:  &fakeQuotes{pruned: 2},
		News:    env.news,
		Mailer:  env.mailer,
		Rules:   rules,
	}, log, cfg)
	env.svc.now = func() time.Time { return env.now }
	ids := 0
	env.svc.newID = func() string {
		ids++
		return fmt.Sprintf("plan-%d", ids)
	}
	return env
}

var errBoom = errors.New("boom")
