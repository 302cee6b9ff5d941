package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/savings-planner/internal/integrations/news"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func scenarioSubmission() models.Submission {
	return models.Submission{
		Profile: models.ClientProfile{
			Name:                    "Somchai",
			Age:                     35,
			MonthlyIncome:           d("100000"),
			MonthlyFixedExpenses:    d("40000"),
			MonthlyEmergencySavings: d("10000"),
		},
		Goals: []models.Goal{
			{Index: 5, Type: "retirement", HorizonYears: 25, TargetAmount: d("10000000")},
			{Index: 9, Type: "house", HorizonYears: 5, TargetAmount: d("2000000")},
		},
	}
}

func scenarioAdvisory() *models.Advisory {
	return &models.Advisory{
		Persona: "Builder",
		TaxPlan: &models.TaxPlan{
			Recommendations: []models.TaxRecommendation{{Product: "RMF", AmountToBuy: d("120000")}},
		},
		GoalFeasibility: []models.GoalFeasibility{
			{GoalName: "Retirement", RequiredSavingsPerMonth: d("15000"),
				InvestmentPlan: &models.InvestmentPlan{Assets: []models.Asset{{Name: "S&P 500", Ticker: "VOO", Percentage: d("100")}}}},
			{GoalName: "House", RequiredSavingsPerMonth: d("30000"),
				InvestmentPlan: &models.InvestmentPlan{Summary: "short horizon", Assets: []models.Asset{{Name: "Bonds", Ticker: "BND", Percentage: d("100")}}}},
		},
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()

	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if plan.ID != "plan-1" || !plan.ExpiresAt.Equal(env.now.Add(72*time.Hour)) {
		t.Errorf("plan identity = %s, expires %v", plan.ID, plan.ExpiresAt)
	}
	if plan.Goals[0].Index != 0 || plan.Goals[1].Index != 1 {
		t.Errorf("goal indices not reassigned: %+v", plan.Goals)
	}

	al := plan.Allocation
	if !al.StartingPool.Equal(d("40000")) {
		t.Errorf("starting pool = %s, want 40000", al.StartingPool)
	}
	if !al.Allocations[0].ActualInvestAmount.Equal(d("15000")) || !al.Allocations[1].ActualInvestAmount.Equal(d("25000")) {
		t.Errorf("allocations = %+v", al.Allocations)
	}
	if !al.RemainingPool.IsZero() {
		t.Errorf("remaining pool = %s, want 0", al.RemainingPool)
	}

	// net 1,040,000 before; 920,000 after buying 120,000 of RMF
	if !plan.Assessment.TaxPayableBefore.Equal(d("125000")) || !plan.Assessment.TaxPayableAfter.Equal(d("99000")) {
		t.Errorf("tax before/after = %s/%s", plan.Assessment.TaxPayableBefore, plan.Assessment.TaxPayableAfter)
	}

	req := env.advisor.lastRequest
	if !req.MonthlySavings.Equal(d("50000")) || !reflect.DeepEqual(req.SuggestedTickers, []string{"NVDA", "MSFT"}) {
		t.Errorf("advisory request = savings %s tickers %v", req.MonthlySavings, req.SuggestedTickers)
	}

	if _, err := env.svc.GetPlan(context.Background(), 1, plan.ID); err != nil {
		t.Errorf("stored plan not found: %v", err)
	}
	if _, err := env.svc.GetPlan(context.Background(), 2, plan.ID); !errors.Is(err, models.ErrPlanNotFound) {
		t.Errorf("other household: err = %v, want ErrPlanNotFound", err)
	}
}

func TestAnalyze_AdvisoryUnavailable(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisoryErr = fmt.Errorf("analysis: %w: timeout", models.ErrAdvisoryUnavailable)

	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if plan.AdvisoryError != "advisory_unavailable" || plan.Advisory != nil || plan.TaxPlan != nil {
		t.Errorf("plan = %+v", plan)
	}
	if !plan.Allocation.StartingPool.Equal(d("50000")) {
		t.Errorf("starting pool = %s, want 50000", plan.Allocation.StartingPool)
	}
	for _, a := range plan.Allocation.Allocations {
		if a.Status != models.StatusNoData || !a.ActualInvestAmount.IsZero() {
			t.Errorf("allocation = %+v, want no_data", a)
		}
	}
	if len(plan.Diagnostics) != 2 {
		t.Errorf("diagnostics = %+v", plan.Diagnostics)
	}
	if !plan.Assessment.TaxPayableAfter.Equal(plan.Assessment.TaxPayableBefore) {
		t.Error("tax after should equal tax before without a tax plan")
	}
}

func TestAnalyze_OtherAdvisorErrorFails(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisoryErr = errBoom

	if _, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission()); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
}

func TestAnalyze_BoundsTaxPurchases(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()

	sub := scenarioSubmission()
	// RMF limit 360,000 minus 300,000 held leaves 60,000 of room
	sub.Profile.RMFHoldings = d("300000")

	plan, err := env.svc.Analyze(context.Background(), 1, sub)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := plan.TaxPlan.Recommendations[0].AmountToBuy; !got.Equal(d("60000")) {
		t.Errorf("bounded RMF = %s, want 60000", got)
	}
	if !plan.Advisory.TaxPlan.Recommendations[0].AmountToBuy.Equal(d("120000")) {
		t.Error("raw advisory output should be kept as received")
	}
	if !plan.Allocation.MonthlyTaxPurchases.Equal(d("5000")) {
		t.Errorf("monthly tax = %s, want 5000", plan.Allocation.MonthlyTaxPurchases)
	}
	if len(plan.Diagnostics) != 1 || plan.Diagnostics[0].GoalIndex != -1 {
		t.Errorf("diagnostics = %+v", plan.Diagnostics)
	}
}

func TestAnalyze_ShortFeasibilityList(t *testing.T) {
	env := newTestEnv(t, 0)
	adv := scenarioAdvisory()
	adv.GoalFeasibility = adv.GoalFeasibility[:1]
	env.advisor.advisory = adv

	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if plan.Allocation.Allocations[1].Status != models.StatusNoData {
		t.Errorf("goal 1 status = %s, want no_data", plan.Allocation.Allocations[1].Status)
	}
}

func TestAnalyze_TooManyGoals(t *testing.T) {
	env := newTestEnv(t, 0)
	sub := scenarioSubmission()
	sub.Goals = make([]models.Goal, maxGoals+1)

	if _, err := env.svc.Analyze(context.Background(), 1, sub); !errors.Is(err, models.ErrInvalidSubmission) {
		t.Errorf("err = %v, want ErrInvalidSubmission", err)
	}
}

func TestAnalyze_NewsFallback(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()
	env.news.err = errBoom
	env.news.tickers = nil

	if _, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(env.advisor.lastRequest.SuggestedTickers, news.DefaultTickers) {
		t.Errorf("tickers = %v, want defaults", env.advisor.lastRequest.SuggestedTickers)
	}
}

func TestAllocateSavings(t *testing.T) {
	env := newTestEnv(t, 0)
	res := env.svc.AllocateSavings(models.AllocationInput{
		TotalMonthlySavings: d("10000"),
		Goals: []models.GoalRequest{
			{GoalName: "a", RequiredSavingsPerMonth: d("6000")},
			{GoalName: "b", RequiredSavingsPerMonth: d("6000")},
			{GoalName: "c", RequiredSavingsPerMonth: d("6000")},
		},
	})
	want := []string{"6000", "4000", "0"}
	for i, a := range res.Allocations {
		if !a.ActualInvestAmount.Equal(d(want[i])) {
			t.Errorf("goal %d = %s, want %s", i, a.ActualInvestAmount, want[i])
		}
	}
}

func TestResimulate_IsolatedFromStoredAllocation(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()
	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	res, err := env.svc.Resimulate(context.Background(), 1, plan.ID, 1, d("40000"))
	if err != nil {
		t.Fatalf("Resimulate: %v", err)
	}
	if res.GoalIndex != 1 || !res.NewMonthlySavings.Equal(d("40000")) {
		t.Errorf("result = %+v", res)
	}

	sent := env.advisor.resimCalls[0]
	if sent.Goal.HorizonYears != 5 || !sent.Goal.TargetAmount.Equal(d("2000000")) || sent.InvestmentPlan.Summary != "short horizon" {
		t.Errorf("request = %+v", sent)
	}

	stored, err := env.svc.GetPlan(context.Background(), 1, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	g0 := stored.Allocation.Allocations[0]
	if !g0.ActualInvestAmount.Equal(d("15000")) || !g0.RecommendedSavings.Equal(d("15000")) {
		t.Errorf("goal 0 changed after resimulating goal 1: %+v", g0)
	}
	if !stored.Allocation.Allocations[1].ActualInvestAmount.Equal(d("25000")) {
		t.Errorf("goal 1 stored allocation changed: %+v", stored.Allocation.Allocations[1])
	}
}

func TestResimulate_Errors(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()
	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if _, err := env.svc.Resimulate(context.Background(), 1, "missing", 0, d("1")); !errors.Is(err, models.ErrPlanNotFound) {
		t.Errorf("err = %v, want ErrPlanNotFound", err)
	}
	if _, err := env.svc.Resimulate(context.Background(), 1, plan.ID, 2, d("1")); !errors.Is(err, models.ErrGoalNotFound) {
		t.Errorf("err = %v, want ErrGoalNotFound", err)
	}

	env.now = env.now.Add(73 * time.Hour)
	if _, err := env.svc.Resimulate(context.Background(), 1, plan.ID, 0, d("1")); !errors.Is(err, models.ErrPlanNotFound) {
		t.Errorf("expired plan: err = %v, want ErrPlanNotFound", err)
	}
}

func TestResimulate_CoalescesBursts(t *testing.T) {
	env := newTestEnv(t, 60*time.Millisecond)
	env.advisor.advisory = scenarioAdvisory()
	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, savings := range []string{"10000", "20000"} {
		wg.Add(1)
		go func(i int, savings string) {
			defer wg.Done()
			_, errs[i] = env.svc.Resimulate(context.Background(), 1, plan.ID, 0, d(savings))
		}(i, savings)
		time.Sleep(15 * time.Millisecond)
	}
	wg.Wait()

	if !errors.Is(errs[0], models.ErrSuperseded) || errs[1] != nil {
		t.Fatalf("errs = %v", errs)
	}
	if len(env.advisor.resimCalls) != 1 || !env.advisor.resimCalls[0].NewMonthlySavings.Equal(d("20000")) {
		t.Errorf("advisor calls = %+v", env.advisor.resimCalls)
	}
}

func TestResimulateStateless(t *testing.T) {
	env := newTestEnv(t, 0)
	res, err := env.svc.ResimulateStateless(context.Background(), models.ResimulationRequest{
		Goal:              models.GoalIdentity{Index: 3, Name: "Car", HorizonYears: 2, TargetAmount: d("800000")},
		NewMonthlySavings: d("-100"),
	})
	if err != nil {
		t.Fatalf("ResimulateStateless: %v", err)
	}
	if res.GoalIndex != 3 || !res.NewMonthlySavings.IsZero() {
		t.Errorf("result = %+v", res)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "ann", " Ann@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ann@example.com" || user.PasswordHash == "correct horse" {
		t.Errorf("user = %+v", user)
	}
	if _, err := env.svc.Register(ctx, "ann", "ann@example.com", "correct horse"); !errors.Is(err, models.ErrUserExists) {
		t.Errorf("duplicate: err = %v, want ErrUserExists", err)
	}
	if _, err := env.svc.Register(ctx, "bob", "bob@example.com", "short"); !errors.Is(err, models.ErrInvalidSubmission) {
		t.Errorf("short password: err = %v, want ErrInvalidSubmission", err)
	}

	token, err := env.svc.Login(ctx, "ann@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return env.now }))
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.Subject != fmt.Sprint(user.ID) {
		t.Errorf("subject = %s, want %d", claims.Subject, user.ID)
	}

	if _, err := env.svc.Login(ctx, "ann@example.com", "wrong password"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := env.svc.Login(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()
	plan, err := env.svc.Analyze(context.Background(), 1, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if _, err := env.svc.Chat(context.Background(), 1, plan.ID, nil, "  "); !errors.Is(err, models.ErrInvalidSubmission) {
		t.Errorf("empty message: err = %v", err)
	}

	history := []models.ChatTurn{{Role: "user", Text: "hi"}, {Role: "model", Text: "hello"}}
	reply, err := env.svc.Chat(context.Background(), 1, plan.ID, history, "why RMF?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "reply" {
		t.Errorf("reply = %q", reply)
	}
	got := env.advisor.chatReq
	if got.Plan.ID != plan.ID || len(got.History) != 2 || got.Message != "why RMF?" {
		t.Errorf("chat request = %+v", got)
	}
}

func TestExportAndEmail(t *testing.T) {
	env := newTestEnv(t, 0)
	env.advisor.advisory = scenarioAdvisory()
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "ann", "ann@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	plan, err := env.svc.Analyze(ctx, user.ID, scenarioSubmission())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	data, err := env.svc.ExportCSV(ctx, user.ID, plan.ID)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	csv := string(data)
	if !strings.Contains(csv, "S&P 500,VOO,100,512.30") || !strings.Contains(csv, "Bonds,BND,100,N/A") {
		t.Errorf("csv missing priced assets:\n%s", csv)
	}

	pdf, err := env.svc.ExportPDF(ctx, user.ID, plan.ID)
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Errorf("ExportPDF: %v", err)
	}

	if err := env.svc.EmailPlan(ctx, user.ID, plan.ID); err != nil {
		t.Fatalf("EmailPlan: %v", err)
	}
	if env.mailer.to != "ann@example.com" || env.mailer.filename != "financial_plan_plan-1.csv" || string(env.mailer.data) != csv {
		t.Errorf("mail = %s %s", env.mailer.to, env.mailer.filename)
	}

	env.mailer.err = errBoom
	if err := env.svc.EmailPlan(ctx, user.ID, plan.ID); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
}

func TestMaintenance(t *testing.T) {
	env := newTestEnv(t, 0)
	env.store.purged = 4

	n, err := env.svc.PurgeExpiredPlans(context.Background())
	if err != nil || n != 4 {
		t.Errorf("PurgeExpiredPlans = %d, %v", n, err)
	}
	if n := env.svc.PruneQuoteCache(); n != 2 {
		t.Errorf("PruneQuoteCache = %d, want 2", n)
	}
}
