package resimulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/savings-planner/internal/allocation"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func samplePlan() *models.Plan {
	plan := &models.Plan{
		ID:      "plan-1",
		Profile: models.ClientProfile{Age: 35, MonthlyIncome: d("100000")},
		Goals: []models.Goal{
			{Index: 0, Type: "retirement", HorizonYears: 25, TargetAmount: d("10000000")},
			{Index: 1, Type: "retirement", HorizonYears: 5, TargetAmount: d("500000")},
		},
		Advisory: &models.Advisory{GoalFeasibility: []models.GoalFeasibility{
			{
				GoalName:                "Retirement",
				RequiredSavingsPerMonth: d("15000"),
				InvestmentPlan: &models.InvestmentPlan{
					Summary: "growth",
					Assets:  []models.Asset{{Name: "Vanguard S&P 500", Ticker: "VOO", Percentage: d("100")}},
				},
			},
			{
				GoalName:                "Retirement",
				RequiredSavingsPerMonth: d("30000"),
				InvestmentPlan: &models.InvestmentPlan{
					Summary: "conservative",
					Assets:  []models.Asset{{Name: "Bonds", Ticker: "BND", Percentage: d("100")}},
				},
			},
		}},
	}
	reqs, _ := allocation.BuildRequests(plan.Goals, plan.Advisory.GoalFeasibility)
	plan.Allocation = allocation.Allocate(d("40000"), decimal.Zero, reqs)
	return plan
}

func TestBuildRequest_CarriesGoalTripleByIndex(t *testing.T) {
	plan := samplePlan()

	req, err := BuildRequest(plan, 1, d("20000"))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	// Both goals share a display name; the index picks the right one.
	if req.Goal.Index != 1 {
		t.Errorf("index = %d, want 1", req.Goal.Index)
	}
	if req.Goal.HorizonYears != 5 || !req.Goal.TargetAmount.Equal(d("500000")) {
		t.Errorf("goal = %+v, want horizon 5 amount 500000", req.Goal)
	}
	if req.InvestmentPlan.Summary != "conservative" || req.InvestmentPlan.Assets[0].Ticker != "BND" {
		t.Errorf("investment plan = %+v", req.InvestmentPlan)
	}
	if !req.NewMonthlySavings.Equal(d("20000")) {
		t.Errorf("savings = %s, want 20000", req.NewMonthlySavings)
	}
	if req.ClientProfile.Age != 35 {
		t.Errorf("profile not carried: %+v", req.ClientProfile)
	}
}

func TestBuildRequest_DoesNotTouchStoredAllocation(t *testing.T) {
	plan := samplePlan()
	before := plan.Allocation.Allocations[0]

	req, err := BuildRequest(plan, 1, d("99999"))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	req.InvestmentPlan.Assets[0].Ticker = "CHANGED"

	after := plan.Allocation.Allocations[0]
	if !after.ActualInvestAmount.Equal(before.ActualInvestAmount) ||
		!after.RecommendedSavings.Equal(before.RecommendedSavings) {
		t.Errorf("goal 0 allocation changed: before %+v after %+v", before, after)
	}
	if plan.Advisory.GoalFeasibility[1].InvestmentPlan.Assets[0].Ticker != "BND" {
		t.Error("stored investment plan was mutated through the request")
	}
}

func TestBuildRequest_UnknownIndex(t *testing.T) {
	plan := samplePlan()

	for _, idx := range []int{-1, 2, 10} {
		if _, err := BuildRequest(plan, idx, d("100")); !errors.Is(err, models.ErrGoalNotFound) {
			t.Errorf("index %d: err = %v, want ErrGoalNotFound", idx, err)
		}
	}
}

func TestBuildRequest_MissingFeasibility(t *testing.T) {
	plan := samplePlan()
	plan.Advisory = nil

	req, err := BuildRequest(plan, 0, d("-10"))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Goal.Name != "retirement" {
		t.Errorf("name = %q, want goal type", req.Goal.Name)
	}
	if len(req.InvestmentPlan.Assets) != 0 {
		t.Errorf("expected empty investment plan, got %+v", req.InvestmentPlan)
	}
	if !req.NewMonthlySavings.IsZero() {
		t.Errorf("negative savings should clamp to zero, got %s", req.NewMonthlySavings)
	}
}

func TestNormalize(t *testing.T) {
	req, err := Normalize(models.ResimulationRequest{
		Goal:              models.GoalIdentity{Index: 0, HorizonYears: -3, TargetAmount: d("-1")},
		NewMonthlySavings: d("-5"),
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Goal.HorizonYears != 0 || !req.Goal.TargetAmount.IsZero() || !req.NewMonthlySavings.IsZero() {
		t.Errorf("not normalized: %+v", req)
	}

	if _, err := Normalize(models.ResimulationRequest{Goal: models.GoalIdentity{Index: -1}}); !errors.Is(err, models.ErrGoalNotFound) {
		t.Errorf("err = %v, want ErrGoalNotFound", err)
	}
}

func TestDebouncer_LatestWins(t *testing.T) {
	deb := NewDebouncer(50 * time.Millisecond)
	key := Key("plan-1", 0)

	results := make([]error, 3)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = deb.Wait(context.Background(), key)
		}(i)
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	if !errors.Is(results[0], models.ErrSuperseded) || !errors.Is(results[1], models.ErrSuperseded) {
		t.Errorf("earlier calls should be superseded: %v", results)
	}
	if results[2] != nil {
		t.Errorf("latest call should proceed, got %v", results[2])
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	deb := NewDebouncer(30 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = deb.Wait(context.Background(), Key("plan-1", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goal %d: unexpected error %v", i, err)
		}
	}
}

func TestDebouncer_ContextCancelled(t *testing.T) {
	deb := NewDebouncer(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := deb.Wait(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDebouncer_CancelledNewestStillSupersedes(t *testing.T) {
	deb := NewDebouncer(100 * time.Millisecond)
	key := Key("p", 1)

	var wg sync.WaitGroup
	var errA, errC error
	wg.Add(1)
	go func() {
		defer wg.Done()
		errA = deb.Wait(context.Background(), key)
	}()
	time.Sleep(10 * time.Millisecond)

	ctxB, cancelB := context.WithCancel(context.Background())
	doneB := make(chan error, 1)
	go func() { doneB <- deb.Wait(ctxB, key) }()
	time.Sleep(10 * time.Millisecond)
	cancelB()
	if err := <-doneB; !errors.Is(err, context.Canceled) {
		t.Fatalf("B: err = %v, want context.Canceled", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		errC = deb.Wait(context.Background(), key)
	}()
	wg.Wait()

	if !errors.Is(errA, models.ErrSuperseded) {
		t.Errorf("A: err = %v, want ErrSuperseded", errA)
	}
	if errC != nil {
		t.Errorf("C: err = %v, want nil", errC)
	}
}

func TestDebouncer_KeyForgottenAfterLastWaiter(t *testing.T) {
	deb := NewDebouncer(5 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := deb.Wait(context.Background(), "k"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	deb.mu.Lock()
	defer deb.mu.Unlock()
	if len(deb.keys) != 0 {
		t.Errorf("keys = %d, want 0", len(deb.keys))
	}
}

func TestDebouncer_ZeroQuietPeriod(t *testing.T) {
	deb := NewDebouncer(0)
	if err := deb.Wait(context.Background(), "k"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
