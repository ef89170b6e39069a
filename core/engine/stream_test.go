package engine

import (
	"context"
	"testing"
	"time"

	"esim-pricing/core/types"
)

func collectStages(steps []types.PricingStep) []types.StepStage {
	stages := make([]types.StepStage, 0, len(steps))
	for _, s := range steps {
		stages = append(stages, s.Stage)
	}
	return stages
}

func indexOf(stages []types.StepStage, want types.StepStage) int {
	for i, s := range stages {
		if s == want {
			return i
		}
	}
	return -1
}

func TestStreamStageOrder(t *testing.T) {
	eng := New(workedExampleRules(), nil)

	stepCh, resultCh := eng.Stream(context.Background(), workedExampleContext())

	var steps []types.PricingStep
	for step := range stepCh {
		steps = append(steps, step)
	}
	res := <-resultCh
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	stages := collectStages(steps)
	if len(stages) == 0 || stages[0] != types.StageInitialization {
		t.Fatalf("first stage = %v, want INITIALIZATION", stages)
	}
	if stages[len(stages)-1] != types.StageCompleted {
		t.Errorf("last stage = %s, want COMPLETED", stages[len(stages)-1])
	}

	order := []types.StepStage{
		types.StageInitialization,
		types.StageSystemRuleEvaluation,
		types.StageSubtotalCalculation,
		types.StageBusinessRuleEvaluation,
		types.StageFinalCalculation,
		types.StageProfitValidation,
		types.StageCompleted,
	}
	prev := -1
	for _, stage := range order {
		i := indexOf(stages, stage)
		if i < 0 {
			t.Fatalf("stage %s missing from stream %v", stage, stages)
		}
		if i <= prev {
			t.Fatalf("stage %s out of order in %v", stage, stages)
		}
		prev = i
	}
}

func TestStreamResultMatchesCalculate(t *testing.T) {
	eng := New(workedExampleRules(), nil)

	direct, err := eng.Calculate(context.Background(), workedExampleContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stepCh, resultCh := eng.Stream(context.Background(), workedExampleContext())
	for range stepCh {
	}
	res := <-resultCh
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	if !res.Calculation.FinalPrice.Equal(direct.FinalPrice) {
		t.Errorf("streamed final price %s != direct %s", res.Calculation.FinalPrice, direct.FinalPrice)
	}
	if len(res.Calculation.AppliedRules) != len(direct.AppliedRules) {
		t.Errorf("streamed applied rules %d != direct %d",
			len(res.Calculation.AppliedRules), len(direct.AppliedRules))
	}
}

func TestStreamDeliversSelectionError(t *testing.T) {
	eng := New(workedExampleRules(), nil)

	pctx := workedExampleContext()
	pctx.RequestedDuration = 40

	stepCh, resultCh := eng.Stream(context.Background(), pctx)
	for range stepCh {
	}
	res := <-resultCh
	if res.Err == nil {
		t.Fatal("expected selection error on the result channel")
	}
}

func TestStreamAbandonedByCancel(t *testing.T) {
	eng := New(workedExampleRules(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stepCh, resultCh := eng.Stream(ctx, workedExampleContext())

	// Read one step, then walk away. Cancellation must unblock the
	// producer so both channels still close.
	<-stepCh
	cancel()

	select {
	case <-resultCh:
	case <-time.After(2 * time.Second):
		t.Fatal("result channel did not close after cancellation")
	}

	select {
	case _, open := <-stepCh:
		if open {
			// Drain whatever was in flight.
			for range stepCh {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("step channel did not close after cancellation")
	}
}
