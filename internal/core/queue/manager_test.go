package queue

import (
	"context"
	"testing"
	"time"

	"shopping-optimizer/internal/core/shopping/pipeline"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

func testManager(maxSize, workers int) *Manager {
	cfg := &config.Config{
		Queue: config.QueueConfig{Workers: workers, MaxSize: maxSize},
		Shopping: config.ShoppingConfig{
			MaxRecipes:              50,
			MaxIngredientsPerRecipe: 100,
		},
	}
	return NewManager(cfg, pipeline.NewService(cfg.Shopping))
}

func testRecipes() []common.RecipeData {
	return []common.RecipeData{{
		RecipeID:   "r1",
		RecipeName: "Soup",
		Ingredients: []common.RecipeLineItem{
			{IngredientName: "salt", Quantity: 10, Unit: "g"},
			{IngredientName: "salt", Quantity: 5, Unit: "g"},
		},
	}}
}

func TestEnqueueAndProcess(t *testing.T) {
	m := testManager(10, 2)
	defer m.Close()

	resultCh, err := m.Enqueue(context.Background(), ModeOptimize, testRecipes(), "req-1")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case result := <-resultCh:
		if result.Error != nil {
			t.Fatalf("processing failed: %v", result.Error)
		}
		if result.Response.Summary.TotalConsolidatedIngredients != 1 {
			t.Errorf("consolidated = %d, want 1", result.Response.Summary.TotalConsolidatedIngredients)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queue result")
	}

	status := m.GetQueueStatus()
	if status.ProcessedCount != 1 {
		t.Errorf("processed = %d, want 1", status.ProcessedCount)
	}
	if status.Workers != 2 {
		t.Errorf("workers = %d, want 2", status.Workers)
	}
}

func TestConsolidateModeSkipsAnalysis(t *testing.T) {
	m := testManager(10, 1)
	defer m.Close()

	resultCh, err := m.Enqueue(context.Background(), ModeConsolidate, testRecipes(), "req-2")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case result := <-resultCh:
		if result.Error != nil {
			t.Fatalf("processing failed: %v", result.Error)
		}
		if result.Response.Summary.EstimatedCost != 0 {
			t.Errorf("consolidate mode must not estimate cost, got %g", result.Response.Summary.EstimatedCost)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queue result")
	}
}

func TestEnqueueValidationErrorsSurface(t *testing.T) {
	m := testManager(10, 1)
	defer m.Close()

	resultCh, err := m.Enqueue(context.Background(), ModeOptimize, nil, "req-3")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case result := <-resultCh:
		if result.Error == nil {
			t.Error("empty recipe list must fail validation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queue result")
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	m := testManager(10, 1)
	m.Close()

	if _, err := m.Enqueue(context.Background(), ModeOptimize, testRecipes(), "req-4"); err == nil {
		t.Error("enqueue after close must fail")
	}
}
