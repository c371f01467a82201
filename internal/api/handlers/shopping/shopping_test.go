package shopping

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shopping-optimizer/internal/core/cache"
	"shopping-optimizer/internal/core/queue"
	"shopping-optimizer/internal/core/shopping/pipeline"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Shopping: config.ShoppingConfig{
			MaxRecipes:              50,
			MaxIngredientsPerRecipe: 100,
		},
		Queue: config.QueueConfig{Workers: 2, MaxSize: 10},
		Cache: config.CacheConfig{
			Enabled:         true,
			Backend:         "memory",
			MaxSize:         100,
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, store cache.Store) (*gin.Engine, *queue.Manager) {
	t.Helper()
	qm := queue.NewManager(cfg, pipeline.NewService(cfg.Shopping))
	h := NewHandler(cfg, qm, store, nil)

	r := gin.New()
	r.POST("/optimize", h.HandleOptimize)
	r.POST("/consolidate", h.HandleConsolidate)
	r.POST("/optimize/by-ids", h.HandleOptimizeByIDs)
	return r, qm
}

type apiResponse struct {
	Result   *common.OptimizationResult `json:"result"`
	CacheHit bool                       `json:"cache_hit"`
}

const optimizeBody = `{
	"recipes": [
		{
			"recipe_id": "r1",
			"recipe_name": "Soup",
			"ingredients": [
				{"ingredient_name": "salt", "quantity": 10, "unit": "g"},
				{"ingredient_name": "salt", "quantity": 5, "unit": "g"}
			]
		}
	]
}`

func TestHandleOptimizeSuccess(t *testing.T) {
	cfg := testConfig()
	r, qm := newTestRouter(t, cfg, nil)
	defer qm.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(optimizeBody)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.CacheHit {
		t.Error("first request must not be a cache hit")
	}
	if resp.Result.Summary.TotalConsolidatedIngredients != 1 {
		t.Errorf("consolidated = %d, want 1", resp.Result.Summary.TotalConsolidatedIngredients)
	}
}

func TestHandleOptimizeUsesCache(t *testing.T) {
	cfg := testConfig()
	store := cache.NewManager(cfg)
	defer store.Close()
	r, qm := newTestRouter(t, cfg, store)
	defer qm.Close()

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(optimizeBody)))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(optimizeBody)))
	if w2.Code != http.StatusOK {
		t.Fatalf("second request status = %d", w2.Code)
	}

	var resp apiResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if !resp.CacheHit {
		t.Error("identical payload should hit the cache")
	}
}

func TestHandleOptimizeRejectsBadBody(t *testing.T) {
	cfg := testConfig()
	r, qm := newTestRouter(t, cfg, nil)
	defer qm.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(`{"nope": true}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleOptimizeValidationErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Shopping.MaxRecipes = 1
	r, qm := newTestRouter(t, cfg, nil)
	defer qm.Close()

	body := `{"recipes": [{"recipe_id": "a"}, {"recipe_id": "b"}]}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("too many recipes: status = %d, want 400", w.Code)
	}
}

func TestHandleConsolidateSkipsAnalysis(t *testing.T) {
	cfg := testConfig()
	r, qm := newTestRouter(t, cfg, nil)
	defer qm.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/consolidate", strings.NewReader(optimizeBody)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.Result.Summary.EstimatedCost != 0 {
		t.Errorf("consolidate must not estimate cost, got %g", resp.Result.Summary.EstimatedCost)
	}
}

func TestHandleOptimizeByIDsDisabled(t *testing.T) {
	cfg := testConfig()
	r, qm := newTestRouter(t, cfg, nil)
	defer qm.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/optimize/by-ids", strings.NewReader(`{"recipe_ids": ["r1"]}`)))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501 when recipe store disabled", w.Code)
	}
}
