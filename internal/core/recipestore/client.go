package recipestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

// Client 食譜儲存服務客戶端。
// 讓呼叫端只送食譜 ID，由此客戶端向食譜服務取回完整食材清單。
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建食譜儲存服務客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.RecipeStore.BaseURL).
		SetTimeout(cfg.RecipeStore.Timeout).
		SetRetryCount(cfg.RecipeStore.MaxRetries)

	if cfg.RecipeStore.APIKey != "" {
		client.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.RecipeStore.APIKey))
	}

	return &Client{
		config: cfg,
		client: client,
	}
}

// FetchRecipes 以 ID 批次取回食譜
func (c *Client) FetchRecipes(ctx context.Context, recipeIDs []string) ([]common.RecipeData, error) {
	ids := make([]string, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, common.NewValidationError("recipe_ids 不可為空")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"recipe_ids": ids,
		}).
		Post("/api/v1/recipes/batch")

	if err != nil {
		common.LogError("食譜服務請求失敗",
			zap.Error(err),
			zap.Int("recipe_count", len(ids)),
		)
		return nil, common.ErrRecipeStoreError
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, common.ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		common.LogError("食譜服務回傳錯誤",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, common.ErrRecipeStoreError
	}

	var result struct {
		Recipes []common.RecipeData `json:"recipes"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse recipe store response: %w", err)
	}

	if len(result.Recipes) == 0 {
		return nil, common.ErrNoValidRecipes
	}

	common.LogDebug("食譜批次取回成功",
		zap.Int("requested", len(ids)),
		zap.Int("returned", len(result.Recipes)),
	)

	return result.Recipes, nil
}
