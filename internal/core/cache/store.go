package cache

import (
	"context"
	"fmt"

	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

// Store 最佳化結果緩存介面。記憶體與 Redis 後端都實作此介面。
type Store interface {
	// Get 以鍵取出緩存的結果，未命中時回傳錯誤
	Get(ctx context.Context, key string) (*common.OptimizationResult, error)

	// Set 寫入結果，鍵已存在時覆蓋
	Set(ctx context.Context, key string, result *common.OptimizationResult) error

	// GetStats 獲取緩存統計信息
	GetStats() map[string]interface{}

	// Close 關閉緩存
	Close() error
}

// NewStore 依設定選擇緩存後端。緩存停用時回傳 nil Store。
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		return NewService(&cfg.Cache)
	case "memory":
		return NewManager(cfg), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

// GenerateKey 以請求模式與食譜內容生成確定性的緩存鍵。
// 相同食譜以不同順序送入會得到不同的鍵，這是刻意的：
// 貪婪彙整對輸入順序敏感，結果可能不同。
func GenerateKey(mode string, recipes []common.RecipeData) string {
	payload, err := common.ToJSON(recipes)
	if err != nil {
		payload = fmt.Sprintf("%v", recipes)
	}
	return fmt.Sprintf("shopping:%s:%s", mode, common.HashString(payload))
}
