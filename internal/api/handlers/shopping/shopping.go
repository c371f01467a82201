package shopping

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopping-optimizer/internal/core/cache"
	"shopping-optimizer/internal/core/queue"
	"shopping-optimizer/internal/core/recipestore"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

// Handler 購物清單最佳化處理器
type Handler struct {
	config      *config.Config
	queue       *queue.Manager
	cacheStore  cache.Store
	recipeStore *recipestore.Client
}

// NewHandler 創建購物清單處理器
func NewHandler(cfg *config.Config, q *queue.Manager, store cache.Store, rs *recipestore.Client) *Handler {
	return &Handler{
		config:      cfg,
		queue:       q,
		cacheStore:  store,
		recipeStore: rs,
	}
}

// optimizeRequest 以食譜內容送入的請求
type optimizeRequest struct {
	Recipes []common.RecipeData `json:"recipes" binding:"required"`
}

// optimizeByIDsRequest 以食譜 ID 送入的請求
type optimizeByIDsRequest struct {
	RecipeIDs []string `json:"recipe_ids" binding:"required"`
}

// HandleOptimize 完整三階段最佳化
func (h *Handler) HandleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": common.ErrInvalidRequest.Message,
			"code":  common.ErrInvalidRequest.Code,
		})
		return
	}

	h.process(c, queue.ModeOptimize, req.Recipes)
}

// HandleConsolidate 只做食材彙整，不做囤貨與成本分析
func (h *Handler) HandleConsolidate(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": common.ErrInvalidRequest.Message,
			"code":  common.ErrInvalidRequest.Code,
		})
		return
	}

	h.process(c, queue.ModeConsolidate, req.Recipes)
}

// HandleOptimizeByIDs 以食譜 ID 取回內容後執行完整最佳化
func (h *Handler) HandleOptimizeByIDs(c *gin.Context) {
	if h.recipeStore == nil || !h.config.RecipeStore.Enabled {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "食譜儲存服務未啟用",
			"code":  common.ErrCodeNotImplemented,
		})
		return
	}

	var req optimizeByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": common.ErrInvalidRequest.Message,
			"code":  common.ErrInvalidRequest.Code,
		})
		return
	}

	recipes, err := h.recipeStore.FetchRecipes(c.Request.Context(), req.RecipeIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.process(c, queue.ModeOptimize, recipes)
}

// process 查緩存、排隊處理並回寫緩存
func (h *Handler) process(c *gin.Context, mode queue.Mode, recipes []common.RecipeData) {
	reqID := requestid.Get(c)
	key := cache.GenerateKey(string(mode), recipes)

	if h.cacheStore != nil {
		if cached, err := h.cacheStore.Get(c.Request.Context(), key); err == nil && cached != nil {
			c.JSON(http.StatusOK, gin.H{
				"result":    cached,
				"cache_hit": true,
			})
			return
		}
	}

	resultCh, err := h.queue.Enqueue(c.Request.Context(), mode, recipes, reqID)
	if err != nil {
		common.LogWarn("請求無法加入隊列",
			zap.Error(err),
			zap.String("request_id", reqID),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": common.ErrServiceUnavailable.Message,
			"code":  common.ErrServiceUnavailable.Code,
		})
		return
	}

	select {
	case result := <-resultCh:
		if result.Error != nil {
			h.writeError(c, result.Error)
			return
		}

		if h.cacheStore != nil {
			if err := h.cacheStore.Set(c.Request.Context(), key, result.Response); err != nil {
				common.LogWarn("結果寫入緩存失敗",
					zap.Error(err),
					zap.String("request_id", reqID),
				)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"result":    result.Response,
			"cache_hit": false,
		})
	case <-c.Request.Context().Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": common.ErrGatewayTimeout.Message,
			"code":  common.ErrGatewayTimeout.Code,
		})
	}
}

// writeError 將業務錯誤映射為 HTTP 回應
func (h *Handler) writeError(c *gin.Context, err error) {
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		c.JSON(customErr.Status, gin.H{
			"error": customErr.Message,
			"code":  customErr.Code,
		})
		return
	}

	common.LogError("未分類的處理錯誤",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": common.ErrInternalError.Message,
		"code":  common.ErrInternalError.Code,
	})
}
