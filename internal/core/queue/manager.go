package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"shopping-optimizer/internal/core/shopping/pipeline"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

// Mode 請求處理模式
type Mode string

const (
	ModeOptimize    Mode = "optimize"
	ModeConsolidate Mode = "consolidate"
)

// Request 隊列請求
type Request struct {
	Context   context.Context
	RequestID string
	Mode      Mode
	Recipes   []common.RecipeData
	Result    chan Result
}

// Result 處理結果
type Result struct {
	Response *common.OptimizationResult
	Error    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器。固定數量的 worker 從隊列取出請求並執行最佳化管線。
type Manager struct {
	config    *config.Config
	service   *pipeline.Service
	queue     chan *Request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(cfg *config.Config, svc *pipeline.Service) *Manager {
	m := &Manager{
		config:  cfg,
		service: svc,
		queue:   make(chan *Request, cfg.Queue.MaxSize),
		done:    make(chan struct{}),
	}

	for i := 0; i < cfg.Queue.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("隊列管理器已初始化",
		zap.Int("workers", cfg.Queue.Workers),
		zap.Int("max_queue_size", cfg.Queue.MaxSize),
	)

	return m
}

// Enqueue 將請求加入隊列，回傳接收結果的通道
func (m *Manager) Enqueue(ctx context.Context, mode Mode, recipes []common.RecipeData, requestID string) (chan Result, error) {
	// 已關閉的隊列不再收件
	select {
	case <-m.done:
		return nil, fmt.Errorf("queue manager is closed")
	default:
	}

	// 檢查隊列容量
	if len(m.queue) >= m.config.Queue.MaxSize {
		return nil, fmt.Errorf("queue is full")
	}

	queueReq := Request{
		Context:   ctx,
		RequestID: requestID,
		Mode:      mode,
		Recipes:   recipes,
		Result:    make(chan Result, 1),
	}

	select {
	case m.queue <- &queueReq:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.Queue.MaxSize),
			zap.String("request_id", requestID),
		)
		return queueReq.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, fmt.Errorf("queue manager is closed")
	}
}

// worker 從隊列取出請求並執行
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case req, ok := <-m.queue:
			if !ok {
				return
			}
			m.process(req)
		case <-m.done:
			return
		}
	}
}

// process 執行單一請求並回傳結果
func (m *Manager) process(req *Request) {
	var result *common.OptimizationResult
	var err error

	switch req.Mode {
	case ModeConsolidate:
		result, err = m.service.ConsolidateShoppingList(req.Context, req.Recipes, req.RequestID)
	default:
		result, err = m.service.OptimizeShoppingList(req.Context, req.Recipes, req.RequestID)
	}

	atomic.AddInt64(&m.processed, 1)

	select {
	case req.Result <- Result{Response: result, Error: err}:
	case <-req.Context.Done():
		common.LogWarn("請求在處理完成前已取消",
			zap.String("request_id", req.RequestID),
		)
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.Queue.MaxSize,
		Workers:        m.config.Queue.Workers,
	}
}

// Close 關閉隊列管理器並等待 worker 結束
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}
