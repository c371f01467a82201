package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shopping-optimizer/internal/pkg/common"
)

// Command 管線中的一個階段
type Command interface {
	// Name 階段名稱（用於指標與日誌）
	Name() string

	// Fatal 回報此階段失敗是否應中止整條管線
	Fatal() bool

	// Execute 對共享上下文執行此階段
	Execute(ctx context.Context, octx *OptimizationContext) error
}

// Pipeline 依序執行各階段。致命階段失敗會中止整條管線；
// 非致命階段失敗會記錄後繼續，讓部分結果仍能回傳。
type Pipeline struct {
	commands []Command
}

// NewPipeline 以給定順序的階段創建管線
func NewPipeline(commands ...Command) *Pipeline {
	return &Pipeline{commands: commands}
}

// Run 執行所有階段
func (p *Pipeline) Run(ctx context.Context, octx *OptimizationContext) error {
	for _, cmd := range p.commands {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := cmd.Execute(ctx, octx)
		octx.StageMetrics[cmd.Name()] = StageMetric{
			Duration:  time.Since(start),
			Succeeded: err == nil,
		}

		if err == nil {
			common.LogDebug("管線階段完成",
				zap.String("stage", cmd.Name()),
				zap.Duration("耗時", time.Since(start)),
				zap.String("request_id", octx.RequestID),
			)
			continue
		}

		if cmd.Fatal() {
			common.LogError("管線階段失敗，中止執行",
				zap.String("stage", cmd.Name()),
				zap.Error(err),
				zap.String("request_id", octx.RequestID),
			)
			return err
		}

		// 非致命階段：記錄後繼續
		common.LogWarn("管線階段失敗，跳過並繼續",
			zap.String("stage", cmd.Name()),
			zap.Error(err),
			zap.String("request_id", octx.RequestID),
		)
		octx.AddError(fmt.Sprintf("%s: %v", cmd.Name(), err))
	}
	return nil
}
