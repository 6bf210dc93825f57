package workflow

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/types"
)

// AnalysisWorkflow 持有AI分析反馈的工作流。
// 除拉取外没有修改操作，分析结果在客户端是只读状态。
type AnalysisWorkflow struct {
	mu sync.Mutex

	gw     AnalysisGateway
	logger zerolog.Logger

	gen uint64

	analysis  *types.AnalysisReport
	isLoading bool
	err       string
}

// AnalysisState 分析工作流的只读状态快照
type AnalysisState struct {
	// Analysis 当前分析报告。调用方不应修改其内容。
	Analysis *types.AnalysisReport
	Status
}

// NewAnalysisWorkflow 创建分析工作流
func NewAnalysisWorkflow(gw AnalysisGateway) *AnalysisWorkflow {
	return &AnalysisWorkflow{
		gw:     gw,
		logger: logger.Logger.With().Str("workflow", "analysis").Logger(),
	}
}

// FetchAnalysis 获取当前简历的AI分析报告
func (w *AnalysisWorkflow) FetchAnalysis(ctx context.Context) (*types.AnalysisReport, error) {
	gen := w.begin()
	analysis, err := w.gw.AnalyzeResume(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		w.isLoading = false
		w.logger.Debug().Msg("分析响应已过期，跳过状态写入")
		return analysis, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		w.logger.Warn().Err(err).Msg("获取分析失败")
		return nil, err
	}

	w.analysis = analysis
	w.err = ""
	w.logger.Info().Int("improvements", len(analysis.SectionImprovements)).Msg("分析已更新")
	return analysis, nil
}

// Clear 清空本地分析状态，不发起网络调用
func (w *AnalysisWorkflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.analysis = nil
	w.err = ""
	w.gen++
}

// State 返回只读状态快照
func (w *AnalysisWorkflow) State() AnalysisState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := AnalysisState{
		Status: Status{IsLoading: w.isLoading, Err: w.err},
	}
	if w.analysis != nil {
		cpy := *w.analysis
		state.Analysis = &cpy
	}
	return state
}

func (w *AnalysisWorkflow) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isLoading = true
	w.err = ""
	return w.gen
}
