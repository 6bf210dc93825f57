package workflow

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/types"
)

// ScoringWorkflow 持有ATS评分状态的工作流。
// 是否存在当前文档由上游（编排器）保证，这里不做前置检查，
// 文档缺失时直接透传服务端错误。
type ScoringWorkflow struct {
	mu sync.Mutex

	gw     ScoringGateway
	logger zerolog.Logger

	gen uint64

	scores    *types.ScoreReport
	isLoading bool
	err       string
}

// ScoreState 评分工作流的只读状态快照
type ScoreState struct {
	// Scores 当前评分报告。调用方不应修改其内容。
	Scores *types.ScoreReport
	Status
}

// NewScoringWorkflow 创建评分工作流
func NewScoringWorkflow(gw ScoringGateway) *ScoringWorkflow {
	return &ScoringWorkflow{
		gw:     gw,
		logger: logger.Logger.With().Str("workflow", "scoring").Logger(),
	}
}

// FetchScore 获取当前简历的ATS评分报告
func (w *ScoringWorkflow) FetchScore(ctx context.Context) (*types.ScoreReport, error) {
	gen := w.begin()
	scores, err := w.gw.GetATSScore(ctx)
	return w.finish(gen, scores, err)
}

// ScoreWithJD 结合岗位描述重新评分。
// 一旦请求过JD评分，其结果（含章节分解）整体覆盖现有报告。
func (w *ScoringWorkflow) ScoreWithJD(ctx context.Context, jdText string) (*types.ScoreReport, error) {
	gen := w.begin()
	scores, err := w.gw.ScoreWithJD(ctx, jdText)
	return w.finish(gen, scores, err)
}

// Clear 清空本地评分状态，不发起网络调用
func (w *ScoringWorkflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scores = nil
	w.err = ""
	w.gen++
}

// State 返回只读状态快照
func (w *ScoringWorkflow) State() ScoreState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := ScoreState{
		Status: Status{IsLoading: w.isLoading, Err: w.err},
	}
	if w.scores != nil {
		cpy := *w.scores
		state.Scores = &cpy
	}
	return state
}

func (w *ScoringWorkflow) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isLoading = true
	w.err = ""
	return w.gen
}

// finish 应用一次评分请求的结果；状态代数不匹配时丢弃过期响应
func (w *ScoringWorkflow) finish(gen uint64, scores *types.ScoreReport, err error) (*types.ScoreReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gen != gen {
		w.isLoading = false
		w.logger.Debug().Msg("评分响应已过期，跳过状态写入")
		return scores, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		w.logger.Warn().Err(err).Msg("获取评分失败")
		return nil, err
	}

	w.scores = scores
	w.err = ""
	w.logger.Info().Int("ats_score", scores.ATSScore).Msg("评分已更新")
	return scores, nil
}
