package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/types"
	"resume-insight-go/internal/workflow"
)

// View 当前激活的视图。属于展示层状态，编排器不持有其他状态。
type View string

const (
	// ViewUpload 上传视图，会话初始状态
	ViewUpload View = "upload"
	// ViewAnalysis 分析视图，上传成功后进入
	ViewAnalysis View = "analysis"
)

// Orchestrator 页面编排器，唯一知晓跨工作流时序的组件。
//
// 时序规则：每次上传成功后，恰好触发一次评分拉取和一次分析
// 拉取；两者并发执行、互不影响，一侧失败不取消另一侧，也不
// 自动重试。编排器只调用各工作流的公开操作，从不直接写入
// 它们的状态。
type Orchestrator struct {
	documents    *workflow.DocumentWorkflow
	scoring      *workflow.ScoringWorkflow
	analysis     *workflow.AnalysisWorkflow
	conversation *workflow.ConversationWorkflow
	logger       zerolog.Logger

	mu   sync.Mutex
	view View
}

// New 创建页面编排器，初始视图为上传视图
func New(
	documents *workflow.DocumentWorkflow,
	scoring *workflow.ScoringWorkflow,
	analysis *workflow.AnalysisWorkflow,
	conversation *workflow.ConversationWorkflow,
) *Orchestrator {
	return &Orchestrator{
		documents:    documents,
		scoring:      scoring,
		analysis:     analysis,
		conversation: conversation,
		view:         ViewUpload,
		logger:       logger.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// UploadAndEvaluate 上传简历；成功后切换到分析视图，并并发
// 触发评分与分析拉取。
//
// 视图切换只取决于上传调用本身是否成功，与后续评分/分析的
// 结果无关。评分或分析失败时错误已存入各自工作流的状态，
// 这里只记录日志，不向调用方传播。
func (o *Orchestrator) UploadAndEvaluate(ctx context.Context, file workflow.UploadFile) (*types.Document, error) {
	doc, err := o.documents.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	o.setView(ViewAnalysis)

	var group errgroup.Group
	group.Go(func() error {
		_, err := o.scoring.FetchScore(ctx)
		return err
	})
	group.Go(func() error {
		_, err := o.analysis.FetchAnalysis(ctx)
		return err
	})
	if err := group.Wait(); err != nil {
		o.logger.Warn().Err(err).Msg("上传后的评分或分析拉取失败，不影响视图切换")
	}

	return doc, nil
}

// StartOver 回到上传视图并清空各工作流的本地状态。
// 只清本地，不触碰服务端会话。
func (o *Orchestrator) StartOver() {
	o.documents.Clear()
	o.scoring.Clear()
	o.analysis.Clear()
	o.conversation.ClearMessages()
	o.setView(ViewUpload)
}

// View 返回当前激活的视图
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// CanConverse 会话工作流是否可以挂载（存在当前文档）。
// 编排器对会话工作流的感知仅限于此。
func (o *Orchestrator) CanConverse() bool {
	return o.documents.HasDocument()
}

// Documents 文档工作流
func (o *Orchestrator) Documents() *workflow.DocumentWorkflow {
	return o.documents
}

// Scoring 评分工作流
func (o *Orchestrator) Scoring() *workflow.ScoringWorkflow {
	return o.scoring
}

// Analysis 分析工作流
func (o *Orchestrator) Analysis() *workflow.AnalysisWorkflow {
	return o.analysis
}

// Conversation 会话工作流
func (o *Orchestrator) Conversation() *workflow.ConversationWorkflow {
	return o.conversation
}

func (o *Orchestrator) setView(view View) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.view = view
}
