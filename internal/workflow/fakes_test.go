package workflow

import (
	"context"
	"sync"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/types"
)

// fakeDocumentGateway 可编程的文档网关假实现
type fakeDocumentGateway struct {
	mu          sync.Mutex
	uploadCalls int
	uploadFn    func(ctx context.Context, filename, mimeType string, content []byte) (*types.Document, error)
	currentFn   func(ctx context.Context) (*types.Document, error)
}

func (f *fakeDocumentGateway) UploadResume(ctx context.Context, filename, mimeType string, content []byte) (*types.Document, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	return f.uploadFn(ctx, filename, mimeType, content)
}

func (f *fakeDocumentGateway) GetCurrentResume(ctx context.Context) (*types.Document, error) {
	return f.currentFn(ctx)
}

func (f *fakeDocumentGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls
}

// fakeScoringGateway 可编程的评分网关假实现
type fakeScoringGateway struct {
	scoreFn func(ctx context.Context) (*types.ScoreReport, error)
	jdFn    func(ctx context.Context, jdText string) (*types.ScoreReport, error)
}

func (f *fakeScoringGateway) GetATSScore(ctx context.Context) (*types.ScoreReport, error) {
	return f.scoreFn(ctx)
}

func (f *fakeScoringGateway) ScoreWithJD(ctx context.Context, jdText string) (*types.ScoreReport, error) {
	return f.jdFn(ctx, jdText)
}

// fakeAnalysisGateway 可编程的分析网关假实现
type fakeAnalysisGateway struct {
	analyzeFn func(ctx context.Context) (*types.AnalysisReport, error)
}

func (f *fakeAnalysisGateway) AnalyzeResume(ctx context.Context) (*types.AnalysisReport, error) {
	return f.analyzeFn(ctx)
}

// fakeConversationGateway 可编程的会话网关假实现
type fakeConversationGateway struct {
	askFn     func(ctx context.Context, message string) (*gateway.ChatAnswer, error)
	historyFn func(ctx context.Context) (*gateway.ChatHistoryResult, error)
	clearFn   func(ctx context.Context) error
	resetFn   func(ctx context.Context) error
}

func (f *fakeConversationGateway) ChatAsk(ctx context.Context, message string) (*gateway.ChatAnswer, error) {
	return f.askFn(ctx, message)
}

func (f *fakeConversationGateway) ChatHistory(ctx context.Context) (*gateway.ChatHistoryResult, error) {
	return f.historyFn(ctx)
}

func (f *fakeConversationGateway) ChatClearHistory(ctx context.Context) error {
	return f.clearFn(ctx)
}

func (f *fakeConversationGateway) ChatReset(ctx context.Context) error {
	return f.resetFn(ctx)
}

// 编译期检查假实现满足各工作流接口
var (
	_ DocumentGateway     = (*fakeDocumentGateway)(nil)
	_ ScoringGateway      = (*fakeScoringGateway)(nil)
	_ AnalysisGateway     = (*fakeAnalysisGateway)(nil)
	_ ConversationGateway = (*fakeConversationGateway)(nil)
)
