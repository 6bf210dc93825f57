package workflow

import (
	"context"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/types"
)

// DocumentGateway 文档工作流依赖的远程操作
type DocumentGateway interface {
	UploadResume(ctx context.Context, filename, mimeType string, content []byte) (*types.Document, error)
	GetCurrentResume(ctx context.Context) (*types.Document, error)
}

// ScoringGateway 评分工作流依赖的远程操作
type ScoringGateway interface {
	GetATSScore(ctx context.Context) (*types.ScoreReport, error)
	ScoreWithJD(ctx context.Context, jdText string) (*types.ScoreReport, error)
}

// AnalysisGateway 分析工作流依赖的远程操作
type AnalysisGateway interface {
	AnalyzeResume(ctx context.Context) (*types.AnalysisReport, error)
}

// ConversationGateway 会话工作流依赖的远程操作
type ConversationGateway interface {
	ChatAsk(ctx context.Context, message string) (*gateway.ChatAnswer, error)
	ChatHistory(ctx context.Context) (*gateway.ChatHistoryResult, error)
	ChatClearHistory(ctx context.Context) error
	ChatReset(ctx context.Context) error
}

// 确保网关实现了各工作流依赖的接口
var (
	_ DocumentGateway     = (*gateway.Gateway)(nil)
	_ ScoringGateway      = (*gateway.Gateway)(nil)
	_ AnalysisGateway     = (*gateway.Gateway)(nil)
	_ ConversationGateway = (*gateway.Gateway)(nil)
)
