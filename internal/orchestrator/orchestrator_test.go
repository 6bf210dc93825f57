package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/types"
	"resume-insight-go/internal/workflow"
)

// fakeRemote 同时充当四个工作流的网关假实现，并统计调用次数
type fakeRemote struct {
	mu            sync.Mutex
	uploadCalls   int
	scoreCalls    int
	analysisCalls int

	uploadErr   error
	scoreErr    error
	analysisErr error
}

func (f *fakeRemote) UploadResume(ctx context.Context, filename, mimeType string, content []byte) (*types.Document, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &types.Document{Name: "张三", Skills: []string{"Go"}}, nil
}

func (f *fakeRemote) GetCurrentResume(ctx context.Context) (*types.Document, error) {
	return &types.Document{Name: "张三"}, nil
}

func (f *fakeRemote) GetATSScore(ctx context.Context) (*types.ScoreReport, error) {
	f.mu.Lock()
	f.scoreCalls++
	f.mu.Unlock()
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	return &types.ScoreReport{ATSScore: 72}, nil
}

func (f *fakeRemote) ScoreWithJD(ctx context.Context, jdText string) (*types.ScoreReport, error) {
	return &types.ScoreReport{ATSScore: 64}, nil
}

func (f *fakeRemote) AnalyzeResume(ctx context.Context) (*types.AnalysisReport, error) {
	f.mu.Lock()
	f.analysisCalls++
	f.mu.Unlock()
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	return &types.AnalysisReport{
		Feedback: types.Feedback{OverallCritique: "还不错"},
	}, nil
}

func (f *fakeRemote) ChatAsk(ctx context.Context, message string) (*gateway.ChatAnswer, error) {
	return &gateway.ChatAnswer{Message: "ok", Relevant: true, ConversationLength: 2}, nil
}

func (f *fakeRemote) ChatHistory(ctx context.Context) (*gateway.ChatHistoryResult, error) {
	return &gateway.ChatHistoryResult{}, nil
}

func (f *fakeRemote) ChatClearHistory(ctx context.Context) error { return nil }

func (f *fakeRemote) ChatReset(ctx context.Context) error { return nil }

func (f *fakeRemote) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls, f.scoreCalls, f.analysisCalls
}

func newTestOrchestrator(remote *fakeRemote) *Orchestrator {
	return New(
		workflow.NewDocumentWorkflow(remote, 0),
		workflow.NewScoringWorkflow(remote),
		workflow.NewAnalysisWorkflow(remote),
		workflow.NewConversationWorkflow(remote),
	)
}

func pdfUpload() workflow.UploadFile {
	return workflow.UploadFile{
		Name:     "resume.pdf",
		MIMEType: workflow.MIMEPDF,
		Content:  []byte("%PDF-1.4"),
	}
}

// TestUploadTriggersScoringAndAnalysisOnce 验证上传成功后评分与
// 分析各被触发恰好一次，并切换到分析视图
func TestUploadTriggersScoringAndAnalysisOnce(t *testing.T) {
	remote := &fakeRemote{}
	orch := newTestOrchestrator(remote)
	require.Equal(t, ViewUpload, orch.View(), "初始应为上传视图")

	doc, err := orch.UploadAndEvaluate(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, "张三", doc.Name)

	uploads, scores, analyses := remote.counts()
	assert.Equal(t, 1, uploads)
	assert.Equal(t, 1, scores, "每次成功上传应触发恰好一次评分拉取")
	assert.Equal(t, 1, analyses, "每次成功上传应触发恰好一次分析拉取")

	assert.Equal(t, ViewAnalysis, orch.View())
	assert.NotNil(t, orch.Scoring().State().Scores)
	assert.NotNil(t, orch.Analysis().State().Analysis)
	assert.True(t, orch.CanConverse())
}

// TestFailedUploadTriggersNothing 验证上传失败时不触发任何后续拉取，
// 也不切换视图
func TestFailedUploadTriggersNothing(t *testing.T) {
	remote := &fakeRemote{
		uploadErr: gateway.NewRemoteError(gateway.OpUploadDocument, "解析失败"),
	}
	orch := newTestOrchestrator(remote)

	_, err := orch.UploadAndEvaluate(context.Background(), pdfUpload())
	require.Error(t, err)

	_, scores, analyses := remote.counts()
	assert.Equal(t, 0, scores)
	assert.Equal(t, 0, analyses)
	assert.Equal(t, ViewUpload, orch.View(), "上传失败不应切换视图")
	assert.False(t, orch.CanConverse())
}

// TestRejectedFileTriggersNothing 验证本地校验拒绝的文件连上传
// 调用都不会发生
func TestRejectedFileTriggersNothing(t *testing.T) {
	remote := &fakeRemote{}
	orch := newTestOrchestrator(remote)

	_, err := orch.UploadAndEvaluate(context.Background(), workflow.UploadFile{
		Name:     "resume.txt",
		MIMEType: "text/plain",
		Content:  []byte("x"),
	})
	require.Error(t, err)

	uploads, scores, analyses := remote.counts()
	assert.Equal(t, 0, uploads)
	assert.Equal(t, 0, scores)
	assert.Equal(t, 0, analyses)
}

// TestScoringFailureDoesNotAffectAnalysis 验证一侧失败不影响另一侧，
// 且视图切换只取决于上传本身
func TestScoringFailureDoesNotAffectAnalysis(t *testing.T) {
	remote := &fakeRemote{
		scoreErr: gateway.NewRemoteError(gateway.OpFetchATSScore, "评分服务不可用"),
	}
	orch := newTestOrchestrator(remote)

	doc, err := orch.UploadAndEvaluate(context.Background(), pdfUpload())
	require.NoError(t, err, "评分失败不应让上传调用返回错误")
	require.NotNil(t, doc)

	scoreState := orch.Scoring().State()
	assert.Equal(t, "评分服务不可用", scoreState.Err, "评分错误应存入评分工作流")
	assert.Nil(t, scoreState.Scores)

	analysisState := orch.Analysis().State()
	assert.Empty(t, analysisState.Err, "评分失败不应波及分析工作流")
	assert.NotNil(t, analysisState.Analysis, "分析应独立完成")

	assert.Equal(t, ViewAnalysis, orch.View(), "视图切换只取决于上传结果")
}

// TestAnalysisFailureDoesNotAffectScoring 反向验证独立性
func TestAnalysisFailureDoesNotAffectScoring(t *testing.T) {
	remote := &fakeRemote{
		analysisErr: gateway.NewRemoteError(gateway.OpFetchAnalysis, "分析服务不可用"),
	}
	orch := newTestOrchestrator(remote)

	_, err := orch.UploadAndEvaluate(context.Background(), pdfUpload())
	require.NoError(t, err)

	assert.NotNil(t, orch.Scoring().State().Scores)
	assert.Equal(t, "分析服务不可用", orch.Analysis().State().Err)
}

// TestStartOver 验证回到上传视图并清空各工作流的本地状态
func TestStartOver(t *testing.T) {
	remote := &fakeRemote{}
	orch := newTestOrchestrator(remote)

	_, err := orch.UploadAndEvaluate(context.Background(), pdfUpload())
	require.NoError(t, err)
	_, err = orch.Conversation().Send(context.Background(), "hello")
	require.NoError(t, err)

	orch.StartOver()

	assert.Equal(t, ViewUpload, orch.View())
	assert.Nil(t, orch.Documents().State().Document)
	assert.Nil(t, orch.Scoring().State().Scores)
	assert.Nil(t, orch.Analysis().State().Analysis)
	assert.Empty(t, orch.Conversation().State().Messages)
	assert.False(t, orch.CanConverse())
}
