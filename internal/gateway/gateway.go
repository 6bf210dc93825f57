package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/tracing"
	"resume-insight-go/internal/types"
)

// 远程操作名，错误归一化时用于定位失败的操作
const (
	OpUploadDocument   = "upload-document"
	OpFetchCurrent     = "fetch-current-document"
	OpFetchATSScore    = "fetch-ats-score"
	OpScoreWithJD      = "score-with-job-description"
	OpFetchAnalysis    = "fetch-analysis"
	OpChatAsk          = "chat-ask"
	OpChatHistory      = "chat-history"
	OpChatClearHistory = "chat-clear-history"
	OpChatReset        = "chat-reset"
)

// fallbackErrorMessage 无法从响应或传输层提取消息时的兜底文案
const fallbackErrorMessage = "请求远程服务失败"

// maxErrorBodyBytes 读取错误响应体的上限，防止异常响应占用过多内存
const maxErrorBodyBytes = 64 * 1024

// Gateway 远程简历评估服务的统一出口。
// 每个远程操作对应一个方法，单次尝试，不重试不缓存；
// 所有失败统一归一化为 RemoteError。
type Gateway struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// Option 定义配置选项函数
type Option func(*Gateway)

// WithHTTPClient 使用自定义HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.client.Timeout = timeout
	}
}

// WithUserAgent 配置请求使用的User-Agent
func WithUserAgent(userAgent string) Option {
	return func(g *Gateway) {
		g.userAgent = userAgent
	}
}

// WithLogger 配置自定义日志记录器
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// New 创建网关实例
func New(baseURL string, options ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "resume-insight-go/1.0",
		logger:    logger.Logger.With().Str("component", "gateway").Logger(),
	}

	for _, option := range options {
		option(g)
	}

	return g
}

// uploadEnvelope 上传接口的响应包装
type uploadEnvelope struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Resume  types.Document `json:"resume"`
}

// scoreEnvelope 评分接口的响应包装
type scoreEnvelope struct {
	Status string            `json:"status"`
	Scores types.ScoreReport `json:"scores"`
}

// analysisEnvelope 分析接口的响应包装
type analysisEnvelope struct {
	Status   string               `json:"status"`
	Analysis types.AnalysisReport `json:"analysis"`
}

// ChatAnswer 一次问答的服务端应答
type ChatAnswer struct {
	Message            string `json:"message"`
	Relevant           bool   `json:"relevant"`
	ConversationLength int    `json:"conversation_length"`
}

// ChatHistoryResult 服务端保存的完整会话历史
type ChatHistoryResult struct {
	History            []types.HistoryEntry `json:"history"`
	ConversationLength int                  `json:"conversation_length"`
}

// errorBody 服务端结构化错误响应体
type errorBody struct {
	Detail string `json:"detail"`
}

// UploadResume 上传简历文件(PDF/DOCX)，返回服务端解析出的文档。
// 调用方负责MIME类型校验，这里只做传输。
func (g *Gateway) UploadResume(ctx context.Context, filename, mimeType string, content []byte) (*types.Document, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, NewRemoteError(OpUploadDocument, fmt.Sprintf("构造上传请求失败: %v", err))
	}
	if _, err := part.Write(content); err != nil {
		return nil, NewRemoteError(OpUploadDocument, fmt.Sprintf("写入上传内容失败: %v", err))
	}
	if err := writer.Close(); err != nil {
		return nil, NewRemoteError(OpUploadDocument, fmt.Sprintf("构造上传请求失败: %v", err))
	}

	var envelope uploadEnvelope
	err = g.do(ctx, OpUploadDocument, http.MethodPost, "/documents/upload-resume",
		&body, writer.FormDataContentType(), &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Resume, nil
}

// GetCurrentResume 读取服务端会话中的当前简历，幂等
func (g *Gateway) GetCurrentResume(ctx context.Context) (*types.Document, error) {
	var doc types.Document
	err := g.do(ctx, OpFetchCurrent, http.MethodGet, "/documents/current-resume", nil, "", &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetATSScore 获取当前简历的ATS评分报告
func (g *Gateway) GetATSScore(ctx context.Context) (*types.ScoreReport, error) {
	var envelope scoreEnvelope
	err := g.do(ctx, OpFetchATSScore, http.MethodGet, "/scoring/score-resume", nil, "", &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Scores, nil
}

// ScoreWithJD 结合岗位描述文本重新评分
func (g *Gateway) ScoreWithJD(ctx context.Context, jdText string) (*types.ScoreReport, error) {
	payload, err := json.Marshal(map[string]string{"jd_text": jdText})
	if err != nil {
		return nil, NewRemoteError(OpScoreWithJD, fmt.Sprintf("构造请求失败: %v", err))
	}

	g.logger.Debug().
		Str("jd_text", tracing.SafeJDText(jdText)).
		Msg("发起岗位描述匹配评分请求")

	var envelope scoreEnvelope
	err = g.do(ctx, OpScoreWithJD, http.MethodPost, "/scoring/score-with-jd",
		bytes.NewReader(payload), "application/json", &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Scores, nil
}

// AnalyzeResume 获取当前简历的AI分析报告
func (g *Gateway) AnalyzeResume(ctx context.Context) (*types.AnalysisReport, error) {
	var envelope analysisEnvelope
	err := g.do(ctx, OpFetchAnalysis, http.MethodGet, "/analysis/analyze-resume", nil, "", &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Analysis, nil
}

// ChatAsk 向简历助手提问
func (g *Gateway) ChatAsk(ctx context.Context, message string) (*ChatAnswer, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, NewRemoteError(OpChatAsk, fmt.Sprintf("构造请求失败: %v", err))
	}

	g.logger.Debug().
		Str("message", tracing.SafeChatMessage(message)).
		Msg("发起助手问答请求")

	var answer ChatAnswer
	err = g.do(ctx, OpChatAsk, http.MethodPost, "/chatbot/ask",
		bytes.NewReader(payload), "application/json", &answer)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// ChatHistory 获取服务端保存的完整会话历史
func (g *Gateway) ChatHistory(ctx context.Context) (*ChatHistoryResult, error) {
	var result ChatHistoryResult
	err := g.do(ctx, OpChatHistory, http.MethodGet, "/chatbot/history", nil, "", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatClearHistory 清空服务端会话历史
func (g *Gateway) ChatClearHistory(ctx context.Context) error {
	return g.do(ctx, OpChatClearHistory, http.MethodDelete, "/chatbot/clear-history", nil, "", nil)
}

// ChatReset 重置简历助手
func (g *Gateway) ChatReset(ctx context.Context) error {
	return g.do(ctx, OpChatReset, http.MethodPost, "/chatbot/reset", nil, "", nil)
}

// do 执行一次远程调用：构造请求、附加标准元数据、
// 在边界处解码响应，所有失败归一化为 RemoteError。
func (g *Gateway) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return NewRemoteError(op, fmt.Sprintf("构造请求失败: %v", err))
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	requestID := g.newRequestID()
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	startTime := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		// 传输层失败：没有结构化错误体可提取，使用传输层消息
		message := err.Error()
		if message == "" {
			message = fallbackErrorMessage
		}
		g.logger.Error().
			Str("op", op).
			Str("request_id", requestID).
			Err(err).
			Msg("远程调用传输失败")
		return NewRemoteError(op, message)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		message := g.extractErrorMessage(resp)
		g.logger.Warn().
			Str("op", op).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("detail", tracing.SafeErrorBody(message)).
			Msg("远程调用返回错误")
		return NewRemoteError(op, message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// 响应结构不符合约定，立即失败而不是带着缺失字段继续
			return NewRemoteError(op, fmt.Sprintf("响应格式不符合预期: %v", err))
		}
	} else {
		// ack类操作不关心响应体，读完以便复用连接
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	g.logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("远程调用完成")
	return nil
}

// extractErrorMessage 错误消息归一化：
// 优先取结构化错误体的detail字段，其次HTTP状态描述，最后兜底文案
func (g *Gateway) extractErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err == nil && len(data) > 0 {
		var body errorBody
		if jsonErr := json.Unmarshal(data, &body); jsonErr == nil && body.Detail != "" {
			return body.Detail
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Sprintf("%s (HTTP %d)", text, resp.StatusCode)
	}
	return fallbackErrorMessage
}

// newRequestID 生成UUIDv7请求标识。生成失败只影响日志关联，不中断请求。
func (g *Gateway) newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}
	return id.String()
}
