package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSONBody(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// TestUploadResume 验证上传请求的multipart构造与响应解码
func TestUploadResume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/documents/upload-resume", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"), "请求应携带X-Request-ID")
		assert.Equal(t, "resume-insight-go/test", r.Header.Get("User-Agent"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err, "应能读到file字段")
		defer file.Close()
		assert.Equal(t, "resume.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"), "文件部件应携带MIME类型")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"message": "Resume parsed successfully",
			"resume": {"name": "张三", "skills": ["Go", "SQL"], "raw_text": "..."}
		}`))
	}))
	defer server.Close()

	g := New(server.URL, WithUserAgent("resume-insight-go/test"))
	doc, err := g.UploadResume(context.Background(), "resume.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "张三", doc.Name)
	assert.Equal(t, []string{"Go", "SQL"}, doc.Skills)
}

// TestErrorNormalizationDetail 验证结构化错误体的detail字段被原样提取
func TestErrorNormalizationDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "No resume uploaded yet"}`))
	}))
	defer server.Close()

	g := New(server.URL)
	_, err := g.GetATSScore(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote), "网关失败应归一化为RemoteError")

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "No resume uploaded yet", remoteErr.Message, "detail字段应原样透出")
	assert.Equal(t, OpFetchATSScore, remoteErr.Op)
}

// TestErrorNormalizationFallback 验证无结构化错误体时退回HTTP状态描述
func TestErrorNormalizationFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer server.Close()

	g := New(server.URL)
	_, err := g.AnalyzeResume(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Message, "Bad Gateway")
	assert.Contains(t, remoteErr.Message, "502")
}

// TestTransportErrorNormalization 验证传输层失败同样归一化为RemoteError
func TestTransportErrorNormalization(t *testing.T) {
	// 指向未监听的地址
	g := New("http://127.0.0.1:1")
	_, err := g.GetCurrentResume(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
	assert.NotEmpty(t, NormalizedMessage(err))
}

// TestSchemaMismatchFailsFast 验证响应结构不符合约定时立即失败
func TestSchemaMismatchFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// scores应为对象，这里故意返回字符串
		_, _ = w.Write([]byte(`{"status": "success", "scores": "oops"}`))
	}))
	defer server.Close()

	g := New(server.URL)
	_, err := g.GetATSScore(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote), "结构不匹配应作为RemoteError失败")
}

// TestChatAsk 验证问答请求体与应答解码
func TestChatAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chatbot/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "Yes, mostly.", "relevant": true, "conversation_length": 2}`))
	}))
	defer server.Close()

	g := New(server.URL)
	answer, err := g.ChatAsk(context.Background(), "Is my resume ATS-friendly?")
	require.NoError(t, err)
	assert.Equal(t, "Yes, mostly.", answer.Message)
	assert.True(t, answer.Relevant)
	assert.Equal(t, 2, answer.ConversationLength)
}

// TestChatHistory 验证历史接口解码
func TestChatHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chatbot/history", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"history": [
				{"role": "user", "content": "hi"},
				{"role": "assistant", "content": "hello"}
			],
			"conversation_length": 2
		}`))
	}))
	defer server.Close()

	g := New(server.URL)
	result, err := g.ChatHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, result.History, 2)
	assert.Equal(t, "hi", result.History[0].Content)
	assert.Equal(t, 2, result.ConversationLength)
}

// TestChatClearAndReset 验证ack类操作的方法与路径
func TestChatClearAndReset(t *testing.T) {
	var clearMethod, resetMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chatbot/clear-history":
			clearMethod = r.Method
		case "/chatbot/reset":
			resetMethod = r.Method
		default:
			t.Errorf("未预期的路径: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success"}`))
	}))
	defer server.Close()

	g := New(server.URL)
	require.NoError(t, g.ChatClearHistory(context.Background()))
	require.NoError(t, g.ChatReset(context.Background()))
	assert.Equal(t, http.MethodDelete, clearMethod, "清空历史应使用DELETE")
	assert.Equal(t, http.MethodPost, resetMethod, "重置应使用POST")
}

// TestScoreWithJD 验证JD评分请求体
func TestScoreWithJD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scoring/score-with-jd", r.URL.Path)
		var payload map[string]string
		require.NoError(t, decodeJSONBody(r, &payload))
		assert.Equal(t, "需要Go和Kubernetes经验", payload["jd_text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"scores": {
				"ats_score": 70,
				"section_scores": {"summary": 80},
				"jd_match": {"match_percentage": 50, "matching_keywords": 1, "total_jd_keywords": 2, "missing_keywords": ["kubernetes"]}
			}
		}`))
	}))
	defer server.Close()

	g := New(server.URL)
	scores, err := g.ScoreWithJD(context.Background(), "需要Go和Kubernetes经验")
	require.NoError(t, err)
	require.NotNil(t, scores.JDMatch)
	assert.Equal(t, 50, scores.JDMatch.MatchPercentage)
}
