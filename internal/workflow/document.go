package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/types"
)

// 允许上传的MIME类型
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// defaultMaxUploadBytes 未配置时的上传大小上限
const defaultMaxUploadBytes = 10 * 1024 * 1024

var allowedUploadMIMETypes = map[string]bool{
	MIMEPDF:  true,
	MIMEDOCX: true,
}

// UploadFile 待上传的简历文件
type UploadFile struct {
	Name     string
	MIMEType string
	Content  []byte
}

// DocumentWorkflow 持有"当前已上传文档"状态的工作流。
// 同一时刻至多存在一个当前文档，每次上传成功整体替换。
type DocumentWorkflow struct {
	mu sync.Mutex

	gw             DocumentGateway
	maxUploadBytes int64
	logger         zerolog.Logger

	// gen 状态代数。本地Clear会使其递增，
	// 迟到的网络响应据此判断自己是否已过期。
	gen uint64

	document  *types.Document
	fileName  string
	isLoading bool
	err       string
}

// DocumentState 文档工作流的只读状态快照
type DocumentState struct {
	// Document 当前文档。调用方不应修改其内容。
	Document *types.Document
	FileName string
	Status
}

// NewDocumentWorkflow 创建文档工作流。
// maxUploadBytes<=0 时使用默认上限。
func NewDocumentWorkflow(gw DocumentGateway, maxUploadBytes int64) *DocumentWorkflow {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentWorkflow{
		gw:             gw,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Logger.With().Str("workflow", "document").Logger(),
	}
}

// Upload 上传简历文件并存储服务端解析出的文档。
// MIME类型和大小在本地校验，不通过校验时不会发起网络调用；
// 上传失败时保留之前的文档。
func (w *DocumentWorkflow) Upload(ctx context.Context, file UploadFile) (*types.Document, error) {
	if !allowedUploadMIMETypes[file.MIMEType] {
		verr := &ValidationError{Field: "file", Message: "仅支持PDF和DOCX格式的简历文件"}
		w.setError(verr.Message)
		return nil, verr
	}
	if int64(len(file.Content)) > w.maxUploadBytes {
		verr := &ValidationError{Field: "file",
			Message: fmt.Sprintf("文件大小超过上限 %dMB", w.maxUploadBytes/(1024*1024))}
		w.setError(verr.Message)
		return nil, verr
	}

	gen := w.begin()
	doc, err := w.gw.UploadResume(ctx, file.Name, file.MIMEType, file.Content)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		// 状态在请求期间已被清空，丢弃过期响应
		w.isLoading = false
		w.logger.Debug().Str("file", file.Name).Msg("上传响应已过期，跳过状态写入")
		return doc, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		w.logger.Warn().Str("file", file.Name).Err(err).Msg("简历上传失败")
		return nil, err
	}

	w.document = doc
	w.fileName = file.Name
	w.err = ""
	w.logger.Info().Str("file", file.Name).Int("skills", len(doc.Skills)).Msg("简历上传成功")
	return doc, nil
}

// FetchCurrent 读取服务端会话中的当前文档，幂等
func (w *DocumentWorkflow) FetchCurrent(ctx context.Context) (*types.Document, error) {
	gen := w.begin()
	doc, err := w.gw.GetCurrentResume(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		w.isLoading = false
		return doc, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		return nil, err
	}

	w.document = doc
	w.err = ""
	return doc, nil
}

// Clear 清空本地文档状态，不发起网络调用
func (w *DocumentWorkflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.document = nil
	w.fileName = ""
	w.err = ""
	w.gen++
}

// State 返回只读状态快照
func (w *DocumentWorkflow) State() DocumentState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := DocumentState{
		FileName: w.fileName,
		Status:   Status{IsLoading: w.isLoading, Err: w.err},
	}
	if w.document != nil {
		// 浅拷贝，避免调用方替换整个文档
		cpy := *w.document
		state.Document = &cpy
	}
	return state
}

// HasDocument 当前是否存在已上传的文档
func (w *DocumentWorkflow) HasDocument() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.document != nil
}

// begin 进入加载态：置isLoading、清空上次错误，并返回当前代数
func (w *DocumentWorkflow) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isLoading = true
	w.err = ""
	return w.gen
}

// setError 仅记录错误（本地校验失败时未进入加载态）
func (w *DocumentWorkflow) setError(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = message
}
