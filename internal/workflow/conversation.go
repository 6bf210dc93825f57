package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/tracing"
	"resume-insight-go/internal/types"
)

// ConversationWorkflow 持有会话消息序列的工作流。
//
// 消息序列在单个会话内只追加，本地生成的消息ID单调递增，
// ID顺序即会话顺序。一次成功的Send恰好追加一条用户消息和
// 一条助手消息；失败时乐观追加的用户消息保留，用户的输入
// 永远不会被悄悄抹掉。
type ConversationWorkflow struct {
	mu sync.Mutex

	gw     ConversationGateway
	logger zerolog.Logger

	// gen 状态代数。本地清空和历史整体替换都会使其递增，
	// 在途的问答响应据此判断自己是否还应落到当前会话上。
	gen uint64

	messages []types.Message
	nextID   int64
	// conversationLength 服务端报告的会话长度。
	// 乐观追加之后它可能与本地消息数不一致；并发Send时
	// 以最后返回的响应为准。
	conversationLength int
	isLoading          bool
	err                string
}

// ConversationState 会话工作流的只读状态快照
type ConversationState struct {
	Messages           []types.Message
	ConversationLength int
	Status
}

// NewConversationWorkflow 创建会话工作流
func NewConversationWorkflow(gw ConversationGateway) *ConversationWorkflow {
	return &ConversationWorkflow{
		gw:     gw,
		nextID: 1,
		logger: logger.Logger.With().Str("workflow", "conversation").Logger(),
	}
}

// Send 发送一条用户消息并等待助手应答。
//
// 空白消息直接拒绝，不产生任何状态变化（守卫而非错误态）。
// 用户消息在网络调用发起前同步追加（乐观追加），因此界面能
// 立即反映用户的输入；应答到达后追加助手消息并更新服务端
// 会话长度。失败时只记录错误，不回滚用户消息。
func (w *ConversationWorkflow) Send(ctx context.Context, text string) (*gateway.ChatAnswer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("message", "消息内容不能为空")
	}

	w.mu.Lock()
	userID := w.nextID
	w.nextID++
	w.messages = append(w.messages, types.Message{
		ID:        userID,
		Role:      types.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	w.isLoading = true
	w.err = ""
	gen := w.gen
	w.mu.Unlock()

	answer, err := w.gw.ChatAsk(ctx, text)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		// 会话在请求期间已被清空或整体替换，应答不再落地
		w.isLoading = false
		w.logger.Debug().Int64("user_id", userID).Msg("问答应答已过期，跳过状态写入")
		return answer, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		w.logger.Warn().Int64("user_id", userID).Err(err).Msg("问答失败，保留用户消息")
		return nil, err
	}

	relevant := answer.Relevant
	w.messages = append(w.messages, types.Message{
		ID:        w.nextID,
		Role:      types.RoleAssistant,
		Content:   answer.Message,
		Timestamp: time.Now(),
		Relevant:  &relevant,
	})
	w.nextID++
	w.conversationLength = answer.ConversationLength
	w.err = ""

	w.logger.Debug().
		Int64("user_id", userID).
		Bool("relevant", answer.Relevant).
		Int("conversation_length", answer.ConversationLength).
		Str("answer", tracing.SafeChatMessage(answer.Message)).
		Msg("问答完成")
	return answer, nil
}

// FetchHistory 用服务端历史整体替换本地消息序列（替换而非合并）。
// 本地ID按服务端顺序重新连续分配，因此对同一份服务端历史
// 重复调用得到完全相同的本地序列。
func (w *ConversationWorkflow) FetchHistory(ctx context.Context) (*gateway.ChatHistoryResult, error) {
	gen := w.begin()
	result, err := w.gw.ChatHistory(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		w.isLoading = false
		return result, err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		return nil, err
	}

	messages := make([]types.Message, 0, len(result.History))
	for i, entry := range result.History {
		// 服务端历史不携带时间戳，回放消息的Timestamp保持零值
		messages = append(messages, types.Message{
			ID:      int64(i + 1),
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	w.messages = messages
	w.nextID = int64(len(messages) + 1)
	w.conversationLength = result.ConversationLength
	w.err = ""
	// 整体替换后，在途问答的应答不应再追加到新序列上
	w.gen++

	w.logger.Info().Int("messages", len(messages)).Msg("会话历史已回放")
	return result, nil
}

// Clear 清空服务端与本地的会话历史。
// 失败即关闭：网关调用失败时本地状态保持不变，避免界面
// 显示出与服务端不一致的空会话。
func (w *ConversationWorkflow) Clear(ctx context.Context) error {
	return w.clearRemote(ctx, w.gw.ChatClearHistory)
}

// Reset 重置简历助手，成功后本地会话同样清空，语义同Clear
func (w *ConversationWorkflow) Reset(ctx context.Context) error {
	return w.clearRemote(ctx, w.gw.ChatReset)
}

func (w *ConversationWorkflow) clearRemote(ctx context.Context, call func(context.Context) error) error {
	gen := w.begin()
	err := call(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		w.isLoading = false
		return err
	}

	w.isLoading = false
	if err != nil {
		w.err = gateway.NormalizedMessage(err)
		w.logger.Warn().Err(err).Msg("清空会话失败，本地状态保持不变")
		return err
	}

	w.messages = make([]types.Message, 0)
	w.conversationLength = 0
	w.nextID = 1
	w.err = ""
	w.gen++
	return nil
}

// AddLocalMessage 仅在本地追加一条消息，不发起网络调用。
// 供界面注入提示类消息使用；消息形状与网络来源的消息一致，
// 下游渲染无需区分来源。
func (w *ConversationWorkflow) AddLocalMessage(role types.Role, content string) types.Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	message := types.Message{
		ID:        w.nextID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	w.nextID++
	w.messages = append(w.messages, message)
	return message
}

// ClearMessages 仅清空本地消息序列，不发起网络调用
func (w *ConversationWorkflow) ClearMessages() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = make([]types.Message, 0)
	w.conversationLength = 0
	w.nextID = 1
	w.gen++
}

// State 返回只读状态快照，消息序列为防御性拷贝
func (w *ConversationWorkflow) State() ConversationState {
	w.mu.Lock()
	defer w.mu.Unlock()

	messages := make([]types.Message, len(w.messages))
	copy(messages, w.messages)

	return ConversationState{
		Messages:           messages,
		ConversationLength: w.conversationLength,
		Status:             Status{IsLoading: w.isLoading, Err: w.err},
	}
}

func (w *ConversationWorkflow) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.isLoading = true
	w.err = ""
	return w.gen
}
