package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"resume-insight-go/internal/config"
	"resume-insight-go/internal/gateway"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/orchestrator"
	"resume-insight-go/internal/types"
	"resume-insight-go/internal/workflow"
)

var (
	version     = "1.0.0"          //nolint:gochecknoglobals
	serviceName = "resume-insight" //nolint:gochecknoglobals
)

func main() {
	// 先用默认配置初始化日志，保证配置加载阶段也有日志可用
	logger.Init(logger.Config{Level: "info", Format: "pretty"})

	var configPath string
	var showVersion bool
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "配置文件路径")
	pflag.BoolVarP(&showVersion, "version", "v", false, "打印版本后退出")
	pflag.Parse()

	if showVersion {
		fmt.Printf("%s %s\n", serviceName, version)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	logger.Init(cfg.Logger)
	logger.Info().Str("base_url", cfg.Gateway.BaseURL).Msg("配置加载成功")

	gw := gateway.New(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.Gateway.Timeout()),
		gateway.WithUserAgent(cfg.Gateway.UserAgent),
	)

	documents := workflow.NewDocumentWorkflow(gw, cfg.Upload.MaxSizeBytes())
	scoring := workflow.NewScoringWorkflow(gw)
	analysis := workflow.NewAnalysisWorkflow(gw)
	conversation := workflow.NewConversationWorkflow(gw)
	orch := orchestrator.New(documents, scoring, analysis, conversation)

	runSession(orch)
}

// runSession 交互式会话循环，相当于原应用的页面层：
// 只读各工作流的状态快照并调用公开操作，自身不持有状态。
func runSession(orch *orchestrator.Orchestrator) {
	fmt.Printf("%s %s — 输入 help 查看命令\n", serviceName, version)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Printf("[%s]> ", orch.View())
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		verb, rest := splitCommand(line)
		switch verb {
		case "help":
			printHelp()
		case "quit", "exit":
			return
		case "upload":
			cmdUpload(orch, rest)
		case "current":
			cmdCurrent(orch)
		case "score":
			cmdScore(orch)
		case "jd":
			cmdScoreWithJD(orch, rest)
		case "analyze":
			cmdAnalyze(orch)
		case "ask":
			cmdAsk(orch, rest)
		case "history":
			cmdHistory(orch)
		case "clear":
			cmdClear(orch)
		case "reset":
			cmdReset(orch)
		case "state":
			cmdState(orch)
		case "restart":
			orch.StartOver()
			fmt.Println("已回到上传视图")
		default:
			fmt.Printf("未知命令: %s (输入 help 查看命令)\n", verb)
		}
	}
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	verb := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return verb, ""
	}
	return verb, strings.TrimSpace(parts[1])
}

func printHelp() {
	fmt.Println(`可用命令:
  upload <文件路径>   上传简历(PDF/DOCX)并触发评分与分析
  current            拉取服务端会话中的当前简历
  score              拉取ATS评分
  jd <岗位描述文本>   结合岗位描述重新评分
  analyze            拉取AI分析
  ask <问题>          向简历助手提问
  history            回放服务端会话历史
  clear              清空会话历史(服务端+本地)
  reset              重置简历助手
  state              打印各工作流状态
  restart            清空本地状态并回到上传视图
  quit               退出`)
}

func cmdUpload(orch *orchestrator.Orchestrator, path string) {
	if path == "" {
		fmt.Println("用法: upload <文件路径>")
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("读取文件失败: %v\n", err)
		return
	}

	file := workflow.UploadFile{
		Name:     filepath.Base(path),
		MIMEType: mimeTypeForFile(path),
		Content:  content,
	}

	doc, err := orch.UploadAndEvaluate(context.Background(), file)
	if err != nil {
		fmt.Printf("上传失败: %s\n", orch.Documents().State().Err)
		return
	}

	fmt.Printf("上传成功: %s\n", file.Name)
	printDocument(doc)
	printScoreState(orch.Scoring().State())
	printAnalysisState(orch.Analysis().State())
}

func cmdCurrent(orch *orchestrator.Orchestrator) {
	doc, err := orch.Documents().FetchCurrent(context.Background())
	if err != nil {
		fmt.Printf("获取当前简历失败: %s\n", orch.Documents().State().Err)
		return
	}
	printDocument(doc)
}

func cmdScore(orch *orchestrator.Orchestrator) {
	if _, err := orch.Scoring().FetchScore(context.Background()); err != nil {
		fmt.Printf("获取评分失败: %s\n", orch.Scoring().State().Err)
		return
	}
	printScoreState(orch.Scoring().State())
}

func cmdScoreWithJD(orch *orchestrator.Orchestrator, jdText string) {
	if jdText == "" {
		fmt.Println("用法: jd <岗位描述文本>")
		return
	}
	if _, err := orch.Scoring().ScoreWithJD(context.Background(), jdText); err != nil {
		fmt.Printf("岗位匹配评分失败: %s\n", orch.Scoring().State().Err)
		return
	}
	printScoreState(orch.Scoring().State())
}

func cmdAnalyze(orch *orchestrator.Orchestrator) {
	if _, err := orch.Analysis().FetchAnalysis(context.Background()); err != nil {
		fmt.Printf("获取分析失败: %s\n", orch.Analysis().State().Err)
		return
	}
	printAnalysisState(orch.Analysis().State())
}

func cmdAsk(orch *orchestrator.Orchestrator, question string) {
	if !orch.CanConverse() {
		fmt.Println("请先上传简历再与助手对话")
		return
	}

	answer, err := orch.Conversation().Send(context.Background(), question)
	if err != nil {
		state := orch.Conversation().State()
		if state.Err != "" {
			fmt.Printf("提问失败: %s\n", state.Err)
		} else {
			fmt.Printf("提问失败: %v\n", err)
		}
		return
	}

	fmt.Printf("助手: %s\n", answer.Message)
	if !answer.Relevant {
		fmt.Println("(助手提示该问题与简历无关)")
	}
}

func cmdHistory(orch *orchestrator.Orchestrator) {
	if _, err := orch.Conversation().FetchHistory(context.Background()); err != nil {
		fmt.Printf("获取历史失败: %s\n", orch.Conversation().State().Err)
		return
	}
	printMessages(orch.Conversation().State().Messages)
}

func cmdClear(orch *orchestrator.Orchestrator) {
	if err := orch.Conversation().Clear(context.Background()); err != nil {
		fmt.Printf("清空会话失败: %s\n", orch.Conversation().State().Err)
		return
	}
	fmt.Println("会话已清空")
}

func cmdReset(orch *orchestrator.Orchestrator) {
	if err := orch.Conversation().Reset(context.Background()); err != nil {
		fmt.Printf("重置助手失败: %s\n", orch.Conversation().State().Err)
		return
	}
	fmt.Println("助手已重置")
}

func cmdState(orch *orchestrator.Orchestrator) {
	docState := orch.Documents().State()
	fmt.Printf("文档: loading=%v err=%q file=%q\n", docState.IsLoading, docState.Err, docState.FileName)
	scoreState := orch.Scoring().State()
	fmt.Printf("评分: loading=%v err=%q has_scores=%v\n", scoreState.IsLoading, scoreState.Err, scoreState.Scores != nil)
	analysisState := orch.Analysis().State()
	fmt.Printf("分析: loading=%v err=%q has_analysis=%v\n", analysisState.IsLoading, analysisState.Err, analysisState.Analysis != nil)
	convState := orch.Conversation().State()
	fmt.Printf("会话: loading=%v err=%q messages=%d length=%d\n",
		convState.IsLoading, convState.Err, len(convState.Messages), convState.ConversationLength)
}

func mimeTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return workflow.MIMEPDF
	case ".docx":
		return workflow.MIMEDOCX
	default:
		return "application/octet-stream"
	}
}

func printDocument(doc *types.Document) {
	if doc == nil {
		return
	}
	if doc.Name != "" {
		fmt.Printf("  姓名: %s\n", doc.Name)
	}
	if len(doc.Skills) > 0 {
		fmt.Printf("  技能: %s\n", strings.Join(doc.Skills, ", "))
	}
	fmt.Printf("  工作经历 %d 条, 教育经历 %d 条\n", len(doc.Experience), len(doc.Education))
}

func printScoreState(state workflow.ScoreState) {
	if state.Scores == nil {
		if state.Err != "" {
			fmt.Printf("评分: 失败 (%s)\n", state.Err)
		}
		return
	}

	scores := state.Scores
	fmt.Printf("ATS总分: %d/100\n", scores.ATSScore)
	// 章节顺序即服务端下发顺序
	for _, section := range scores.SectionScores {
		fmt.Printf("  %-12s %d/100\n", section.Section, section.Score)
	}
	// 未做过JD评分时服务端可能下发空的jd_match对象
	if scores.JDMatch != nil && scores.JDMatch.TotalJDKeywords > 0 {
		fmt.Printf("  岗位匹配: %d%% (%d/%d 关键词命中)\n",
			scores.JDMatch.MatchPercentage, scores.JDMatch.MatchingKeywords, scores.JDMatch.TotalJDKeywords)
		if len(scores.JDMatch.MissingKeywords) > 0 {
			fmt.Printf("  缺失关键词: %s\n", strings.Join(scores.JDMatch.MissingKeywords, ", "))
		}
	}
	for _, weakness := range scores.Weaknesses {
		fmt.Printf("  薄弱章节: %s (%d, %s)\n", weakness.Section, weakness.Score, weakness.Severity)
	}
}

func printAnalysisState(state workflow.AnalysisState) {
	if state.Analysis == nil {
		if state.Err != "" {
			fmt.Printf("分析: 失败 (%s)\n", state.Err)
		}
		return
	}

	analysis := state.Analysis
	fmt.Printf("总体评价: %s\n", analysis.Feedback.OverallCritique)
	for _, strength := range analysis.Feedback.Strengths {
		fmt.Printf("  + %s\n", strength)
	}
	for _, weakness := range analysis.Feedback.Weaknesses {
		fmt.Printf("  - %s\n", weakness)
	}
	if analysis.Feedback.ScoreReasoning != "" {
		fmt.Printf("  评分依据: %s\n", analysis.Feedback.ScoreReasoning)
	}
	for _, improvement := range analysis.SectionImprovements {
		fmt.Printf("  [%s] %s\n", improvement.Section, improvement.CurrentQuality)
		for _, suggestion := range improvement.Suggestions {
			fmt.Printf("    * %s\n", suggestion)
		}
	}
	if len(analysis.KeywordSuggestions.SuggestedAdditions) > 0 {
		fmt.Printf("  建议补充关键词: %s\n", strings.Join(analysis.KeywordSuggestions.SuggestedAdditions, ", "))
	}
}

func printMessages(messages []types.Message) {
	if len(messages) == 0 {
		fmt.Println("(暂无会话记录)")
		return
	}
	for _, message := range messages {
		prefix := "用户"
		if message.Role == types.RoleAssistant {
			prefix = "助手"
		}
		fmt.Printf("%s: %s\n", prefix, message.Content)
	}
}
