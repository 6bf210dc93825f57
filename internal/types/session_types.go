package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role 消息角色
type Role string

const (
	// RoleUser 用户消息
	RoleUser Role = "user"
	// RoleAssistant 助手消息
	RoleAssistant Role = "assistant"
)

// Experience 工作经历条目
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education 教育经历条目
type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationYear string `json:"graduation_year"`
}

// Document 当前会话的简历文档，由服务端解析后返回。
// 服务端可能附带未知的扩展字段，统一保留在 Extra 中。
type Document struct {
	Name       string       `json:"name,omitempty"`
	Email      string       `json:"email,omitempty"`
	Phone      string       `json:"phone,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	RawText    string       `json:"raw_text"`

	// Extra 服务端返回但本层不解释的扩展字段
	Extra map[string]json.RawMessage `json:"-"`
}

// documentAlias 避免UnmarshalJSON递归
type documentAlias Document

var documentKnownKeys = map[string]bool{
	"name": true, "email": true, "phone": true, "summary": true,
	"skills": true, "experience": true, "education": true, "raw_text": true,
}

// UnmarshalJSON 解码已知字段，同时保留未知字段
func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range documentKnownKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*d = Document(alias)
	return nil
}

// SectionScore 单个章节的得分
type SectionScore struct {
	Section string `json:"section"`
	Score   int    `json:"score"`
}

// SectionScores 章节得分序列。服务端以JSON对象下发，
// 键的出现顺序即展示顺序，因此不能解码为Go map。
type SectionScores []SectionScore

// UnmarshalJSON 按对象键的原始顺序解码
func (s *SectionScores) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("section_scores 应为JSON对象, 实际为 %v", tok)
	}

	scores := make(SectionScores, 0, 8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		section, ok := tok.(string)
		if !ok {
			return fmt.Errorf("section_scores 键类型错误: %v", tok)
		}

		var score int
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("章节 %s 的分数解码失败: %w", section, err)
		}
		scores = append(scores, SectionScore{Section: section, Score: score})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = scores
	return nil
}

// MarshalJSON 按原始顺序编码回JSON对象
func (s SectionScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Section)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Score)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get 按章节名查找得分
func (s SectionScores) Get(section string) (int, bool) {
	for _, entry := range s {
		if entry.Section == section {
			return entry.Score, true
		}
	}
	return 0, false
}

// Weakness 需要改进的薄弱章节
type Weakness struct {
	Section  string `json:"section"`
	Score    int    `json:"score"`
	Severity string `json:"severity"` // critical, high, medium
}

// JDMatch 简历与岗位描述的匹配结果
type JDMatch struct {
	MatchPercentage  int      `json:"match_percentage"`
	MatchingKeywords int      `json:"matching_keywords"`
	TotalJDKeywords  int      `json:"total_jd_keywords"`
	MissingKeywords  []string `json:"missing_keywords"`
}

// ScoreReport ATS评分报告
type ScoreReport struct {
	ATSScore        int           `json:"ats_score"`
	SectionScores   SectionScores `json:"section_scores"`
	KeywordScore    int           `json:"keyword_score"`
	FormattingScore int           `json:"formatting_score"`
	JDMatch         *JDMatch      `json:"jd_match,omitempty"`
	Weaknesses      []Weakness    `json:"weaknesses"`
}

// Feedback AI反馈的总体评价部分
type Feedback struct {
	OverallCritique string   `json:"overall_critique"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	ScoreReasoning  string   `json:"score_reasoning"`
}

// SectionImprovement 章节级改进建议
type SectionImprovement struct {
	Section        string   `json:"section"`
	CurrentQuality string   `json:"current_quality"`
	Suggestions    []string `json:"suggestions"`
}

// KeywordSuggestions 关键词优化建议
type KeywordSuggestions struct {
	MissingKeywords    []string `json:"missing_keywords"`
	SuggestedAdditions []string `json:"suggested_additions"`
	Reasoning          string   `json:"reasoning"`
}

// AnalysisReport AI分析报告
type AnalysisReport struct {
	Feedback            Feedback             `json:"feedback"`
	SectionImprovements []SectionImprovement `json:"section_improvements"`
	KeywordSuggestions  KeywordSuggestions   `json:"keyword_suggestions"`
}

// Message 会话中的一条消息。
// ID在单个会话内唯一且单调递增，排序即会话顺序。
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Relevant 仅助手消息携带：服务端判定问题是否与简历相关
	Relevant *bool `json:"relevant,omitempty"`
}

// HistoryEntry 服务端历史记录中的一条消息
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
