package risk

import (
	"strings"
	"sync"
)

// Tier 风险等级（有序：positive < neutral < negative < critical）
type Tier string

const (
	TierPositive Tier = "positive"
	TierNeutral  Tier = "neutral"
	TierNegative Tier = "negative"
	TierCritical Tier = "critical"
)

// Rank 返回等级序号，便于比较
func (t Tier) Rank() int {
	switch t {
	case TierCritical:
		return 3
	case TierNegative:
		return 2
	case TierNeutral:
		return 1
	default:
		return 0
	}
}

// defaultLexicon 固定的风险关键词表（产品工作语言为越南语）
var defaultLexicon = []string{
	"buồn",
	"lo lắng",
	"stress",
	"mệt mỏi",
	"tự tử",
	"chết",
	"không muốn sống",
}

// Policy 风险分级策略：关键词表 + 阈值
type Policy struct {
	Lexicon    []string
	CriticalAt int // 得分达到该值判为 critical
	NegativeAt int
	NeutralAt  int
}

// DefaultPolicy 返回参考实现的默认策略
func DefaultPolicy() Policy {
	return Policy{
		Lexicon:    defaultLexicon,
		CriticalAt: 3,
		NegativeAt: 2,
		NeutralAt:  1,
	}
}

// Assessment 单条消息的风险评估结果
type Assessment struct {
	Score int  `json:"score"`
	Tier  Tier `json:"tier"`
}

// Score 统计文本命中的关键词个数。
// 按"命中多少个不同关键词"计数，同一关键词重复出现只算一次；
// 匹配为大小写不敏感的子串匹配。
func (p Policy) Score(text string) int {
	normalized := strings.ToLower(text)

	count := 0
	for _, word := range p.Lexicon {
		if word == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(word)) {
			count++
		}
	}
	return count
}

// Classify 对单条消息判级。纯函数，任何输入都有结果，空串得 positive。
func (p Policy) Classify(text string) Assessment {
	score := p.Score(text)
	return Assessment{Score: score, Tier: p.TierOf(score)}
}

// TierOf 按阈值从高到低判级，先命中者生效
func (p Policy) TierOf(score int) Tier {
	switch {
	case score >= p.CriticalAt:
		return TierCritical
	case score >= p.NegativeAt:
		return TierNegative
	case score >= p.NeutralAt:
		return TierNeutral
	default:
		return TierPositive
	}
}

// Tracker 会话级风险跟踪器。
// cumulative 为 false 时每条消息独立判级（默认策略）；
// 为 true 时把整个会话的得分累加后再判级，用于识别持续的低强度消极趋势。
type Tracker struct {
	policy     Policy
	cumulative bool

	mu    sync.Mutex
	total int
}

// NewTracker 创建会话风险跟踪器
func NewTracker(policy Policy, cumulative bool) *Tracker {
	return &Tracker{policy: policy, cumulative: cumulative}
}

// Observe 评估一条消息并更新会话累计得分
func (t *Tracker) Observe(text string) Assessment {
	score := t.policy.Score(text)

	t.mu.Lock()
	t.total += score
	total := t.total
	t.mu.Unlock()

	if t.cumulative {
		return Assessment{Score: score, Tier: t.policy.TierOf(total)}
	}
	return Assessment{Score: score, Tier: t.policy.TierOf(score)}
}

// Total 返回会话累计得分
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
