package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Call 是一次工具调用的 name+arguments 快照，用于循环检测的比对
type Call struct {
	Name      string
	Arguments map[string]interface{}
}

// canonicalArgs 返回参数的确定性 JSON 编码 (key 排序)，用于逐字节比较
func canonicalArgs(args map[string]interface{}) string {
	if args == nil {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(args[k])
		if err != nil {
			vb = []byte(`null`)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// equals 判断两次调用是否逐字节相同 (name + canonicalized arguments)
func (c Call) equals(other Call) bool {
	return c.Name == other.Name && canonicalArgs(c.Arguments) == canonicalArgs(other.Arguments)
}

// ToolCallTracker 是一个硬性拒绝的循环检测器：维护最近 N 次工具调用的环形
// 缓冲区，在同一调用即将重复达到阈值、或一条重复调用链正在延续时拒绝执行。
//
// 与 service.LoopDetector 的软性反思提示不同 (那是在 AgentLoop 步骤节奏中
// 注入给模型的建议)，这里是在工具分发边界上的硬性拒绝——调用永远不会被
// 执行，直接返回错误。两者服务于不同的关注点，互不替代。
type ToolCallTracker struct {
	mu            sync.Mutex
	recent        []Call
	maxRepeats    int
	chainLen      int
}

// NewToolCallTracker 创建一个追踪器。maxRepeats 是连续相同调用的拒绝阈值，
// chainLen 是判定"重复调用链"时考察的链长度。默认值 2 和 3 来自原始实现。
func NewToolCallTracker(maxRepeats, chainLen int) *ToolCallTracker {
	if maxRepeats <= 0 {
		maxRepeats = 2
	}
	if chainLen <= 0 {
		chainLen = 3
	}
	return &ToolCallTracker{
		maxRepeats: maxRepeats,
		chainLen:   chainLen,
		recent:     make([]Call, 0, maxRepeats*chainLen),
	}
}

// Check 在执行调用 c 之前调用。若会构成循环，返回一条诊断信息和 false；
// 否则记录该调用并返回 true。
func (t *ToolCallTracker) Check(c Call) (message string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isCallLoop(c) {
		msg := t.createLoopDetectionMessage(c)
		return msg, false
	}

	t.recent = append(t.recent, c)
	capLimit := t.maxRepeats * t.chainLen
	if len(t.recent) > capLimit {
		t.recent = t.recent[len(t.recent)-capLimit:]
	}
	return "", true
}

// Reset clears all recorded history.
func (t *ToolCallTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = t.recent[:0]
}

// isCallLoop checks two conditions: the trailing maxRepeats calls already
// equal c (about to become maxRepeats+1 consecutive matches), or the
// trailing chainLen-length window forms a repeating chain that c continues.
func (t *ToolCallTracker) isCallLoop(c Call) bool {
	n := len(t.recent)
	if n < t.chainLen {
		return false
	}

	// Condition 1: the last maxRepeats calls are all identical to c.
	if n >= t.maxRepeats {
		allMatch := true
		for i := n - t.maxRepeats; i < n; i++ {
			if !t.recent[i].equals(c) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return true
		}
	}

	// Condition 2: the trailing chainLen window repeats, and c continues it.
	if t.chainLen > 0 && n >= 2*t.chainLen {
		chain := t.recent[n-t.chainLen:]
		prevChain := t.recent[n-2*t.chainLen : n-t.chainLen]
		repeating := true
		for i := 0; i < t.chainLen; i++ {
			if !chain[i].equals(prevChain[i]) {
				repeating = false
				break
			}
		}
		if repeating && chain[0].equals(c) {
			return true
		}
	}

	return false
}

// createLoopDetectionMessage builds the diagnostic enumerating the
// offending repeating chain, mirroring the original implementation's
// operator-facing warning text.
func (t *ToolCallTracker) createLoopDetectionMessage(c Call) string {
	var b strings.Builder
	b.WriteString("⚠️ Call loop detected! ⚠️\n")
	fmt.Fprintf(&b, "The tool call %q with arguments %s would repeat a detected loop.\n", c.Name, canonicalArgs(c.Arguments))
	b.WriteString("Recent call chain:\n")

	n := len(t.recent)
	start := n - t.chainLen
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		fmt.Fprintf(&b, "  %d. %s(%s)\n", i-start+1, t.recent[i].Name, canonicalArgs(t.recent[i].Arguments))
	}
	b.WriteString("Stop repeating this pattern and try a different approach.")
	return b.String()
}
