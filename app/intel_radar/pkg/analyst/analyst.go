package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// Gateway 分析器所需的 LLM 网关接口
type Gateway interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// 第二意见缺省共识度。与编排层聚合时的人格缺省 75 并不一致，
// 二者在来源系统中即如此，这里按观察值分别保留。
const defaultConsensusLevel = 70

// fallbackConfidence 兜底分析的固定置信度
const fallbackConfidence = 50

// Analyzer 按人格执行单次分析
type Analyzer struct {
	gw Gateway
}

// NewAnalyzer 创建分析器
func NewAnalyzer(gw Gateway) *Analyzer {
	return &Analyzer{gw: gw}
}

// Analyze 执行一次人格分析。
// 硬性保证：永不返回错误，调用方总能拿到结构完整的结果；
// 上游彻底不可用时退化为确定性兜底分析。
func (a *Analyzer) Analyze(ctx context.Context, p *persona.Persona, request string, org model.OrganizationContext, secondOpinion bool) *model.AnalysisResult {
	primary := a.runPrimary(ctx, p, request, org)
	if primary.Status == model.StatusFallback || !secondOpinion {
		return primary
	}

	so := a.runSecondOpinion(ctx, p, primary)
	primary.SecondOpinion = so

	consensus := so.ConfidenceLevel
	if consensus == 0 {
		consensus = defaultConsensusLevel
	}
	primary.ConsensusLevel = model.ClampConfidence(consensus)

	return primary
}

// runPrimary 首轮分析：组合提示词 → 调用网关 → 防御式解析
func (a *Analyzer) runPrimary(ctx context.Context, p *persona.Persona, request string, org model.OrganizationContext) *model.AnalysisResult {
	raw, err := a.gw.Call(ctx, p.SystemPrompt, buildPrompt(p, request, org))
	if err != nil {
		logger.Log.Errorf("人格 [%s] 分析调用失败，使用兜底结果: %v", p.ID, err)
		return fallbackResult(p)
	}

	result, ok := parseAnalysis(raw)
	if !ok {
		// 解析失败不终止流水线，包装为纯文本响应
		result = &model.AnalysisResult{
			AnalysisText: raw,
			Status:       model.StatusTextResponse,
		}
	}
	result.Persona = p.ID
	result.Confidence = model.ClampConfidence(result.Confidence)
	return result
}

// runSecondOpinion 第二轮：对首轮结果做盲点批判，解析失败退化为桩对象
func (a *Analyzer) runSecondOpinion(ctx context.Context, p *persona.Persona, primary *model.AnalysisResult) *model.SecondOpinion {
	primaryJSON, err := json.Marshal(primary)
	if err != nil {
		primaryJSON = []byte(primary.Analysis)
	}

	raw, err := a.gw.Call(ctx, p.SystemPrompt, buildSecondOpinionPrompt(string(primaryJSON)))
	if err != nil {
		logger.Log.Warnf("人格 [%s] 第二意见调用失败: %v", p.ID, err)
		return &model.SecondOpinion{
			AlternativeAssessment: "第二意见不可用",
			ConfidenceLevel:       defaultConsensusLevel,
			Status:                model.StatusFallback,
		}
	}

	var so model.SecondOpinion
	if err := json.Unmarshal([]byte(stripFences(raw)), &so); err != nil {
		logger.Log.Warnf("人格 [%s] 第二意见解析失败: %v", p.ID, err)
		return &model.SecondOpinion{
			AlternativeAssessment: raw,
			ConfidenceLevel:       defaultConsensusLevel,
			Status:                model.StatusTextResponse,
		}
	}
	so.ConfidenceLevel = model.ClampConfidence(so.ConfidenceLevel)
	return &so
}

// buildPrompt 组合提示词：人格设定 + 组织上下文 + 分析框架 + 请求 + JSON 约束
func buildPrompt(p *persona.Persona, request string, org model.OrganizationContext) string {
	orgJSON, _ := json.Marshal(org)

	var sb strings.Builder
	sb.WriteString("组织上下文：\n")
	sb.Write(orgJSON)
	sb.WriteString("\n\n")
	sb.WriteString(p.AnalysisFramework)
	sb.WriteString("\n\n分析请求：\n")
	sb.WriteString(request)
	sb.WriteString("\n\n")
	sb.WriteString(`请务必严格按照以下 JSON 格式返回单个对象，不要包含任何 markdown 标记：
{
	"key_insights": ["洞察1", "洞察2", "洞察3"],
	"recommendations": ["建议1", "建议2"],
	"analysis": "完整分析文本",
	"confidence": 80,
	"risks": ["风险1"],
	"opportunities": ["机会1"]
}
confidence 为 0-100 的整数，代表你对本次分析的置信程度。`)
	return sb.String()
}

// buildSecondOpinionPrompt 第二意见提示词
func buildSecondOpinionPrompt(primaryJSON string) string {
	return fmt.Sprintf(`以下是另一位分析师对同一批数据的首轮分析结果：

%s

请对该分析做独立批判：指出盲点、给出替代解读，并对首轮分析的可靠程度给出 0-100 的置信评分。
请严格按照以下 JSON 格式返回：
{
	"alternative_assessment": "替代解读",
	"blind_spots": ["盲点1", "盲点2"],
	"confidence_level": 75
}`, primaryJSON)
}

// parseAnalysis 防御式解析模型输出
func parseAnalysis(raw string) (*model.AnalysisResult, bool) {
	clean := stripFences(raw)

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, false
	}
	// 合法 JSON 但不含任何已知字段时同样视为解析失败
	if len(result.KeyInsights) == 0 && len(result.Recommendations) == 0 && result.Analysis == "" {
		return nil, false
	}
	return &result, true
}

// stripFences 去掉模型常见的代码围栏包装
func stripFences(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// fallbackResult 上游不可用时的确定性兜底分析
func fallbackResult(p *persona.Persona) *model.AnalysisResult {
	return &model.AnalysisResult{
		Persona: p.ID,
		KeyInsights: []string{
			"上游模型暂不可用，本轮仅给出通用观察",
			"建议在服务恢复后重新运行该人格分析",
		},
		Recommendations: []string{
			"维持现有监测频率",
			"人工复核本周期内的高优先级信号",
		},
		Analysis:   fmt.Sprintf("人格 [%s] 的分析服务暂不可用，返回兜底结果。", p.Name),
		Confidence: fallbackConfidence,
		Status:     model.StatusFallback,
		Note:       fmt.Sprintf("fallback analysis for persona %s", p.ID),
	}
}
