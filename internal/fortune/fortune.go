// Package fortune produces the reading text for a purchased analysis.
package fortune

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"saju-backend/internal/domain"
)

var ErrEmptyResult = errors.New("fortune generator returned no text")

type Request struct {
	Type         domain.AnalysisType
	Chart        domain.SajuChart
	Distribution domain.ElementDistribution
	Summary      domain.ElementSummary
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var elementNames = map[domain.Element]string{
	domain.ElementWood:  "목(木)",
	domain.ElementFire:  "화(火)",
	domain.ElementEarth: "토(土)",
	domain.ElementMetal: "금(金)",
	domain.ElementWater: "수(水)",
}

func ElementName(e domain.Element) string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return string(e)
}

// BuildPrompt renders the instruction sent to the language model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("당신은 사주 명리학 상담가입니다. 아래 사주 정보를 바탕으로 ")
	fmt.Fprintf(&b, "'%s' 풀이를 한국어로 작성하세요.\n", req.Type.Name)
	if req.Type.Description != "" {
		fmt.Fprintf(&b, "풀이 주제: %s\n", req.Type.Description)
	}
	b.WriteString("\n[사주 원국]\n")
	for _, p := range []struct {
		label  string
		pillar *domain.Pillar
	}{
		{"년주", req.Chart.Year},
		{"월주", req.Chart.Month},
		{"일주", req.Chart.Day},
		{"시주", req.Chart.Hour},
	} {
		if p.pillar == nil {
			fmt.Fprintf(&b, "- %s: 모름\n", p.label)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", p.label, p.pillar.Stem, p.pillar.Branch)
	}
	b.WriteString("\n[오행 분포]\n")
	for _, e := range domain.Elements {
		fmt.Fprintf(&b, "- %s: %d\n", ElementName(e), req.Distribution[e])
	}
	fmt.Fprintf(&b, "\n가장 강한 기운: %s, 두 번째: %s, 보완이 필요한 기운: %s\n",
		ElementName(req.Summary.Primary), ElementName(req.Summary.Secondary), ElementName(req.Summary.Weakness))
	b.WriteString("\n규칙:\n")
	b.WriteString("- 단정적인 예언 대신 조언하는 어조로 작성합니다.\n")
	b.WriteString("- 소제목을 포함해 800자 내외로 작성합니다.\n")
	b.WriteString("- 건강, 투자에 대한 확정적 판단은 하지 않습니다.\n")
	return b.String()
}

// TemplateGenerator writes a short fixed-form reading without calling a
// model. It is used when no model API key is configured.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s]\n%s의 기운이 가장 두드러지고 %s이(가) 뒤를 받칩니다. %s의 기운을 보완하면 균형이 좋아집니다.",
		req.Type.Name, ElementName(req.Summary.Primary), ElementName(req.Summary.Secondary), ElementName(req.Summary.Weakness)), nil
}
