package fortune

import (
	"context"
	"testing"

	"saju-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		Type: domain.AnalysisType{Code: "basic", Name: "기본 사주", Description: "타고난 기질"},
		Chart: domain.SajuChart{
			Year:  &domain.Pillar{Stem: "甲", Branch: "子"},
			Month: &domain.Pillar{Stem: "丙", Branch: "午"},
			Day:   &domain.Pillar{Stem: "甲", Branch: "子"},
		},
		Distribution: domain.ElementDistribution{
			domain.ElementWood: 2, domain.ElementFire: 2, domain.ElementEarth: 0, domain.ElementMetal: 0, domain.ElementWater: 2,
		},
		Summary: domain.ElementSummary{Primary: domain.ElementWood, Secondary: domain.ElementFire, Weakness: domain.ElementEarth},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleRequest())

	assert.Contains(t, prompt, "'기본 사주' 풀이")
	assert.Contains(t, prompt, "- 년주: 甲子")
	assert.Contains(t, prompt, "- 시주: 모름")
	assert.Contains(t, prompt, "- 수(水): 2")
	assert.Contains(t, prompt, "보완이 필요한 기운: 토(土)")
}

func TestTemplateGenerator(t *testing.T) {
	text, err := TemplateGenerator{}.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Contains(t, text, "[기본 사주]")
	assert.Contains(t, text, "목(木)")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = TemplateGenerator{}.Generate(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
