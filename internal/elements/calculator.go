// Package elements derives the five-element profile of a Saju chart.
//
// Every function here is pure. Unknown stem or branch symbols contribute
// nothing to the distribution instead of failing, so partially known birth
// data still produces a profile; use Validate to surface them.
package elements

import (
	"fmt"
	"sort"
	"strings"

	"saju-backend/internal/domain"
)

// NewDistribution returns a distribution with all five elements at zero.
func NewDistribution() domain.ElementDistribution {
	d := make(domain.ElementDistribution, len(domain.Elements))
	for _, e := range domain.Elements {
		d[e] = 0
	}
	return d
}

// ComputeDistribution counts one stem and one branch per present pillar.
func ComputeDistribution(chart domain.SajuChart) domain.ElementDistribution {
	d := NewDistribution()
	for _, p := range chart.Pillars() {
		if e, ok := StemElement(strings.TrimSpace(p.Stem)); ok {
			d[e]++
		}
		if e, ok := BranchElement(strings.TrimSpace(p.Branch)); ok {
			d[e]++
		}
	}
	return d
}

// Summarize ranks the distribution. Primary and secondary are the two highest
// counts; weakness is the lowest count among the remaining three elements.
// All ties fall to the earlier element in domain.Elements order, so an empty
// distribution yields wood, fire, earth.
func Summarize(d domain.ElementDistribution) domain.ElementSummary {
	ranked := make([]domain.Element, len(domain.Elements))
	copy(ranked, domain.Elements[:])
	sort.SliceStable(ranked, func(i, j int) bool {
		return d[ranked[i]] > d[ranked[j]]
	})

	summary := domain.ElementSummary{
		Primary:   ranked[0],
		Secondary: ranked[1],
	}

	found := false
	for _, e := range domain.Elements {
		if e == summary.Primary || e == summary.Secondary {
			continue
		}
		if !found || d[e] < d[summary.Weakness] {
			summary.Weakness = e
			found = true
		}
	}
	return summary
}

// Analyze computes the distribution and its summary in one call.
func Analyze(chart domain.SajuChart) (domain.ElementDistribution, domain.ElementSummary) {
	d := ComputeDistribution(chart)
	return d, Summarize(d)
}

// UnknownSymbols lists every stem or branch the lookup tables do not know,
// prefixed with its position (e.g. "hour.stem=X").
func UnknownSymbols(chart domain.SajuChart) []string {
	var unknown []string
	positions := []struct {
		name   string
		pillar *domain.Pillar
	}{
		{"year", chart.Year},
		{"month", chart.Month},
		{"day", chart.Day},
		{"hour", chart.Hour},
	}
	for _, pos := range positions {
		if pos.pillar == nil {
			continue
		}
		if _, ok := StemElement(strings.TrimSpace(pos.pillar.Stem)); !ok {
			unknown = append(unknown, fmt.Sprintf("%s.stem=%s", pos.name, pos.pillar.Stem))
		}
		if _, ok := BranchElement(strings.TrimSpace(pos.pillar.Branch)); !ok {
			unknown = append(unknown, fmt.Sprintf("%s.branch=%s", pos.name, pos.pillar.Branch))
		}
	}
	return unknown
}

// Validate reports unknown symbols as domain.ErrInvalidChartInput. A chart
// with no pillars at all is also rejected.
func Validate(chart domain.SajuChart) error {
	if len(chart.Pillars()) == 0 {
		return fmt.Errorf("%w: chart has no pillars", domain.ErrInvalidChartInput)
	}
	if unknown := UnknownSymbols(chart); len(unknown) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidChartInput, strings.Join(unknown, ", "))
	}
	return nil
}
