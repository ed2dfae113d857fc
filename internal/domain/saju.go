package domain

// Element is one of the five elements (오행).
type Element string

const (
	ElementWood  Element = "wood"
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementMetal Element = "metal"
	ElementWater Element = "water"
)

// Elements lists the five elements in tie-break priority order.
var Elements = [...]Element{ElementWood, ElementFire, ElementEarth, ElementMetal, ElementWater}

// Pillar is a stem/branch pair. Symbols may be Hanja (甲, 子) or Hangul (갑, 자).
type Pillar struct {
	Stem   string `json:"stem"`
	Branch string `json:"branch"`
}

// SajuChart is the four pillars of a birth datum. Any pillar may be nil when
// unknown; the hour pillar is the usual one to be missing.
type SajuChart struct {
	Year  *Pillar `json:"year,omitempty"`
	Month *Pillar `json:"month,omitempty"`
	Day   *Pillar `json:"day,omitempty"`
	Hour  *Pillar `json:"hour,omitempty"`
}

// Pillars returns the present pillars in year, month, day, hour order.
func (c SajuChart) Pillars() []Pillar {
	pillars := make([]Pillar, 0, 4)
	for _, p := range []*Pillar{c.Year, c.Month, c.Day, c.Hour} {
		if p != nil {
			pillars = append(pillars, *p)
		}
	}
	return pillars
}

// ElementDistribution counts stems and branches per element. All five keys
// are always present.
type ElementDistribution map[Element]int

func (d ElementDistribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

type ElementSummary struct {
	Primary   Element `json:"primary"`
	Secondary Element `json:"secondary"`
	Weakness  Element `json:"weakness"`
}
