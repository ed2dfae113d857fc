package elements

import "saju-backend/internal/domain"

// stemElements maps the ten heavenly stems (천간) to their element. Hanja and
// Hangul spellings are both accepted.
var stemElements = map[string]domain.Element{
	"甲": domain.ElementWood, "갑": domain.ElementWood,
	"乙": domain.ElementWood, "을": domain.ElementWood,
	"丙": domain.ElementFire, "병": domain.ElementFire,
	"丁": domain.ElementFire, "정": domain.ElementFire,
	"戊": domain.ElementEarth, "무": domain.ElementEarth,
	"己": domain.ElementEarth, "기": domain.ElementEarth,
	"庚": domain.ElementMetal, "경": domain.ElementMetal,
	"辛": domain.ElementMetal, "신": domain.ElementMetal,
	"壬": domain.ElementWater, "임": domain.ElementWater,
	"癸": domain.ElementWater, "계": domain.ElementWater,
}

// branchElements maps the twelve earthly branches (지지) to their element.
// 신 is the Hangul spelling of both 辛 (stem) and 申 (branch); the tables are
// consulted by position so the two never collide.
var branchElements = map[string]domain.Element{
	"子": domain.ElementWater, "자": domain.ElementWater,
	"丑": domain.ElementEarth, "축": domain.ElementEarth,
	"寅": domain.ElementWood, "인": domain.ElementWood,
	"卯": domain.ElementWood, "묘": domain.ElementWood,
	"辰": domain.ElementEarth, "진": domain.ElementEarth,
	"巳": domain.ElementFire, "사": domain.ElementFire,
	"午": domain.ElementFire, "오": domain.ElementFire,
	"未": domain.ElementEarth, "미": domain.ElementEarth,
	"申": domain.ElementMetal, "신": domain.ElementMetal,
	"酉": domain.ElementMetal, "유": domain.ElementMetal,
	"戌": domain.ElementEarth, "술": domain.ElementEarth,
	"亥": domain.ElementWater, "해": domain.ElementWater,
}

// StemElement returns the element of a stem symbol.
func StemElement(stem string) (domain.Element, bool) {
	e, ok := stemElements[stem]
	return e, ok
}

// BranchElement returns the element of a branch symbol.
func BranchElement(branch string) (domain.Element, bool) {
	e, ok := branchElements[branch]
	return e, ok
}
