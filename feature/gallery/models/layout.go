package models

import (
	"math/rand/v2"
)

// Size classes used by the masonry layout.
const (
	SizeNormal = "normal"
	SizeLarge  = "large"
)

// LayoutHint varies the masonry layout. It carries no correctness invariant.
type LayoutHint struct {
	SizeClass   string `json:"size_class"`
	AspectRatio string `json:"aspect_ratio"`
}

var (
	largeRatios = []string{"16/9", "1/1"}
	// portrait weighted twice
	normalRatios = []string{"3/4", "3/4", "4/3", "1/1"}
)

// NewLayoutHint picks a random hint: large with 20% probability, normal otherwise.
func NewLayoutHint() LayoutHint {
	return layoutHintFrom(rand.Float64, rand.IntN)
}

func layoutHintFrom(float func() float64, intn func(int) int) LayoutHint {
	if float() > 0.2 {
		return LayoutHint{SizeClass: SizeNormal, AspectRatio: normalRatios[intn(len(normalRatios))]}
	}
	return LayoutHint{SizeClass: SizeLarge, AspectRatio: largeRatios[intn(len(largeRatios))]}
}
