package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "images", ImageRecord{}.TableName())
	assert.Equal(t, "likes", LikeEdge{}.TableName())
}

func TestLayoutHint(t *testing.T) {
	t.Run("Large", func(t *testing.T) {
		h := layoutHintFrom(func() float64 { return 0.1 }, func(int) int { return 0 })
		assert.Equal(t, LayoutHint{SizeClass: SizeLarge, AspectRatio: "16/9"}, h)
	})

	t.Run("Normal", func(t *testing.T) {
		h := layoutHintFrom(func() float64 { return 0.9 }, func(int) int { return 2 })
		assert.Equal(t, LayoutHint{SizeClass: SizeNormal, AspectRatio: "4/3"}, h)
	})

	t.Run("Random", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			h := NewLayoutHint()
			assert.Contains(t, []string{SizeNormal, SizeLarge}, h.SizeClass)
			assert.NotEmpty(t, h.AspectRatio)
		}
	})
}
