package seeders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algoviz-app/algoviz_api/shared"
)

func TestBuildCatalog(t *testing.T) {
	s := &LessonSeeder{}
	lessons := s.buildCatalog()

	require.Len(t, lessons, shared.CatalogSize)

	seen := map[string]bool{}
	free := 0
	for i, lesson := range lessons {
		require.False(t, seen[lesson.ID], "duplicate slug %s", lesson.ID)
		seen[lesson.ID] = true

		require.Equal(t, i+1, lesson.Order)
		require.NotEmpty(t, lesson.Title)
		require.NotEmpty(t, lesson.Category)
		require.True(t, lesson.IsActive)
		require.Contains(t, []int{8, 12, 16}, lesson.TotalSteps)

		if !lesson.Premium {
			free++
			require.Contains(t, []string{"Array", "Binary"}, lesson.Category)
		}
	}

	// Array and Binary chapters form the free tier.
	require.Equal(t, 15, free)
}

func TestStepsFor(t *testing.T) {
	require.Equal(t, 8, stepsFor("easy"))
	require.Equal(t, 12, stepsFor("medium"))
	require.Equal(t, 16, stepsFor("hard"))
	require.Equal(t, 12, stepsFor(""))
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Two Sum", "two-sum"},
		{"3Sum", "3sum"},
		{"Best Time to Buy and Sell Stock", "best-time-to-buy-and-sell-stock"},
		{"Number of 1 Bits", "number-of-1-bits"},
		{"Serialize and Deserialize Binary Tree", "serialize-and-deserialize-binary-tree"},
		{"Trailing Punctuation!", "trailing-punctuation"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, slugify(tc.title))
	}
}
