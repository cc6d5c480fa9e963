package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

func TestCatalogCoversEveryCategory(t *testing.T) {
	all := All()
	require.Len(t, all, 10)

	ids := map[string]bool{}
	for _, it := range all {
		assert.False(t, ids[it.ID], "duplicate id %s", it.ID)
		ids[it.ID] = true
		assert.NotEmpty(t, it.Description, it.ID)
	}
	for _, c := range mood.Categories {
		items := ForCategory(string(c))
		assert.NotEmpty(t, items, c)
		assert.LessOrEqual(t, len(items), MaxPerCategory)
		for _, it := range items {
			assert.Equal(t, c, it.Category)
		}
	}
}

func TestIDsCountAcrossWholeCatalog(t *testing.T) {
	var ids []string
	for _, it := range All() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{
		"study-1", "study-2", "motivation-3", "motivation-4", "music-5",
		"music-6", "meditation-7", "meditation-8", "entertainment-9", "entertainment-10",
	}, ids)
}

func TestForCategory_CaseInsensitive(t *testing.T) {
	items := ForCategory("music")
	require.Len(t, items, 2)
	assert.Equal(t, "Chill Lo-fi Beats", items[0].Title)
	assert.Equal(t, "music-5", items[0].ID)
}

func TestForCategory_UnknownIsEmpty(t *testing.T) {
	for _, c := range []string{"podcasts", ""} {
		items := ForCategory(c)
		require.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0].Title = "changed"
	assert.NotEqual(t, "changed", All()[0].Title)
}
