package almanac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonForDate(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want Season
	}{
		{"mid july", day(2024, 7, 15), Summer},
		{"mid january", day(2024, 1, 15), Winter},
		{"early march", day(2024, 3, 1), Spring},
		{"mid october", day(2024, 10, 15), Autumn},
		{"late december", day(2024, 12, 31), Winter},
		{"new year", day(2024, 1, 1), Winter},
		{"day before lichun", day(2024, 2, 3), Winter},
		{"lichun", day(2024, 2, 4), Spring},
		{"lixia", day(2024, 5, 5), Spring},
		{"after lixia", day(2024, 5, 6), Summer},
		{"liqiu", day(2024, 8, 7), Summer},
		{"after liqiu", day(2024, 8, 8), Autumn},
		{"lidong", day(2024, 11, 7), Autumn},
		{"after lidong", day(2024, 11, 8), Winter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeasonForDate(tt.date).Season)
		})
	}
}

func TestSeasonNames(t *testing.T) {
	names := make([]string, len(Seasons))
	for i, s := range Seasons {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"春天", "夏天", "秋天", "冬天"}, names)
	assert.Equal(t, "夏天", SeasonForDate(day(2024, 7, 15)).Name)
}

func TestDateInRange(t *testing.T) {
	assert.True(t, dateInRange(day(2024, 3, 10), time.March, 1, time.March, 31))
	assert.False(t, dateInRange(day(2024, 4, 1), time.March, 1, time.March, 31))
	assert.True(t, dateInRange(day(2024, 6, 1), time.May, 5, time.August, 7))
	assert.False(t, dateInRange(day(2024, 5, 4), time.May, 5, time.August, 7))
}

func TestWeeksByYearAndSeason(t *testing.T) {
	pinned := week("pinned", "zh", day(2024, 7, 1))
	pinned.Pin = 1
	store := newMemStore(
		week("summer-a", "zh", day(2024, 7, 15)),
		week("summer-b", "zh", day(2024, 6, 1)),
		week("winter-late", "zh", day(2024, 12, 20)),
		week("winter-early", "zh", day(2024, 1, 10)),
		week("spring", "zh", day(2023, 3, 3)),
		week("other-lang", "en", day(2024, 7, 20)),
		pinned,
	)
	lib := NewLibrary(store, &countingRenderer{}, testConfig())

	archive, err := lib.WeeksByYearAndSeason(context.Background(), "zh")
	require.NoError(t, err)
	require.Len(t, archive, 2)
	assert.Equal(t, 2024, archive[0].Year)
	assert.Equal(t, 2023, archive[1].Year)

	y := archive.Get(2024)
	seasons := make([]Season, len(y.Seasons))
	for i, g := range y.Seasons {
		seasons[i] = g.Season
	}
	// First-seen order over weeks sorted newest first.
	assert.Equal(t, []Season{Winter, Summer}, seasons)
	assert.Equal(t, []string{"winter-late", "winter-early"}, ids(y.Get(Winter)))
	assert.Equal(t, []string{"summer-a", "summer-b"}, ids(y.Get(Summer)))
	assert.Empty(t, y.Get(Autumn))
	assert.Equal(t, "冬天", y.Seasons[0].Name)

	assert.Equal(t, []string{"spring"}, ids(archive.Get(2023).Get(Spring)))
	assert.Empty(t, archive.Get(1999).Seasons)
}
