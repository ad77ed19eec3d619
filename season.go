package almanac

import (
	"context"
	"sort"
	"time"
)

// Season is one of the four seasons bounded by the solar terms
// Lichun, Lixia, Liqiu and Lidong.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// SeasonInfo describes a season and its approximate calendar boundaries.
// Winter wraps around the year end.
type SeasonInfo struct {
	Name       string
	Season     Season
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// The solar terms drift by a day between years; these are fixed approximations.
var (
	springInfo = SeasonInfo{Name: "春天", Season: Spring, StartMonth: time.February, StartDay: 4, EndMonth: time.May, EndDay: 5}
	summerInfo = SeasonInfo{Name: "夏天", Season: Summer, StartMonth: time.May, StartDay: 5, EndMonth: time.August, EndDay: 7}
	autumnInfo = SeasonInfo{Name: "秋天", Season: Autumn, StartMonth: time.August, StartDay: 7, EndMonth: time.November, EndDay: 7}
	winterInfo = SeasonInfo{Name: "冬天", Season: Winter, StartMonth: time.November, StartDay: 7, EndMonth: time.February, EndDay: 4}
)

// Seasons lists the four seasons in calendar order, starting with spring.
var Seasons = []SeasonInfo{springInfo, summerInfo, autumnInfo, winterInfo}

// dateInRange reports whether the month and day of t fall between the start
// and end boundaries, both inclusive. The range must not wrap the year end.
func dateInRange(t time.Time, startMonth time.Month, startDay int, endMonth time.Month, endDay int) bool {
	month, day := t.Month(), t.Day()
	if startMonth == endMonth {
		return month == startMonth && day >= startDay && day <= endDay
	}
	if month == startMonth {
		return day >= startDay
	}
	if month == endMonth {
		return day <= endDay
	}
	return month > startMonth && month < endMonth
}

// SeasonForDate returns the season t falls in. Boundary days belong to the
// earlier season.
func SeasonForDate(t time.Time) SeasonInfo {
	switch {
	case dateInRange(t, time.February, 4, time.May, 5):
		return springInfo
	case dateInRange(t, time.May, 5, time.August, 7):
		return summerInfo
	case dateInRange(t, time.August, 7, time.November, 7):
		return autumnInfo
	default:
		// Nov 7 - Dec 31 and Jan 1 - Feb 4, plus anything unmatched.
		return winterInfo
	}
}

// SeasonGroup holds the items of one season, newest first.
type SeasonGroup struct {
	Season Season
	Name   string
	Items  []Item
}

// SeasonalYear holds the season groups of one year, in first-seen order.
type SeasonalYear struct {
	Year    int
	Seasons []SeasonGroup
}

// Get returns the items of season s, or an empty slice.
func (y SeasonalYear) Get(s Season) []Item {
	for _, g := range y.Seasons {
		if g.Season == s {
			return g.Items
		}
	}
	return []Item{}
}

// SeasonalArchive is a list of seasonal years, latest first.
type SeasonalArchive []SeasonalYear

// Get returns the seasonal year for year; the zero value has no seasons.
func (a SeasonalArchive) Get(year int) SeasonalYear {
	for _, y := range a {
		if y.Year == year {
			return y
		}
	}
	return SeasonalYear{Year: year}
}

// WeeksByYearAndSeason groups the regular weeks of lang by year and season.
func (l *Library) WeeksByYearAndSeason(ctx context.Context, lang string) (SeasonalArchive, error) {
	lang = l.locale(lang)
	return l.seasons.Do(ctx, lang, func(ctx context.Context) (SeasonalArchive, error) {
		weeks, err := l.RegularWeeks(ctx, lang)
		if err != nil {
			return nil, err
		}
		return groupBySeason(weeks), nil
	})
}

func groupBySeason(items []Item) SeasonalArchive {
	var archive SeasonalArchive
	years := make(map[int]int)
	for _, it := range items {
		year := it.PubDate.Year()
		yi, ok := years[year]
		if !ok {
			yi = len(archive)
			years[year] = yi
			archive = append(archive, SeasonalYear{Year: year})
		}
		info := SeasonForDate(it.PubDate)
		y := &archive[yi]
		si := -1
		for i, g := range y.Seasons {
			if g.Season == info.Season {
				si = i
				break
			}
		}
		if si < 0 {
			si = len(y.Seasons)
			y.Seasons = append(y.Seasons, SeasonGroup{Season: info.Season, Name: info.Name})
		}
		y.Seasons[si].Items = append(y.Seasons[si].Items, it)
	}
	for _, y := range archive {
		for _, g := range y.Seasons {
			group := g.Items
			sort.SliceStable(group, func(a, b int) bool {
				return group[a].PubDate.After(group[b].PubDate)
			})
		}
	}
	sort.SliceStable(archive, func(i, j int) bool {
		return archive[i].Year > archive[j].Year
	})
	return archive
}
