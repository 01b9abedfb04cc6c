package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestLongestDailyStreakEmpty(t *testing.T) {
	assert.Equal(t, int64(0), LongestDailyStreak(nil))
}

func TestLongestDailyStreakSingleDay(t *testing.T) {
	times := []time.Time{
		day(2026, time.March, 1, 9),
		day(2026, time.March, 1, 21),
	}
	assert.Equal(t, int64(1), LongestDailyStreak(times))
}

func TestLongestDailyStreakConsecutive(t *testing.T) {
	times := []time.Time{
		day(2026, time.March, 1, 9),
		day(2026, time.March, 2, 9),
		day(2026, time.March, 3, 9),
		// gap
		day(2026, time.March, 10, 9),
		day(2026, time.March, 11, 9),
	}
	assert.Equal(t, int64(3), LongestDailyStreak(times))
}

func TestLongestDailyStreakUnordered(t *testing.T) {
	times := []time.Time{
		day(2026, time.March, 3, 9),
		day(2026, time.March, 1, 9),
		day(2026, time.March, 2, 9),
	}
	assert.Equal(t, int64(3), LongestDailyStreak(times))
}

func TestLongestDailyStreakCrossesMonthBoundary(t *testing.T) {
	times := []time.Time{
		day(2026, time.February, 27, 9),
		day(2026, time.February, 28, 9),
		day(2026, time.March, 1, 9),
	}
	assert.Equal(t, int64(3), LongestDailyStreak(times))
}

func TestMaxPerDay(t *testing.T) {
	times := []time.Time{
		day(2026, time.March, 1, 9),
		day(2026, time.March, 1, 12),
		day(2026, time.March, 1, 18),
		day(2026, time.March, 2, 9),
	}
	assert.Equal(t, int64(3), maxPerDay(times))
}

func TestTimeOfDayCounts(t *testing.T) {
	times := []time.Time{
		day(2026, time.March, 7, 10), // Saturday, daytime
		day(2026, time.March, 8, 23), // Sunday, night
		day(2026, time.March, 9, 2),  // Monday, night
		day(2026, time.March, 9, 6),  // Monday, early
		day(2026, time.March, 9, 12), // Monday, daytime
	}

	weekend, night, early := timeOfDayCounts(times)
	assert.Equal(t, int64(2), weekend)
	assert.Equal(t, int64(2), night)
	assert.Equal(t, int64(1), early)
}
