package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourageStatusRankBoundaries(t *testing.T) {
	cases := []struct {
		points   int
		rank     string
		nextRank string
	}{
		{0, "Newcomer", "Open Book"},
		{99, "Newcomer", "Open Book"},
		{100, "Open Book", "Risk Taker"},
		{600, "Risk Taker", "Fearless"},
		{3000, "Fearless", "Unbreakable"},
		{8000, "Unbreakable", "Legend"},
		{20000, "Legend", "Max Level"},
		{50000, "Legend", "Max Level"},
	}

	for _, tc := range cases {
		status := GetCourageStatus(tc.points)
		assert.Equal(t, tc.rank, status.RankName, "points=%d", tc.points)
		assert.Equal(t, tc.nextRank, status.NextRank, "points=%d", tc.points)
	}
}

func TestCourageStatusProgressBounds(t *testing.T) {
	for _, points := range []int{0, 1, 50, 99, 100, 599, 2999, 7999, 19999, 20000, 99999} {
		status := GetCourageStatus(points)
		assert.GreaterOrEqual(t, status.Progress, 0.0, "points=%d", points)
		assert.LessOrEqual(t, status.Progress, 100.0, "points=%d", points)
	}
}

func TestCourageStatusZeroPointsHasZeroProgress(t *testing.T) {
	status := GetCourageStatus(0)
	assert.Equal(t, 0.0, status.Progress)
}

func TestWeeklyLabels(t *testing.T) {
	assert.Equal(t, "", GetCourageStatusWithWeekly(0, 5).WeeklyLabel)
	assert.Equal(t, "Active", GetCourageStatusWithWeekly(0, 20).WeeklyLabel)
	assert.Equal(t, "Trending", GetCourageStatusWithWeekly(0, 50).WeeklyLabel)
	assert.Equal(t, "On Fire", GetCourageStatusWithWeekly(0, 150).WeeklyLabel)
}
