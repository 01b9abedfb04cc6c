package service

import "math"

// CourageStatus is a user's standing on the courage ladder.
// RankName is always based on all-time points; ranks never demote.
// WeeklyLabel gives recent-activity context on top of the permanent rank.
type CourageStatus struct {
	RankName      string  `json:"rank_name"`
	NextRank      string  `json:"next_rank"`
	CurrentPoints int     `json:"current_points"`
	TargetPoints  int     `json:"target_points"`
	Progress      float64 `json:"progress"` // percentage toward next rank (0-100)

	WeeklyPoints int    `json:"weekly_points"`
	WeeklyLabel  string `json:"weekly_label"`
}

// Rank thresholds (all-time courage points).
const (
	PointsLegend      = 20000
	PointsUnbreakable = 8000
	PointsFearless    = 3000
	PointsRiskTaker   = 600
	PointsOpenBook    = 100
	PointsNewcomer    = 0
)

// Weekly activity thresholds for the spotlight label.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

// GetCourageStatus calculates the status from all-time points only.
func GetCourageStatus(allTimePoints int) CourageStatus {
	return GetCourageStatusWithWeekly(allTimePoints, 0)
}

// GetCourageStatusWithWeekly calculates the complete status.
func GetCourageStatusWithWeekly(allTimePoints, weeklyPoints int) CourageStatus {
	var status CourageStatus
	status.CurrentPoints = allTimePoints
	status.WeeklyPoints = weeklyPoints

	switch {
	case allTimePoints >= PointsLegend:
		status.RankName = "Legend"
		status.NextRank = "Max Level"
		status.TargetPoints = PointsLegend
		status.Progress = 100

	case allTimePoints >= PointsUnbreakable:
		status.RankName = "Unbreakable"
		status.NextRank = "Legend"
		status.TargetPoints = PointsLegend
		status.Progress = (float64(allTimePoints) / float64(PointsLegend)) * 100

	case allTimePoints >= PointsFearless:
		status.RankName = "Fearless"
		status.NextRank = "Unbreakable"
		status.TargetPoints = PointsUnbreakable
		status.Progress = (float64(allTimePoints) / float64(PointsUnbreakable)) * 100

	case allTimePoints >= PointsRiskTaker:
		status.RankName = "Risk Taker"
		status.NextRank = "Fearless"
		status.TargetPoints = PointsFearless
		status.Progress = (float64(allTimePoints) / float64(PointsFearless)) * 100

	case allTimePoints >= PointsOpenBook:
		status.RankName = "Open Book"
		status.NextRank = "Risk Taker"
		status.TargetPoints = PointsRiskTaker
		status.Progress = (float64(allTimePoints) / float64(PointsRiskTaker)) * 100

	default:
		status.RankName = "Newcomer"
		status.NextRank = "Open Book"
		status.TargetPoints = PointsOpenBook
		if allTimePoints == 0 {
			status.Progress = 0
		} else {
			status.Progress = (float64(allTimePoints) / float64(PointsOpenBook)) * 100
		}
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "On Fire"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "Active"
	default:
		status.WeeklyLabel = ""
	}

	status.Progress = math.Round(status.Progress*100) / 100

	return status
}
