package service

import (
	"math"
	"sort"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// BuildCoverageBySchool groups classified students by school in first-seen order.
func BuildCoverageBySchool(students []models.ClassifiedStudent) []models.SchoolCoverage {
	index := make(map[string]int)
	rows := make([]models.SchoolCoverage, 0)

	for _, cs := range students {
		pos, ok := index[cs.Student.SchoolID]
		if !ok {
			pos = len(rows)
			index[cs.Student.SchoolID] = pos
			rows = append(rows, models.SchoolCoverage{
				SchoolID:   cs.Student.SchoolID,
				SchoolName: cs.SchoolName,
			})
		}
		row := &rows[pos]
		row.TotalStudents++
		switch cs.Status.Status {
		case models.StatusUpToDate:
			row.UpToDate++
		case models.StatusDelayed:
			row.Delayed++
		case models.StatusIncomplete:
			row.Incomplete++
		default:
			row.NoData++
		}
	}

	for i := range rows {
		rows[i].CoveragePercent = percent(rows[i].UpToDate, rows[i].TotalStudents)
	}
	return rows
}

// BuildRanking orders schools by delay percentage, then no-data percentage, both descending.
func BuildRanking(students []models.ClassifiedStudent) []models.SchoolRanking {
	coverage := BuildCoverageBySchool(students)
	ranking := make([]models.SchoolRanking, 0, len(coverage))
	for _, row := range coverage {
		ranking = append(ranking, models.SchoolRanking{
			SchoolCoverage: row,
			DelayPercent:   percent(row.Delayed, row.TotalStudents),
			NoDataPercent:  percent(row.NoData, row.TotalStudents),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].DelayPercent != ranking[j].DelayPercent {
			return ranking[i].DelayPercent > ranking[j].DelayPercent
		}
		return ranking[i].NoDataPercent > ranking[j].NoDataPercent
	})
	return ranking
}

// BuildPendingAgeDistribution counts pending doses per bucket. Every pending dose is
// counted in the student's current age bucket.
func BuildPendingAgeDistribution(students []models.ClassifiedStudent, buckets []models.AgeBucket) []models.AgeDistributionRow {
	rows := make([]models.AgeDistributionRow, len(buckets))
	for i, b := range buckets {
		rows[i] = models.AgeDistributionRow{AgeBucket: b.Label}
	}
	if len(buckets) == 0 {
		return rows
	}

	for _, cs := range students {
		pos := BucketIndexFor(buckets, cs.Status.AgeMonths)
		rows[pos].PendingCount += len(cs.Status.Pending)
		rows[pos].OverdueCount += cs.Status.OverdueCount()
	}
	return rows
}

func percent(part, total int) float64 {
	if total == 0 {
		total = 1
	}
	return round2(float64(part) / float64(total) * 100)
}

// round2 rounds half away from zero at two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
