package service

import (
	"time"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// ImmunizationInput is the snapshot classified by ClassifyImmunization.
type ImmunizationInput struct {
	Student models.Student
	// Schedule is the active version with its ordered rules; nil when none is active.
	Schedule *models.VaccineScheduleVersion
	// Records holds every record of the student, regardless of VaccineIDs.
	Records []models.VaccinationRecord
	// VaccineIDs restricts rules and records when non-empty.
	VaccineIDs []string
	AsOf       time.Time
}

type doseKey struct {
	vaccineID  string
	doseNumber int
}

// ClassifyImmunization compares the student's records with the schedule rules and
// derives pending and future doses and the overall status.
func ClassifyImmunization(in ImmunizationInput) models.ImmunizationStatus {
	ageMonths := AgeInMonths(in.Student.BirthDate, in.AsOf)

	var allowed map[string]struct{}
	if len(in.VaccineIDs) > 0 {
		allowed = make(map[string]struct{}, len(in.VaccineIDs))
		for _, id := range in.VaccineIDs {
			allowed[id] = struct{}{}
		}
	}
	included := func(vaccineID string) bool {
		if allowed == nil {
			return true
		}
		_, ok := allowed[vaccineID]
		return ok
	}

	recorded := make(map[doseKey]struct{}, len(in.Records))
	for _, rec := range in.Records {
		if !included(rec.VaccineID) {
			continue
		}
		recorded[doseKey{vaccineID: rec.VaccineID, doseNumber: rec.DoseNumber}] = struct{}{}
	}

	report := models.ImmunizationStatus{
		StudentID:   in.Student.ID,
		StudentName: in.Student.FullName,
		AgeMonths:   ageMonths,
		AsOfDate:    in.AsOf.Format(models.AsOfLayout),
		Pending:     []models.PendingDose{},
		Future:      []models.FutureDose{},
	}

	if in.Schedule != nil {
		code := in.Schedule.Code
		report.ActiveScheduleCode = &code

		for _, rule := range in.Schedule.Rules {
			if !included(rule.VaccineID) {
				continue
			}
			if _, ok := recorded[doseKey{vaccineID: rule.VaccineID, doseNumber: rule.DoseNumber}]; ok {
				continue
			}
			entry := models.PendingDose{
				VaccineID:               rule.VaccineID,
				VaccineCode:             rule.VaccineCode,
				VaccineName:             rule.VaccineName,
				DoseNumber:              rule.DoseNumber,
				RecommendedMinAgeMonths: rule.RecommendedMinAgeMonths,
				RecommendedMaxAgeMonths: rule.RecommendedMaxAgeMonths,
			}
			switch {
			case ageMonths < rule.RecommendedMinAgeMonths:
				entry.Status = models.DoseStatusFuture
				report.Future = append(report.Future, models.FutureDose{
					PendingDose:    entry,
					MonthsUntilDue: rule.RecommendedMinAgeMonths - ageMonths,
				})
			case ageMonths > rule.RecommendedMaxAgeMonths:
				entry.Status = models.DoseStatusOverdue
				report.Pending = append(report.Pending, entry)
			default:
				entry.Status = models.DoseStatusPending
				report.Pending = append(report.Pending, entry)
			}
		}
	}

	report.Status = overallStatus(len(in.Records), report.Pending)
	return report
}

// overallStatus uses the unfiltered record count for the no-data decision.
func overallStatus(recordCount int, pending []models.PendingDose) models.ImmunizationStatusCode {
	if recordCount == 0 {
		return models.StatusNoData
	}
	if len(pending) == 0 {
		return models.StatusUpToDate
	}
	for _, p := range pending {
		if p.Status == models.DoseStatusOverdue {
			return models.StatusDelayed
		}
	}
	return models.StatusIncomplete
}
