package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type immunizationStudentRepository interface {
	ListForScope(ctx context.Context, scope models.Scope, filter models.StudentQuery) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type immunizationRecordRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.VaccinationRecord, error)
	ListByStudents(ctx context.Context, studentIDs []string) (map[string][]models.VaccinationRecord, error)
}

type activeScheduleFinder interface {
	FindActive(ctx context.Context) (*models.VaccineScheduleVersion, error)
}

// ImmunizationService classifies students against the active schedule.
type ImmunizationService struct {
	students  immunizationStudentRepository
	records   immunizationRecordRepository
	schedules activeScheduleFinder
	metrics   *MetricsService
	logger    *zap.Logger
	now       Clock
}

// NewImmunizationService constructs the immunization service.
func NewImmunizationService(students immunizationStudentRepository, records immunizationRecordRepository, schedules activeScheduleFinder, metrics *MetricsService, logger *zap.Logger, now Clock) *ImmunizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImmunizationService{students: students, records: records, schedules: schedules, metrics: metrics, logger: logger, now: now}
}

// Today returns the reference date used for classification.
func (s *ImmunizationService) Today() time.Time {
	return s.now.today()
}

// StudentStatus returns the status report of a student visible to the scope.
func (s *ImmunizationService) StudentStatus(ctx context.Context, scope models.Scope, studentID, vaccineID string) (*models.ImmunizationStatus, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !scope.Allows(student.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	records, err := s.records.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccination records")
	}
	schedule, err := s.schedules.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active schedule")
	}

	var vaccineIDs []string
	if vaccineID != "" {
		vaccineIDs = []string{vaccineID}
	}
	report := ClassifyImmunization(ImmunizationInput{
		Student:    student.Student,
		Schedule:   schedule,
		Records:    records,
		VaccineIDs: vaccineIDs,
		AsOf:       s.Today(),
	})
	s.metrics.ObserveClassification(report.Status)
	return &report, nil
}

// ClassifyScope classifies every student visible to the scope and keeps those
// matching the filter. A schoolId outside the scope yields no students.
func (s *ImmunizationService) ClassifyScope(ctx context.Context, scope models.Scope, filter models.DashboardFilter) ([]models.ClassifiedStudent, *models.VaccineScheduleVersion, error) {
	if filter.SchoolID != "" && !scope.Allows(filter.SchoolID) {
		return []models.ClassifiedStudent{}, nil, nil
	}

	start := time.Now()
	students, err := s.students.ListForScope(ctx, scope, models.StudentQuery{
		Search:   filter.Query,
		SchoolID: filter.SchoolID,
		Sex:      filter.Sex,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	records, err := s.records.ListByStudents(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccination records")
	}
	schedule, err := s.schedules.FindActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active schedule")
	}
	s.metrics.ObserveDBQuery("classification_snapshot", time.Since(start))

	asOf := s.Today()
	vaccineIDs := filter.VaccineIDs()
	result := make([]models.ClassifiedStudent, 0, len(students))
	for _, st := range students {
		ageMonths := AgeInMonths(st.BirthDate, asOf)
		if filter.AgeMin != nil && ageMonths < *filter.AgeMin {
			continue
		}
		if filter.AgeMax != nil && ageMonths > *filter.AgeMax {
			continue
		}
		report := ClassifyImmunization(ImmunizationInput{
			Student:    st.Student,
			Schedule:   schedule,
			Records:    records[st.ID],
			VaccineIDs: vaccineIDs,
			AsOf:       asOf,
		})
		s.metrics.ObserveClassification(report.Status)
		if filter.Status != "" && report.Status != filter.Status {
			continue
		}
		result = append(result, models.ClassifiedStudent{Student: st.Student, SchoolName: st.SchoolName, Status: report})
	}
	return result, schedule, nil
}
