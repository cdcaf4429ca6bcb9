package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fakeStudents struct {
	rows    []models.StudentDetail
	err     error
	queries []models.StudentQuery
}

func (f *fakeStudents) ListForScope(ctx context.Context, scope models.Scope, filter models.StudentQuery) ([]models.StudentDetail, error) {
	f.queries = append(f.queries, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := []models.StudentDetail{}
	for _, st := range f.rows {
		if !scope.Allows(st.SchoolID) {
			continue
		}
		if filter.SchoolID != "" && st.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Sex != "" && st.Sex != filter.Sex {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	for _, st := range f.rows {
		if st.ID == id {
			found := st
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudents) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	f.rows = append(f.rows, models.StudentDetail{Student: *student})
	return nil
}

func (f *fakeStudents) Update(ctx context.Context, student *models.Student) error {
	for i := range f.rows {
		if f.rows[i].ID == student.ID {
			f.rows[i].Student = *student
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStudents) Delete(ctx context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeRecords struct {
	rows      []models.VaccinationRecord
	createErr error
}

func (f *fakeRecords) ListByStudent(ctx context.Context, studentID string) ([]models.VaccinationRecord, error) {
	out := []models.VaccinationRecord{}
	for _, r := range f.rows {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListByStudents(ctx context.Context, studentIDs []string) (map[string][]models.VaccinationRecord, error) {
	out := make(map[string][]models.VaccinationRecord)
	for _, id := range studentIDs {
		for _, r := range f.rows {
			if r.StudentID == id {
				out[id] = append(out[id], r)
			}
		}
	}
	return out, nil
}

func (f *fakeRecords) FindByID(ctx context.Context, id string) (*models.VaccinationRecord, error) {
	for _, r := range f.rows {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRecords) Exists(ctx context.Context, studentID, vaccineID string, doseNumber int, excludeID string) (bool, error) {
	for _, r := range f.rows {
		if r.StudentID == studentID && r.VaccineID == vaccineID && r.DoseNumber == doseNumber && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRecords) Create(ctx context.Context, record *models.VaccinationRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	f.rows = append(f.rows, *record)
	return nil
}

func (f *fakeRecords) Update(ctx context.Context, record *models.VaccinationRecord) error {
	for i := range f.rows {
		if f.rows[i].ID == record.ID {
			f.rows[i] = *record
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeRecords) Delete(ctx context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeActiveSchedule struct {
	schedule *models.VaccineScheduleVersion
}

func (f *fakeActiveSchedule) FindActive(ctx context.Context) (*models.VaccineScheduleVersion, error) {
	return f.schedule, nil
}

type fakeSchools struct {
	rows map[string]*models.School
}

func (f *fakeSchools) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error) {
	out := []models.School{}
	for _, s := range f.rows {
		if filter.Scope.Allows(s.ID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSchools) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := f.rows[id]; ok {
		found := *s
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSchools) Create(ctx context.Context, school *models.School) error {
	if f.rows == nil {
		f.rows = make(map[string]*models.School)
	}
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	stored := *school
	f.rows[school.ID] = &stored
	return nil
}

func (f *fakeSchools) Update(ctx context.Context, school *models.School) error {
	stored := *school
	f.rows[school.ID] = &stored
	return nil
}

type fakeVaccines struct {
	rows map[string]*models.Vaccine
}

func (f *fakeVaccines) List(ctx context.Context) ([]models.Vaccine, error) {
	out := []models.Vaccine{}
	for _, v := range f.rows {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeVaccines) FindByID(ctx context.Context, id string) (*models.Vaccine, error) {
	if v, ok := f.rows[id]; ok {
		found := *v
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeVaccines) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for _, v := range f.rows {
		if v.Code == code && v.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVaccines) Create(ctx context.Context, vaccine *models.Vaccine) error {
	if f.rows == nil {
		f.rows = make(map[string]*models.Vaccine)
	}
	if vaccine.ID == "" {
		vaccine.ID = uuid.NewString()
	}
	stored := *vaccine
	f.rows[vaccine.ID] = &stored
	return nil
}

func (f *fakeVaccines) Update(ctx context.Context, vaccine *models.Vaccine) error {
	stored := *vaccine
	f.rows[vaccine.ID] = &stored
	return nil
}

type memAudit struct {
	logs []*models.AuditLog
}

func (m *memAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memAudit) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type memCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// schoolFixture builds two schools with one student per overall status:
// stu-1 EM_DIA and stu-2 SEM_DADOS in school-1, stu-3 INCOMPLETO and stu-4 ATRASADO in school-2.
func schoolFixture() (*fakeStudents, *fakeRecords, *fakeActiveSchedule, *fakeSchools) {
	students := &fakeStudents{rows: []models.StudentDetail{
		{Student: models.Student{ID: "stu-1", SchoolID: "school-1", FullName: "Ana Souza", BirthDate: date(2022, 11, 10), Sex: models.SexFemale}, SchoolName: "Escola A"},
		{Student: models.Student{ID: "stu-2", SchoolID: "school-1", FullName: "Bruno Lima", BirthDate: date(2022, 11, 10), Sex: models.SexMale}, SchoolName: "Escola A"},
		{Student: models.Student{ID: "stu-3", SchoolID: "school-2", FullName: "Carla Dias", BirthDate: date(2024, 5, 20), Sex: models.SexFemale}, SchoolName: "Escola B"},
		{Student: models.Student{ID: "stu-4", SchoolID: "school-2", FullName: "Davi Rocha", BirthDate: date(2022, 11, 10), Sex: models.SexMale}, SchoolName: "Escola B"},
	}}
	records := &fakeRecords{rows: []models.VaccinationRecord{
		{ID: "rec-1", StudentID: "stu-1", VaccineID: "dtp", VaccineCode: "DTP", DoseNumber: 1, ApplicationDate: date(2023, 1, 20)},
		{ID: "rec-3", StudentID: "stu-3", VaccineID: "bcg", VaccineCode: "BCG", DoseNumber: 1, ApplicationDate: date(2024, 5, 21)},
		{ID: "rec-4", StudentID: "stu-4", VaccineID: "bcg", VaccineCode: "BCG", DoseNumber: 1, ApplicationDate: date(2022, 11, 11)},
	}}
	schools := &fakeSchools{rows: map[string]*models.School{
		"school-1": {ID: "school-1", Name: "Escola A"},
		"school-2": {ID: "school-2", Name: "Escola B"},
	}}
	return students, records, &fakeActiveSchedule{schedule: dtpSchedule()}, schools
}

// fixtureToday is the reference date of schoolFixture.
var fixtureToday = date(2024, 8, 10)
