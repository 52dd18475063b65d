package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// memStore is an in-memory planner database. Discipline mutations run under the store mutex on a
// copy that is only written back when the mutation succeeds, mirroring the row-locking
// transactions of the PostgreSQL repositories.
type memStore struct {
	mu          sync.Mutex
	enrollments map[string]*models.Enrollment
	periods     map[string]*models.Period
	disciplines map[string]*models.Discipline
	absences    map[string]*models.Absence

	statusErr    map[string]error
	setActiveErr error
	statusCalls  []string
}

func newMemStore() *memStore {
	return &memStore{
		enrollments: map[string]*models.Enrollment{},
		periods:     map[string]*models.Period{},
		disciplines: map[string]*models.Discipline{},
		absences:    map[string]*models.Absence{},
		statusErr:   map[string]error{},
	}
}

func cloneDiscipline(d *models.Discipline) *models.Discipline {
	out := *d
	out.Grades = make(models.GradeEntries, len(d.Grades))
	for i, g := range d.Grades {
		out.Grades[i] = models.GradeEntry{Name: g.Name}
		if g.Grade != nil {
			v := *g.Grade
			out.Grades[i].Grade = &v
		}
	}
	out.GradeConfig.Evaluations = append([]models.EvaluationDefinition(nil), d.GradeConfig.Evaluations...)
	out.Schedules = append(models.Schedules(nil), d.Schedules...)
	return &out
}

func (m *memStore) addEnrollment(e models.Enrollment) *models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.enrollments[e.ID] = &e
	return &e
}

func (m *memStore) addPeriod(p models.Period) *models.Period {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PeriodStatusActive
	}
	m.periods[p.ID] = &p
	return &p
}

func (m *memStore) addDiscipline(d models.Discipline) *models.Discipline {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	m.disciplines[d.ID] = cloneDiscipline(&d)
	return cloneDiscipline(&d)
}

func (m *memStore) discipline(id string) *models.Discipline {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.disciplines[id]; ok {
		return cloneDiscipline(d)
	}
	return nil
}

func (m *memStore) absenceCount(disciplineID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.absences {
		if a.DisciplineID == disciplineID {
			n++
		}
	}
	return n
}

type memEnrollments struct{ *memStore }

func (r memEnrollments) List(ctx context.Context, userID string) ([]models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r memEnrollments) FindByID(ctx context.Context, userID, id string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok || e.UserID != userID {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (r memEnrollments) Create(ctx context.Context, e *models.Enrollment, first *models.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.NewString()
	e.Position = len(r.enrollments)
	if first != nil {
		first.ID = uuid.NewString()
		first.UserID = e.UserID
		first.EnrollmentID = e.ID
		first.CreatedAt = time.Now()
		cp := *first
		r.periods[first.ID] = &cp
		e.ActivePeriodID = &first.ID
	}
	cp := *e
	r.enrollments[e.ID] = &cp
	return nil
}

func (r memEnrollments) Update(ctx context.Context, e *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[e.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *e
	r.enrollments[e.ID] = &cp
	return nil
}

func (r memEnrollments) SetActivePeriod(ctx context.Context, userID, enrollmentID string, periodID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setActiveErr != nil {
		return r.setActiveErr
	}
	e, ok := r.enrollments[enrollmentID]
	if !ok || e.UserID != userID {
		return sql.ErrNoRows
	}
	e.ActivePeriodID = periodID
	return nil
}

func (r memEnrollments) Reorder(ctx context.Context, userID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range ids {
		if e, ok := r.enrollments[id]; ok && e.UserID == userID {
			e.Position = i
		}
	}
	return nil
}

func (r memEnrollments) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok || e.UserID != userID {
		return sql.ErrNoRows
	}
	for pid, p := range r.periods {
		if p.EnrollmentID == id {
			r.deletePeriodLocked(pid)
		}
	}
	delete(r.enrollments, id)
	return nil
}

type memPeriods struct{ *memStore }

func (r memPeriods) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Period, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Period
	for _, p := range r.periods {
		if p.UserID == userID && p.EnrollmentID == enrollmentID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memPeriods) FindByID(ctx context.Context, userID, id string) (*models.Period, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periods[id]
	if !ok || p.UserID != userID {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r memPeriods) Create(ctx context.Context, p *models.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[p.EnrollmentID]
	if !ok || e.UserID != p.UserID {
		return sql.ErrNoRows
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	cp := *p
	r.periods[p.ID] = &cp
	e.ActivePeriodID = &cp.ID
	return nil
}

func (r memPeriods) Update(ctx context.Context, p *models.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[p.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *p
	r.periods[p.ID] = &cp
	return nil
}

func (r memPeriods) UpdateStatus(ctx context.Context, userID, id string, status models.PeriodStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls = append(r.statusCalls, id)
	if err := r.statusErr[id]; err != nil {
		return err
	}
	p, ok := r.periods[id]
	if !ok || p.UserID != userID {
		return sql.ErrNoRows
	}
	p.Status = status
	return nil
}

func (r memPeriods) DeleteCascade(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periods[id]
	if !ok || p.UserID != userID {
		return sql.ErrNoRows
	}
	r.deletePeriodLocked(id)
	return nil
}

func (m *memStore) deletePeriodLocked(periodID string) {
	for did, d := range m.disciplines {
		if d.PeriodID != periodID {
			continue
		}
		for aid, a := range m.absences {
			if a.DisciplineID == did {
				delete(m.absences, aid)
			}
		}
		delete(m.disciplines, did)
	}
	for _, e := range m.enrollments {
		if e.ActivePeriodID != nil && *e.ActivePeriodID == periodID {
			e.ActivePeriodID = nil
		}
	}
	delete(m.periods, periodID)
}

type memDisciplines struct{ *memStore }

func (r memDisciplines) list(match func(*models.Discipline) bool) []models.Discipline {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Discipline
	for _, d := range r.disciplines {
		if match(d) {
			out = append(out, *cloneDiscipline(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (r memDisciplines) ListByPeriod(ctx context.Context, userID, periodID string) ([]models.Discipline, error) {
	return r.list(func(d *models.Discipline) bool { return d.UserID == userID && d.PeriodID == periodID }), nil
}

func (r memDisciplines) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Discipline, error) {
	return r.list(func(d *models.Discipline) bool { return d.UserID == userID && d.EnrollmentID == enrollmentID }), nil
}

func (r memDisciplines) FindByID(ctx context.Context, userID, id string) (*models.Discipline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disciplines[id]
	if !ok || d.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return cloneDiscipline(d), nil
}

func (r memDisciplines) Create(ctx context.Context, d *models.Discipline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	d.Position = len(r.disciplines)
	r.disciplines[d.ID] = cloneDiscipline(d)
	return nil
}

func (r memDisciplines) Mutate(ctx context.Context, userID, id string, fn models.DisciplineMutation) (*models.Discipline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disciplines[id]
	if !ok || d.UserID != userID {
		return nil, sql.ErrNoRows
	}
	work := cloneDiscipline(d)
	if err := fn(work); err != nil {
		return nil, err
	}
	r.disciplines[id] = cloneDiscipline(work)
	return work, nil
}

func (r memDisciplines) Reorder(ctx context.Context, userID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range ids {
		if d, ok := r.disciplines[id]; ok && d.UserID == userID {
			d.Position = i
		}
	}
	return nil
}

func (r memDisciplines) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disciplines[id]
	if !ok || d.UserID != userID {
		return sql.ErrNoRows
	}
	for aid, a := range r.absences {
		if a.DisciplineID == id {
			delete(r.absences, aid)
		}
	}
	delete(r.disciplines, id)
	return nil
}

type memAbsences struct{ *memStore }

func (r memAbsences) ListByDiscipline(ctx context.Context, userID, disciplineID string) ([]models.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Absence
	for _, a := range r.absences {
		if a.UserID == userID && a.DisciplineID == disciplineID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memAbsences) Record(ctx context.Context, absence *models.Absence, fn models.DisciplineMutation) (*models.Discipline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disciplines[absence.DisciplineID]
	if !ok || d.UserID != absence.UserID {
		return nil, sql.ErrNoRows
	}
	work := cloneDiscipline(d)
	if err := fn(work); err != nil {
		return nil, err
	}
	absence.ID = uuid.NewString()
	cp := *absence
	r.absences[absence.ID] = &cp
	r.disciplines[work.ID] = cloneDiscipline(work)
	return work, nil
}

func (r memAbsences) Remove(ctx context.Context, userID, disciplineID, absenceID string, fn models.DisciplineMutation) (*models.Discipline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disciplines[disciplineID]
	if !ok || d.UserID != userID {
		return nil, sql.ErrNoRows
	}
	a, ok := r.absences[absenceID]
	if !ok || a.DisciplineID != disciplineID {
		return nil, sql.ErrNoRows
	}
	work := cloneDiscipline(d)
	if err := fn(work); err != nil {
		return nil, err
	}
	delete(r.absences, absenceID)
	r.disciplines[work.ID] = cloneDiscipline(work)
	return work, nil
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
