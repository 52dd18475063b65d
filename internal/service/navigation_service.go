package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/internal/state"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// Navigation change kinds reported to observers.
const (
	NavEnrollment = "enrollment"
	NavPeriod     = "period"
	NavEditing    = "editing"
)

// NavigationService exposes each user's navigation context.
type NavigationService struct {
	registry    *state.Registry
	enrollments enrollmentLookup
	periods     periodLister
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewNavigationService constructs the service around a registry shared by the process.
func NewNavigationService(registry *state.Registry, enrollments enrollmentLookup, periods periodLister, validate *validator.Validate, logger *zap.Logger) *NavigationService {
	if registry == nil {
		registry = state.NewRegistry()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigationService{registry: registry, enrollments: enrollments, periods: periods, validator: validate, logger: logger}
}

// Get returns the current navigation context.
func (s *NavigationService) Get(userID string) dto.NavigationContext {
	return toNavigationContext(s.registry.For(userID).Snapshot())
}

// SelectEnrollment switches to an enrollment, loading its periods by start date and pointing the
// cursor at the enrollment's active period.
func (s *NavigationService) SelectEnrollment(ctx context.Context, userID string, req dto.SelectEnrollmentRequest) (dto.NavigationContext, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NavigationContext{}, validationError(err, "invalid enrollment selection")
	}
	enrollment, err := s.enrollments.FindByID(ctx, userID, req.EnrollmentID)
	if err != nil {
		return dto.NavigationContext{}, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollment.ID)
	if err != nil {
		return dto.NavigationContext{}, repoError(err, "enrollment not found", "failed to list periods")
	}
	academic.SortByStart(periods)

	next, err := s.registry.For(userID).Update(func(st *state.State) error {
		st.ActiveEnrollmentID = enrollment.ID
		st.Periods = periodRefs(periods)
		st.ActivePeriodIndex = 0
		if enrollment.ActivePeriodID != nil {
			if i := state.IndexOf(*st, *enrollment.ActivePeriodID); i >= 0 {
				st.ActivePeriodIndex = i
			}
		}
		st.EditingDisciplineID = ""
		st.EditingEventID = ""
		return nil
	})
	if err != nil {
		return dto.NavigationContext{}, err
	}
	return toNavigationContext(next), nil
}

// SelectPeriod moves the period cursor within the selected enrollment.
func (s *NavigationService) SelectPeriod(userID string, req dto.SelectPeriodRequest) (dto.NavigationContext, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NavigationContext{}, validationError(err, "invalid period selection")
	}
	next, err := s.registry.For(userID).Update(func(st *state.State) error {
		if st.ActiveEnrollmentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "select an enrollment first")
		}
		if req.Index >= len(st.Periods) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period index %d out of range", req.Index))
		}
		if st.ActivePeriodIndex != req.Index {
			st.EditingDisciplineID = ""
			st.EditingEventID = ""
		}
		st.ActivePeriodIndex = req.Index
		return nil
	})
	if err != nil {
		return dto.NavigationContext{}, err
	}
	return toNavigationContext(next), nil
}

// SetEditing marks the discipline and event being edited. Empty ids clear the selection.
func (s *NavigationService) SetEditing(userID string, req dto.SetEditingRequest) dto.NavigationContext {
	next, _ := s.registry.For(userID).Update(func(st *state.State) error {
		st.EditingDisciplineID = req.DisciplineID
		st.EditingEventID = req.EventID
		return nil
	})
	return toNavigationContext(next)
}

// SyncPeriods reloads the period list after periods of enrollmentID changed. It only touches a
// context that has that enrollment selected. The cursor moves to focusPeriodID when given,
// otherwise stays on its period while that period exists, otherwise follows the enrollment's
// active period.
func (s *NavigationService) SyncPeriods(ctx context.Context, userID, enrollmentID, focusPeriodID string) {
	store, ok := s.registry.Lookup(userID)
	if !ok || store.Snapshot().ActiveEnrollmentID != enrollmentID {
		return
	}
	enrollment, err := s.enrollments.FindByID(ctx, userID, enrollmentID)
	if err != nil {
		s.logger.Warn("navigation sync: load enrollment", zap.String("user_id", userID), zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return
	}
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		s.logger.Warn("navigation sync: list periods", zap.String("user_id", userID), zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return
	}
	academic.SortByStart(periods)

	_, _ = store.Update(func(st *state.State) error {
		if st.ActiveEnrollmentID != enrollmentID {
			return nil
		}
		previous := state.ActivePeriodID(*st)
		st.Periods = periodRefs(periods)
		st.ActivePeriodIndex = syncedIndex(*st, focusPeriodID, previous, enrollment.ActivePeriodID)
		if state.ActivePeriodID(*st) != previous {
			st.EditingDisciplineID = ""
			st.EditingEventID = ""
		}
		return nil
	})
}

// ForgetEnrollment clears the selection when the selected enrollment was deleted.
func (s *NavigationService) ForgetEnrollment(userID, enrollmentID string) {
	store, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}
	_, _ = store.Update(func(st *state.State) error {
		if st.ActiveEnrollmentID != enrollmentID {
			return nil
		}
		*st = state.State{UserID: st.UserID}
		return nil
	})
}

func syncedIndex(st state.State, focus, previous string, pointer *string) int {
	for _, id := range []string{focus, previous} {
		if id == "" {
			continue
		}
		if i := state.IndexOf(st, id); i >= 0 {
			return i
		}
	}
	if pointer != nil {
		if i := state.IndexOf(st, *pointer); i >= 0 {
			return i
		}
	}
	return 0
}

// Reset forgets the user's navigation context.
func (s *NavigationService) Reset(userID string) {
	s.registry.Forget(userID)
}

// NavigationMetricsObserver counts context switches by kind.
func NavigationMetricsObserver(metrics *MetricsService) state.Observer {
	return func(prev, next state.State) {
		for _, kind := range navigationChanges(prev, next) {
			metrics.RecordNavigationChange(kind)
		}
	}
}

// NavigationCacheObserver drops the cached dashboard when the user switches enrollment.
func NavigationCacheObserver(cache *CacheService) state.Observer {
	return func(prev, next state.State) {
		if prev.ActiveEnrollmentID != next.ActiveEnrollmentID {
			cache.InvalidateDashboard(context.Background(), next.UserID)
		}
	}
}

func navigationChanges(prev, next state.State) []string {
	var kinds []string
	if prev.ActiveEnrollmentID != next.ActiveEnrollmentID {
		kinds = append(kinds, NavEnrollment)
	}
	if state.ActivePeriodID(prev) != state.ActivePeriodID(next) {
		kinds = append(kinds, NavPeriod)
	}
	if prev.EditingDisciplineID != next.EditingDisciplineID || prev.EditingEventID != next.EditingEventID {
		kinds = append(kinds, NavEditing)
	}
	return kinds
}

func periodRefs(periods []models.Period) []state.PeriodRef {
	refs := make([]state.PeriodRef, len(periods))
	for i, p := range periods {
		refs[i] = state.PeriodRef{ID: p.ID, Name: p.Name, Status: string(p.Status)}
	}
	return refs
}

func toNavigationContext(st state.State) dto.NavigationContext {
	out := dto.NavigationContext{
		ActiveEnrollmentID:  st.ActiveEnrollmentID,
		Periods:             make([]dto.NavPeriodRef, len(st.Periods)),
		ActivePeriodIndex:   st.ActivePeriodIndex,
		ActivePeriodID:      state.ActivePeriodID(st),
		EditingDisciplineID: st.EditingDisciplineID,
		EditingEventID:      st.EditingEventID,
	}
	for i, p := range st.Periods {
		out.Periods[i] = dto.NavPeriodRef{ID: p.ID, Name: p.Name, Status: p.Status}
	}
	return out
}
