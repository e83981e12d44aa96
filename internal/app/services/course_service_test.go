package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// fakeCourseStore is an in-memory CourseStore. Edges live in adjacency as
// course id -> prerequisite ids, mirroring what the repository reads back
// inside the creation transaction.
type fakeCourseStore struct {
	nextID    int64
	courses   map[string]*models.Course
	adjacency map[int64][]int64
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		nextID:    1,
		courses:   make(map[string]*models.Course),
		adjacency: make(map[int64][]int64),
	}
}

func (f *fakeCourseStore) addExisting(code string, units int, prereqIDs ...int64) *models.Course {
	c := &models.Course{ID: f.nextID, Code: code, Name: code, Units: units}
	f.nextID++
	f.courses[code] = c
	f.adjacency[c.ID] = prereqIDs
	return c
}

func (f *fakeCourseStore) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := f.courses[code]
	return ok, nil
}

func (f *fakeCourseStore) FindByCodes(_ context.Context, codes []string) ([]*models.Course, error) {
	var found []*models.Course
	for _, code := range codes {
		if c, ok := f.courses[code]; ok {
			found = append(found, c)
		}
	}
	return found, nil
}

func (f *fakeCourseStore) GetByCode(_ context.Context, code string) (*models.Course, error) {
	c, ok := f.courses[code]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCourseStore) List(_ context.Context) ([]*models.Course, error) {
	var all []*models.Course
	for _, c := range f.courses {
		all = append(all, c)
	}
	return all, nil
}

func (f *fakeCourseStore) CreateChecked(_ context.Context, course *models.Course, prereqIDs []int64, check func(map[int64][]int64) error) error {
	course.ID = f.nextID

	// Stage the insert, validate, roll back on error
	staged := make(map[int64][]int64, len(f.adjacency)+1)
	for id, edges := range f.adjacency {
		staged[id] = edges
	}
	staged[course.ID] = prereqIDs

	if err := check(staged); err != nil {
		course.ID = 0
		return err
	}

	f.nextID++
	f.courses[course.Code] = course
	f.adjacency[course.ID] = prereqIDs
	return nil
}

func (f *fakeCourseStore) HasDependants(_ context.Context, courseID int64) (bool, error) {
	for _, edges := range f.adjacency {
		for _, prereq := range edges {
			if prereq == courseID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeCourseStore) Delete(_ context.Context, courseID int64) error {
	for code, c := range f.courses {
		if c.ID == courseID {
			delete(f.courses, code)
			delete(f.adjacency, courseID)
			return nil
		}
	}
	return apperrors.ErrCourseNotFound
}

func newCourseService(store CourseStore) *CourseService {
	return NewCourseService(store, zerolog.Nop())
}

func TestAddCourseWithPrerequisites(t *testing.T) {
	store := newFakeCourseStore()
	store.addExisting("MATH101", 3)
	store.addExisting("CS101", 3)
	svc := newCourseService(store)

	course, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code:              "CS201",
		Name:              "Data Structures",
		Units:             3,
		PrerequisiteCodes: []string{"MATH101", "CS101"},
	})
	if err != nil {
		t.Fatalf("AddCourse() error = %v", err)
	}
	if course.Code != "CS201" {
		t.Errorf("course code = %q, want CS201", course.Code)
	}
	if got := len(store.adjacency[course.ID]); got != 2 {
		t.Errorf("stored prerequisite edges = %d, want 2", got)
	}
}

func TestAddCourseDuplicateCode(t *testing.T) {
	store := newFakeCourseStore()
	store.addExisting("CS101", 3)
	svc := newCourseService(store)

	_, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "CS101", Name: "Intro", Units: 3,
	})
	if !errors.Is(err, apperrors.ErrDuplicateCourseCode) {
		t.Fatalf("AddCourse() error = %v, want ErrDuplicateCourseCode", err)
	}
}

func TestAddCourseSelfPrerequisite(t *testing.T) {
	svc := newCourseService(newFakeCourseStore())

	_, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "CS101", Name: "Intro", Units: 3,
		PrerequisiteCodes: []string{"CS101"},
	})
	if !errors.Is(err, apperrors.ErrSelfPrerequisite) {
		t.Fatalf("AddCourse() error = %v, want ErrSelfPrerequisite", err)
	}
}

func TestAddCourseUnknownPrerequisitesAggregated(t *testing.T) {
	store := newFakeCourseStore()
	store.addExisting("CS101", 3)
	svc := newCourseService(store)

	_, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "CS301", Name: "Algorithms", Units: 3,
		PrerequisiteCodes: []string{"ZZZ999", "CS101", "AAA111"},
	})
	if !errors.Is(err, apperrors.ErrUnknownPrerequisite) {
		t.Fatalf("AddCourse() error = %v, want ErrUnknownPrerequisite", err)
	}

	// Every missing code is reported at once, sorted
	msg := err.Error()
	if !strings.Contains(msg, "AAA111, ZZZ999") {
		t.Errorf("error message %q should list all missing codes in order", msg)
	}
}

func TestAddCourseRejectsCyclicGraph(t *testing.T) {
	store := newFakeCourseStore()
	a := store.addExisting("CS101", 3)
	b := store.addExisting("CS201", 3, a.ID)
	// Close a cycle between the existing courses behind the service's back
	store.adjacency[a.ID] = []int64{b.ID}
	svc := newCourseService(store)

	// The whole graph is re-validated on every creation, so even a course
	// outside the cycle is refused while the relation is cyclic.
	_, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "PHYS101", Name: "Physics", Units: 3,
	})
	if !errors.Is(err, apperrors.ErrCyclicPrerequisite) {
		t.Fatalf("AddCourse() error = %v, want ErrCyclicPrerequisite", err)
	}

	// The rejected creation leaves no trace
	if _, ok := store.courses["PHYS101"]; ok {
		t.Error("rejected course was persisted")
	}
}

func TestAddCourseValidation(t *testing.T) {
	svc := newCourseService(newFakeCourseStore())

	if _, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "  ", Name: "Blank", Units: 3,
	}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("blank code: error = %v, want ErrBadRequest", err)
	}

	if _, err := svc.AddCourse(context.Background(), &dto.CreateCourseRequest{
		Code: "CS101", Name: "Intro", Units: 0,
	}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("zero units: error = %v, want ErrBadRequest", err)
	}
}

func TestDeleteCourseWithDependants(t *testing.T) {
	store := newFakeCourseStore()
	a := store.addExisting("CS101", 3)
	store.addExisting("CS201", 3, a.ID)
	svc := newCourseService(store)

	err := svc.DeleteCourse(context.Background(), "CS101")
	if !errors.Is(err, apperrors.ErrCourseHasDependants) {
		t.Fatalf("DeleteCourse() error = %v, want ErrCourseHasDependants", err)
	}

	if err := svc.DeleteCourse(context.Background(), "CS201"); err != nil {
		t.Fatalf("DeleteCourse(leaf) error = %v", err)
	}
	if err := svc.DeleteCourse(context.Background(), "CS101"); err != nil {
		t.Fatalf("DeleteCourse(freed root) error = %v", err)
	}
}
