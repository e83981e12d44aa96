package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

var (
	examA = time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	examB = time.Date(2026, 1, 22, 9, 0, 0, 0, time.UTC)
)

func makeSemester(maxUnits int) *models.Semester {
	return &models.Semester{ID: 1, Name: "1404-1", MinUnits: 12, MaxUnits: maxUnits}
}

func makeOffering(id int64, course *models.Course, capacity int, examAt time.Time, slotIDs ...int64) *models.CourseOffering {
	var slots []*models.TimeSlot
	for _, sid := range slotIDs {
		slots = append(slots, &models.TimeSlot{ID: sid})
	}
	return &models.CourseOffering{
		ID:         id,
		CourseID:   course.ID,
		SemesterID: 1,
		Section:    1,
		Capacity:   capacity,
		ExamAt:     examAt,
		Course:     course,
		Semester:   makeSemester(20),
		TimeSlots:  slots,
	}
}

func TestAdmitCapacity(t *testing.T) {
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	snap := &models.AdmissionSnapshot{
		Offering:      makeOffering(1, course, 2, examA, 1),
		EnrolledCount: 2,
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrFullCapacity) {
		t.Fatalf("admit() error = %v, want ErrFullCapacity", err)
	}

	snap.EnrolledCount = 1
	if err := admit(snap); err != nil {
		t.Fatalf("admit() with a free seat: error = %v", err)
	}
}

// Capacity is checked first: a full section reports full capacity even
// when a later check would also fail.
func TestAdmitCapacityBeforeDuplicate(t *testing.T) {
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	snap := &models.AdmissionSnapshot{
		Offering:            makeOffering(1, course, 1, examA, 1),
		EnrolledCount:       1,
		DroppedSameSemester: true,
		TakenSameSemester:   true,
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrFullCapacity) {
		t.Fatalf("admit() error = %v, want ErrFullCapacity", err)
	}
}

// The re-drop and duplicate guards both exist and keep distinct errors;
// a dropped course reports the drop, not the generic duplicate.
func TestAdmitDroppedBeforeTaken(t *testing.T) {
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	snap := &models.AdmissionSnapshot{
		Offering:            makeOffering(1, course, 30, examA, 1),
		DroppedSameSemester: true,
		TakenSameSemester:   true,
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrDroppedThisSemester) {
		t.Fatalf("admit() error = %v, want ErrDroppedThisSemester", err)
	}

	snap.DroppedSameSemester = false
	if err := admit(snap); !errors.Is(err, apperrors.ErrAlreadyTaken) {
		t.Fatalf("admit() error = %v, want ErrAlreadyTaken", err)
	}
}

func TestAdmitPrerequisiteGate(t *testing.T) {
	prereq := &models.Course{ID: 5, Code: "MATH101", Units: 3}
	course := &models.Course{ID: 10, Code: "CS201", Units: 3}
	snap := &models.AdmissionSnapshot{
		Offering:        makeOffering(1, course, 30, examA, 1),
		Prerequisites:   []*models.Course{prereq},
		PassedCourseIDs: map[int64]struct{}{},
	}

	err := admit(snap)
	if !errors.Is(err, apperrors.ErrPrerequisiteNotPassed) {
		t.Fatalf("admit() error = %v, want ErrPrerequisiteNotPassed", err)
	}
	if want := "prerequisite MATH101 not passed"; err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}

	// A FAILED attempt does not satisfy the gate; only PASSED ids appear
	// in the snapshot, so passing the course flips the outcome.
	snap.PassedCourseIDs[prereq.ID] = struct{}{}
	if err := admit(snap); err != nil {
		t.Fatalf("admit() with passed prerequisite: error = %v", err)
	}
}

func TestAdmitExamConflict(t *testing.T) {
	taken := &models.Course{ID: 10, Code: "CS101", Units: 3}
	course := &models.Course{ID: 11, Code: "PHYS101", Units: 3}

	snap := &models.AdmissionSnapshot{
		Offering: makeOffering(2, course, 30, examA, 2),
		SemesterEnrollments: []*models.Enrollment{
			{Status: models.EnrollmentSelected, Offering: makeOffering(1, taken, 30, examA, 1)},
		},
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrExamConflict) {
		t.Fatalf("admit() error = %v, want ErrExamConflict", err)
	}
}

func TestAdmitTimeConflict(t *testing.T) {
	taken := &models.Course{ID: 10, Code: "CS101", Units: 3}
	course := &models.Course{ID: 11, Code: "PHYS101", Units: 3}

	snap := &models.AdmissionSnapshot{
		Offering: makeOffering(2, course, 30, examB, 3, 4),
		SemesterEnrollments: []*models.Enrollment{
			{Status: models.EnrollmentSelected, Offering: makeOffering(1, taken, 30, examA, 4)},
		},
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrTimeConflict) {
		t.Fatalf("admit() error = %v, want ErrTimeConflict", err)
	}
}

func TestAdmitUnitCap(t *testing.T) {
	taken := &models.Course{ID: 10, Code: "CS101", Units: 10}
	threeUnits := &models.Course{ID: 11, Code: "PHYS101", Units: 3}
	twoUnits := &models.Course{ID: 12, Code: "LAB101", Units: 2}

	existing := []*models.Enrollment{
		{Status: models.EnrollmentSelected, Offering: makeOffering(1, taken, 30, examA, 1)},
	}

	over := makeOffering(2, threeUnits, 30, examB, 2)
	over.Semester = makeSemester(12)
	snap := &models.AdmissionSnapshot{Offering: over, SemesterEnrollments: existing}
	if err := admit(snap); !errors.Is(err, apperrors.ErrMaxUnitExceeded) {
		t.Fatalf("admit() 10+3 over cap 12: error = %v, want ErrMaxUnitExceeded", err)
	}

	exact := makeOffering(3, twoUnits, 30, examB, 2)
	exact.Semester = makeSemester(12)
	snap = &models.AdmissionSnapshot{Offering: exact, SemesterEnrollments: existing}
	if err := admit(snap); err != nil {
		t.Fatalf("admit() 10+2 at cap 12: error = %v", err)
	}
}

// Dropped rows keep consuming units in the same-semester load, matching
// the stored-rows accounting.
func TestAdmitDroppedRowsCountTowardUnits(t *testing.T) {
	dropped := &models.Course{ID: 10, Code: "CS101", Units: 10}
	course := &models.Course{ID: 11, Code: "PHYS101", Units: 3}

	over := makeOffering(2, course, 30, examB, 2)
	over.Semester = makeSemester(12)
	snap := &models.AdmissionSnapshot{
		Offering: over,
		SemesterEnrollments: []*models.Enrollment{
			{Status: models.EnrollmentDropped, Offering: makeOffering(1, dropped, 30, examA, 1)},
		},
	}

	if err := admit(snap); !errors.Is(err, apperrors.ErrMaxUnitExceeded) {
		t.Fatalf("admit() error = %v, want ErrMaxUnitExceeded", err)
	}
}

// fakeEnrollmentStore is an in-memory EnrollmentStore. EnrollChecked
// serializes callers the way the row lock does in the real repository.
type fakeEnrollmentStore struct {
	mu         sync.Mutex
	nextID     int64
	offerings  map[string]*models.CourseOffering
	rows       []*models.Enrollment
	passedByID map[int64]map[int64]struct{} // studentID -> passed course ids
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		nextID:     1,
		offerings:  make(map[string]*models.CourseOffering),
		passedByID: make(map[int64]map[int64]struct{}),
	}
}

func offeringKey(code string, section int, semester string) string {
	return fmt.Sprintf("%s#%d#%s", code, section, semester)
}

func (f *fakeEnrollmentStore) addOffering(o *models.CourseOffering) {
	f.offerings[offeringKey(o.Course.Code, o.Section, o.Semester.Name)] = o
}

func (f *fakeEnrollmentStore) EnrollChecked(_ context.Context, studentID int64, courseCode string, section int, semesterName string, check func(*models.AdmissionSnapshot) error) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	offering, ok := f.offerings[offeringKey(courseCode, section, semesterName)]
	if !ok {
		return nil, apperrors.ErrOfferingNotFound
	}

	snap := &models.AdmissionSnapshot{
		Offering:        offering,
		Prerequisites:   offering.Course.Prerequisites,
		PassedCourseIDs: f.passedByID[studentID],
	}
	if snap.PassedCourseIDs == nil {
		snap.PassedCourseIDs = map[int64]struct{}{}
	}

	for _, row := range f.rows {
		if row.OfferingID == offering.ID {
			snap.EnrolledCount++
		}
		if row.StudentID != studentID || row.Offering.SemesterID != offering.SemesterID {
			continue
		}
		snap.SemesterEnrollments = append(snap.SemesterEnrollments, row)
		if row.Offering.CourseID == offering.CourseID {
			snap.TakenSameSemester = true
			if row.Status == models.EnrollmentDropped {
				snap.DroppedSameSemester = true
			}
		}
	}

	if err := check(snap); err != nil {
		return nil, err
	}

	row := &models.Enrollment{
		ID:         f.nextID,
		StudentID:  studentID,
		OfferingID: offering.ID,
		Status:     models.EnrollmentSelected,
		Offering:   offering,
	}
	f.nextID++
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeEnrollmentStore) FindByNaturalKey(_ context.Context, studentID int64, courseCode string, section int, semesterName string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	offering, ok := f.offerings[offeringKey(courseCode, section, semesterName)]
	if !ok {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	for _, row := range f.rows {
		if row.StudentID == studentID && row.OfferingID == offering.ID {
			return row, nil
		}
	}
	return nil, apperrors.ErrEnrollmentNotFound
}

func (f *fakeEnrollmentStore) UpdateStatusFrom(_ context.Context, id int64, from, to models.EnrollmentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID == id && row.Status == from {
			row.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentStore) ListForSemester(_ context.Context, studentID, semesterID int64) ([]*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Enrollment
	for _, row := range f.rows {
		if row.StudentID == studentID && row.Offering.SemesterID == semesterID {
			out = append(out, row)
		}
	}
	return out, nil
}

func newEnrollmentService(store EnrollmentStore) *EnrollmentService {
	return NewEnrollmentService(store, zerolog.Nop())
}

func TestEnrollCreatesSelectedRow(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 30, examA, 1))
	svc := newEnrollmentService(store)

	enrollment, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1")
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if enrollment.Status != models.EnrollmentSelected {
		t.Errorf("status = %s, want SELECTED", enrollment.Status)
	}
}

func TestEnrollUnknownOffering(t *testing.T) {
	svc := newEnrollmentService(newFakeEnrollmentStore())

	_, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1")
	if !errors.Is(err, apperrors.ErrOfferingNotFound) {
		t.Fatalf("Enroll() error = %v, want ErrOfferingNotFound", err)
	}
}

// A dropped row blocks re-enrollment with its own error, and the row left
// behind still consumes the seat.
func TestEnrollAfterDrop(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 30, examA, 1))
	svc := newEnrollmentService(store)

	if _, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if err := svc.Drop(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	_, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1")
	if !errors.Is(err, apperrors.ErrDroppedThisSemester) {
		t.Fatalf("re-enroll error = %v, want ErrDroppedThisSemester", err)
	}
}

func TestEnrollDuplicate(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 30, examA, 1))
	svc := newEnrollmentService(store)

	if _, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	_, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1")
	if !errors.Is(err, apperrors.ErrAlreadyTaken) {
		t.Fatalf("duplicate enroll error = %v, want ErrAlreadyTaken", err)
	}
}

// A section with one seat admits exactly one of many concurrent students.
func TestEnrollCapacityUnderContention(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 1, examA, 1))
	svc := newEnrollmentService(store)

	const students = 16
	var wg sync.WaitGroup
	results := make(chan error, students)

	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			_, err := svc.Enroll(context.Background(), studentID, "CS101", 1, "1404-1")
			results <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(results)

	admitted, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, apperrors.ErrFullCapacity):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if admitted != 1 {
		t.Errorf("admitted = %d, want exactly 1", admitted)
	}
	if rejected != students-1 {
		t.Errorf("rejected = %d, want %d", rejected, students-1)
	}
}

func TestDropRequiresSelectedStatus(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 30, examA, 1))
	svc := newEnrollmentService(store)

	if _, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if err := svc.Drop(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	// Already DROPPED
	err := svc.Drop(context.Background(), 100, "CS101", 1, "1404-1")
	if !errors.Is(err, apperrors.ErrInvalidDropStatus) {
		t.Fatalf("second Drop() error = %v, want ErrInvalidDropStatus", err)
	}
}

func TestProfessorDropOwnership(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	offering := makeOffering(1, course, 30, examA, 1)
	offering.ProfessorID = 7
	store.addOffering(offering)
	svc := newEnrollmentService(store)

	if _, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	// A professor who does not teach the section learns nothing
	err := svc.ProfessorDrop(context.Background(), 8, 100, "CS101", 1, "1404-1")
	if !errors.Is(err, apperrors.ErrEnrollmentNotFound) {
		t.Fatalf("foreign ProfessorDrop() error = %v, want ErrEnrollmentNotFound", err)
	}

	if err := svc.ProfessorDrop(context.Background(), 7, 100, "CS101", 1, "1404-1"); err != nil {
		t.Fatalf("owning ProfessorDrop() error = %v", err)
	}
}

func TestGradeTransitions(t *testing.T) {
	store := newFakeEnrollmentStore()
	course := &models.Course{ID: 10, Code: "CS101", Units: 3}
	store.addOffering(makeOffering(1, course, 30, examA, 1))
	svc := newEnrollmentService(store)

	enrollment, err := svc.Enroll(context.Background(), 100, "CS101", 1, "1404-1")
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	if err := svc.Grade(context.Background(), enrollment.ID, models.EnrollmentDropped); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("Grade(DROPPED) error = %v, want ErrBadRequest", err)
	}

	if err := svc.Grade(context.Background(), enrollment.ID, models.EnrollmentPassed); err != nil {
		t.Fatalf("Grade(PASSED) error = %v", err)
	}

	// Graded rows are terminal
	if err := svc.Grade(context.Background(), enrollment.ID, models.EnrollmentFailed); !errors.Is(err, apperrors.ErrEnrollmentNotFound) {
		t.Errorf("re-grade error = %v, want ErrEnrollmentNotFound", err)
	}
}
