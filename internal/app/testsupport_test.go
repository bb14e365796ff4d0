package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"medication_reminder_service/internal/domain/medication"
	"medication_reminder_service/internal/domain/reminder"
	idb "medication_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// fakeCatalog is an in-memory medication.Catalog.
type fakeCatalog struct {
	medications []*medication.Medication
	listErr     error
}

func (f *fakeCatalog) ListActive(_ context.Context, userID string) ([]*medication.Medication, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*medication.Medication, 0)
	for _, m := range f.medications {
		if m.UserID == userID && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id, userID string) (*medication.Medication, error) {
	for _, m := range f.medications {
		if m.ID == id && m.UserID == userID {
			return m, nil
		}
	}
	return nil, idb.ErrMedicationNotFound
}

func (f *fakeCatalog) ListUserIDsWithActiveMedications(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range f.medications {
		if m.Active && !seen[m.UserID] {
			seen[m.UserID] = true
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

// fakeReminderRepo is an in-memory reminder.Repository that mirrors
// the conditional semantics of the Postgres implementation, including
// the dedup key. Error fields inject store failures per operation.
type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders map[string]*reminder.Reminder

	existsErr error
	insertErr error
	markErr   error
	updateErr error
	bulkErr   error
	listErr   error
	countErr  error
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[string]*reminder.Reminder)}
}

func dedupKey(userID, medicationID string, at time.Time) string {
	return fmt.Sprintf("%s|%s|%d", userID, medicationID, at.UnixNano())
}

func (f *fakeReminderRepo) Exists(_ context.Context, userID, medicationID string, scheduledTime time.Time) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dedupKey(userID, medicationID, scheduledTime)
	for _, r := range f.reminders {
		if dedupKey(r.UserID, r.MedicationID, r.ScheduledTime) == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReminderRepo) InsertMany(_ context.Context, batch []*reminder.Reminder) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := make(map[string]bool, len(f.reminders))
	for _, r := range f.reminders {
		existing[dedupKey(r.UserID, r.MedicationID, r.ScheduledTime)] = true
	}
	inserted := 0
	for _, r := range batch {
		key := dedupKey(r.UserID, r.MedicationID, r.ScheduledTime)
		if existing[key] {
			continue
		}
		existing[key] = true
		cp := *r
		cp.CreatedAt = time.Now()
		cp.UpdatedAt = cp.CreatedAt
		f.reminders[cp.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (f *fakeReminderRepo) MarkMissed(_ context.Context, scheduledBefore, updatedBefore time.Time) (int64, error) {
	if f.markErr != nil {
		return 0, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, r := range f.reminders {
		if r.Status == reminder.StatusPending &&
			r.ScheduledTime.Before(scheduledBefore) &&
			r.UpdatedAt.Before(updatedBefore) {
			r.Status = reminder.StatusMissed
			r.TakenAt = nil
			r.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (f *fakeReminderRepo) UpdateStatusOwned(_ context.Context, id, userID string, patch reminder.StatusPatch) (*reminder.Reminder, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.UserID != userID {
		return nil, idb.ErrReminderNotFound
	}
	r.Status = patch.Status
	r.TakenAt = patch.TakenAt
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}
	if patch.DoseTaken != nil {
		r.DoseTaken = *patch.DoseTaken
	}
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (f *fakeReminderRepo) BulkMarkPending(_ context.Context, ids []string, userID string, status reminder.Status, takenAt *time.Time) (int64, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, id := range ids {
		r, ok := f.reminders[id]
		if !ok || r.UserID != userID || r.Status != reminder.StatusPending {
			continue
		}
		r.Status = status
		r.TakenAt = takenAt
		r.UpdatedAt = time.Now()
		count++
	}
	return count, nil
}

func (f *fakeReminderRepo) FindByIDs(_ context.Context, ids []string, userID string) ([]*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*reminder.Reminder, 0)
	for _, id := range ids {
		if r, ok := f.reminders[id]; ok && r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) ListByUserBetween(_ context.Context, userID string, from, to *time.Time) ([]*reminder.Reminder, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*reminder.Reminder, 0)
	for _, r := range f.reminders {
		if r.UserID != userID {
			continue
		}
		if from != nil && r.ScheduledTime.Before(*from) {
			continue
		}
		if to != nil && r.ScheduledTime.After(*to) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (f *fakeReminderRepo) CountByStatus(ctx context.Context, userID string, from, to *time.Time) (reminder.StatusCounts, error) {
	if f.countErr != nil {
		return reminder.StatusCounts{}, f.countErr
	}
	list, err := f.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		return reminder.StatusCounts{}, err
	}
	counts := reminder.StatusCounts{}
	for _, r := range list {
		counts.Total++
		switch r.Status {
		case reminder.StatusTaken:
			counts.Taken++
		case reminder.StatusMissed:
			counts.Missed++
		case reminder.StatusSkipped:
			counts.Skipped++
		case reminder.StatusPending:
			counts.Pending++
		}
	}
	return counts, nil
}

func (f *fakeReminderRepo) DeleteOwned(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.UserID != userID {
		return idb.ErrReminderNotFound
	}
	delete(f.reminders, id)
	return nil
}

// seed inserts a reminder directly, bypassing the dedup check, for
// test setup.
func (f *fakeReminderRepo) seed(r *reminder.Reminder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.reminders[cp.ID] = &cp
}

func (f *fakeReminderRepo) all() []*reminder.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*reminder.Reminder, 0, len(f.reminders))
	for _, r := range f.reminders {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out
}

func (f *fakeReminderRepo) get(id string) *reminder.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reminders[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}
