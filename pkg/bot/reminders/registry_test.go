package reminders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smith3v/tg-bible-reminder/pkg/db"
	"github.com/smith3v/tg-bible-reminder/pkg/internal/testutil"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type firedCall struct {
	chatID int64
}

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB, *[]firedCall) {
	t.Helper()
	logger.SetLogLevel(logger.ERROR)
	t.Cleanup(func() { logger.SetLogLevel(logger.INFO) })

	gdb := testutil.SetupTestDB(t)
	calls := &[]firedCall{}
	r := NewRegistry(store.NewGorm(gdb), func(_ context.Context, chatID int64) {
		*calls = append(*calls, firedCall{chatID: chatID})
	})
	return r, gdb, calls
}

func countStoredJobs(t *testing.T, gdb *gorm.DB, name string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&db.ReminderJob{}).Where("name = ?", name).Count(&count).Error)
	return count
}

func TestScheduleDailyRegistersJob(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	job, err := r.ScheduleDaily(ctx, 42, TimeOfDay{Hour: 8}, AllWeekdays, JobName(42))
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "42", job.Name)

	jobs := r.FindByName("42")
	require.Len(t, jobs, 1)
	assert.Equal(t, TimeOfDay{Hour: 8}, jobs[0].Time)
	assert.Equal(t, AllWeekdays, jobs[0].Weekdays)
	assert.EqualValues(t, 1, countStoredJobs(t, gdb, "42"))
}

func TestScheduleDailyReplacesExistingJob(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.ScheduleDaily(ctx, 42, TimeOfDay{Hour: 8}, AllWeekdays, JobName(42))
	require.NoError(t, err)
	_, err = r.ScheduleDaily(ctx, 42, TimeOfDay{Hour: 19, Minute: 45}, AllWeekdays, JobName(42))
	require.NoError(t, err)

	jobs := r.FindByName("42")
	require.Len(t, jobs, 1)
	assert.Equal(t, TimeOfDay{Hour: 19, Minute: 45}, jobs[0].Time)
	assert.EqualValues(t, 1, countStoredJobs(t, gdb, "42"))
}

func TestScheduleDailyKeepsChatsApart(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.ScheduleDaily(ctx, 1, TimeOfDay{Hour: 6}, AllWeekdays, JobName(1))
	require.NoError(t, err)
	_, err = r.ScheduleDaily(ctx, 2, TimeOfDay{Hour: 7}, AllWeekdays, JobName(2))
	require.NoError(t, err)

	assert.Len(t, r.FindByName("1"), 1)
	assert.Len(t, r.FindByName("2"), 1)
	assert.Empty(t, r.FindByName("3"))
}

func TestScheduleDailyValidates(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.ScheduleDaily(ctx, 1, TimeOfDay{Hour: 24}, AllWeekdays, JobName(1))
	assert.ErrorIs(t, err, ErrHourOutOfRange)
	_, err = r.ScheduleDaily(ctx, 1, TimeOfDay{Hour: 8}, nil, JobName(1))
	assert.ErrorIs(t, err, ErrNoWeekdays)
	assert.EqualValues(t, 0, countStoredJobs(t, gdb, "1"))
}

func TestCancelAllWithoutJobs(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	n, err := r.CancelAll(context.Background(), "77")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCancelAllRemovesEveryJob(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, gdb.Create(&db.ReminderJob{
			ChatID:   9,
			Name:     "9",
			Hour:     8 + i,
			Weekdays: datatypes.NewJSONSlice([]int{0, 1, 2, 3, 4, 5, 6}),
		}).Error)
	}
	restored, err := r.Restore(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, restored)
	require.Len(t, r.FindByName("9"), 3)

	n, err := r.CancelAll(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, r.FindByName("9"))
	assert.EqualValues(t, 0, countStoredJobs(t, gdb, "9"))
}

func TestRestoreSkipsActiveAndInvalidJobs(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.ScheduleDaily(ctx, 5, TimeOfDay{Hour: 5}, AllWeekdays, JobName(5))
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&db.ReminderJob{
		ChatID:   6,
		Name:     "6",
		Hour:     99,
		Weekdays: datatypes.NewJSONSlice([]int{0}),
	}).Error)

	restored, err := r.Restore(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)
	assert.Len(t, r.FindByName("5"), 1)
	assert.Empty(t, r.FindByName("6"))
}

func TestFireStopsAfterCancel(t *testing.T) {
	r, _, calls := newTestRegistry(t)
	ctx := context.Background()

	job, err := r.ScheduleDaily(ctx, 11, TimeOfDay{Hour: 9}, AllWeekdays, JobName(11))
	require.NoError(t, err)

	r.fire(job.ID, job.ChatID)
	require.Len(t, *calls, 1)
	assert.EqualValues(t, 11, (*calls)[0].chatID)

	require.NoError(t, r.Cancel(ctx, job))
	r.fire(job.ID, job.ChatID)
	assert.Len(t, *calls, 1)
}

func TestStartedRegistryReportsNextFire(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	t.Cleanup(func() { <-r.Stop().Done() })

	job, err := r.ScheduleDaily(ctx, 12, TimeOfDay{Hour: 3, Minute: 15}, AllWeekdays, JobName(12))
	require.NoError(t, err)
	require.False(t, job.Next.IsZero())
	assert.Equal(t, time.UTC, job.Next.Location())
	assert.Equal(t, 3, job.Next.Hour())
	assert.Equal(t, 15, job.Next.Minute())
}

func TestScheduleDailyConcurrentCallsKeepOneJob(t *testing.T) {
	r, gdb, _ := newTestRegistry(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(minute int) {
			defer wg.Done()
			_, err := r.ScheduleDaily(ctx, 11, TimeOfDay{Hour: 6, Minute: minute}, AllWeekdays, JobName(11))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, r.FindByName(JobName(11)), 1)
	assert.EqualValues(t, 1, countStoredJobs(t, gdb, JobName(11)))
}
