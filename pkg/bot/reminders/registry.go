// Package reminders keeps the per-chat daily reminder jobs. Jobs are executed
// by robfig/cron in UTC and mirrored to storage so they survive restarts.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smith3v/tg-bible-reminder/pkg/db"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
	"gorm.io/datatypes"
)

var ErrNoWeekdays = errors.New("no weekdays selected")

// Callback is invoked for every fire of a chat's job.
type Callback func(ctx context.Context, chatID int64)

type Job struct {
	ID        string
	ChatID    int64
	Name      string
	Time      TimeOfDay
	Weekdays  []time.Weekday
	CreatedAt time.Time
	// Next is zero until the registry has been started.
	Next time.Time
}

type registeredJob struct {
	job     Job
	entryID cron.EntryID
}

type Registry struct {
	// writeMu serializes replace, cancel and restore so that a name never
	// ends up with two jobs. mu only guards the in-memory index.
	writeMu  sync.Mutex
	mu       sync.Mutex
	cron     *cron.Cron
	store    store.Jobs
	callback Callback
	jobs     map[string]registeredJob
	ctx      context.Context
}

// JobName is the lookup key shared by every job of a chat.
func JobName(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func NewRegistry(jobs store.Jobs, callback Callback) *Registry {
	return &Registry{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		store:    jobs,
		callback: callback,
		jobs:     make(map[string]registeredJob),
		ctx:      context.Background(),
	}
}

// Start begins firing jobs. ctx is handed to every callback.
func (r *Registry) Start(ctx context.Context) {
	if ctx != nil {
		r.mu.Lock()
		r.ctx = ctx
		r.mu.Unlock()
	}
	r.cron.Start()
}

// Stop halts the scheduler; the returned context is done once running
// callbacks have finished.
func (r *Registry) Stop() context.Context {
	return r.cron.Stop()
}

// ScheduleDaily replaces every job named name with a single new one firing
// at t on days.
func (r *Registry) ScheduleDaily(ctx context.Context, chatID int64, t TimeOfDay, days []time.Weekday, name string) (Job, error) {
	if err := t.Validate(); err != nil {
		return Job{}, err
	}
	if len(days) == 0 {
		return Job{}, ErrNoWeekdays
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if _, err := r.cancelAll(ctx, name); err != nil {
		return Job{}, err
	}

	record := db.ReminderJob{
		ChatID:   chatID,
		Name:     name,
		Hour:     t.Hour,
		Minute:   t.Minute,
		Weekdays: datatypes.NewJSONSlice(weekdayInts(days)),
	}
	if err := r.store.SaveJob(ctx, &record); err != nil {
		return Job{}, fmt.Errorf("save reminder job: %w", err)
	}

	job := jobFromRecord(record)
	if err := r.register(job); err != nil {
		if delErr := r.store.DeleteJob(ctx, record.ID); delErr != nil {
			logger.Error("failed to roll back reminder job", "job_id", record.ID, "error", delErr)
		}
		return Job{}, err
	}
	logger.Info("reminder scheduled", "chat_id", chatID, "time", t.String(), "job_id", job.ID)
	return r.withNext(job), nil
}

// FindByName lists the active jobs for name, oldest first.
func (r *Registry) FindByName(name string) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Job, 0)
	for _, entry := range r.jobs {
		if entry.job.Name != name {
			continue
		}
		job := entry.job
		job.Next = r.cron.Entry(entry.entryID).Next
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Cancel stops future fires of job and forgets it. Cancelling an unknown job
// only clears storage.
func (r *Registry) Cancel(ctx context.Context, job Job) error {
	r.mu.Lock()
	if entry, ok := r.jobs[job.ID]; ok {
		r.cron.Remove(entry.entryID)
		delete(r.jobs, job.ID)
	}
	r.mu.Unlock()

	if err := r.store.DeleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("delete reminder job: %w", err)
	}
	return nil
}

// CancelAll cancels every job named name and reports how many there were.
func (r *Registry) CancelAll(ctx context.Context, name string) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.cancelAll(ctx, name)
}

func (r *Registry) cancelAll(ctx context.Context, name string) (int, error) {
	jobs := r.FindByName(name)
	for i, job := range jobs {
		if err := r.Cancel(ctx, job); err != nil {
			return i, err
		}
	}
	return len(jobs), nil
}

// Restore registers every persisted job that is not already active.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	records, err := r.store.ListJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reminder jobs: %w", err)
	}
	restored := 0
	for _, record := range records {
		r.mu.Lock()
		_, active := r.jobs[record.ID]
		r.mu.Unlock()
		if active {
			continue
		}
		job := jobFromRecord(record)
		if err := job.Time.Validate(); err != nil {
			logger.Error("skipping invalid stored reminder", "job_id", record.ID, "error", err)
			continue
		}
		if err := r.register(job); err != nil {
			logger.Error("failed to restore reminder", "job_id", record.ID, "error", err)
			continue
		}
		restored++
	}
	return restored, nil
}

func (r *Registry) register(job Job) error {
	days := job.Weekdays
	if len(days) == 0 {
		days = AllWeekdays
	}
	spec := CronSpec(job.Time, days)

	r.mu.Lock()
	defer r.mu.Unlock()
	entryID, err := r.cron.AddFunc(spec, func() { r.fire(job.ID, job.ChatID) })
	if err != nil {
		return fmt.Errorf("register cron spec %q: %w", spec, err)
	}
	r.jobs[job.ID] = registeredJob{job: job, entryID: entryID}
	return nil
}

func (r *Registry) fire(jobID string, chatID int64) {
	r.mu.Lock()
	_, active := r.jobs[jobID]
	ctx := r.ctx
	r.mu.Unlock()
	if !active || r.callback == nil {
		return
	}
	logger.Debug("reminder fired", "chat_id", chatID, "job_id", jobID)
	r.callback(ctx, chatID)
}

func (r *Registry) withNext(job Job) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.jobs[job.ID]; ok {
		job.Next = r.cron.Entry(entry.entryID).Next
	}
	return job
}

func jobFromRecord(record db.ReminderJob) Job {
	days := make([]time.Weekday, 0, len(record.Weekdays))
	for _, d := range record.Weekdays {
		days = append(days, time.Weekday(d))
	}
	return Job{
		ID:        record.ID,
		ChatID:    record.ChatID,
		Name:      record.Name,
		Time:      TimeOfDay{Hour: record.Hour, Minute: record.Minute},
		Weekdays:  days,
		CreatedAt: record.CreatedAt,
	}
}

func weekdayInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}
