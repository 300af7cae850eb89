package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"ArtistStudio/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	records []*model.UploadRecord
	// confirmAfterList marks records active right after they are listed.
	confirmAfterList map[string]bool
	deleted          []string
	failOn           map[string]bool
	listErr          error
	cutoffs          []time.Time
	listCalls        int
}

func (f *fakeRecords) ListStale(_ context.Context, before time.Time, limit int) ([]*model.UploadRecord, error) {
	f.listCalls++
	f.cutoffs = append(f.cutoffs, before)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.UploadRecord
	for _, r := range f.records {
		if !r.Active && r.CreatedAt.Before(before) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	for _, r := range out {
		if f.confirmAfterList[r.ID] {
			r.Active = true
		}
	}
	return out, nil
}

func (f *fakeRecords) DeleteInactive(_ context.Context, id string) (bool, error) {
	if f.failOn[id] {
		return false, errors.New("locked")
	}
	found := false
	kept := f.records[:0]
	for _, r := range f.records {
		if r.ID == id && !r.Active {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	if found {
		f.deleted = append(f.deleted, id)
	}
	return found, nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) RemoveObject(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, key)
	return nil
}

type fakeSweepRecorder struct{ counts map[string]int }

func (f *fakeSweepRecorder) RecordSweep(result string, n int) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[result] += n
}

var sweepNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestJob(records StaleRecords, remover ObjectRemover, rec SweepRecorder) *SweepJob {
	job := NewSweepJob(records, remover, 24*time.Hour, rec)
	job.clock = func() time.Time { return sweepNow }
	return job
}

func staleRecord(id string, age time.Duration, active bool) *model.UploadRecord {
	return &model.UploadRecord{
		ID:          id,
		StoragePath: "track/" + id + ".mp3",
		Active:      active,
		CreatedAt:   sweepNow.Add(-age),
	}
}

func TestSweepDeletesOnlyStaleInactive(t *testing.T) {
	records := &fakeRecords{records: []*model.UploadRecord{
		staleRecord("old", 48*time.Hour, false),
		staleRecord("fresh", time.Hour, false),
		staleRecord("confirmed", 72*time.Hour, true),
	}}
	remover := &fakeRemover{}
	rec := &fakeSweepRecorder{}

	res, err := newTestJob(records, remover, rec).Sweep(context.Background(), 24*time.Hour, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"old"}, records.deleted)
	assert.Equal(t, []string{"track/old.mp3"}, remover.removed)
	assert.Equal(t, sweepNow.Add(-24*time.Hour), records.cutoffs[0])
	assert.Equal(t, 1, rec.counts["deleted"])
	assert.Equal(t, 0, rec.counts["failed"])
}

func TestSweepObjectRemovalIsBestEffort(t *testing.T) {
	records := &fakeRecords{records: []*model.UploadRecord{staleRecord("a", 48*time.Hour, false)}}
	remover := &fakeRemover{err: errors.New("no such key")}

	res, err := newTestJob(records, remover, nil).Sweep(context.Background(), 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.ObjectsFailed)
	assert.Empty(t, records.records)
}

func TestSweepKeepsRecordConfirmedDuringRun(t *testing.T) {
	records := &fakeRecords{
		records: []*model.UploadRecord{
			staleRecord("racing", 48*time.Hour, false),
			staleRecord("abandoned", 48*time.Hour, false),
		},
		confirmAfterList: map[string]bool{"racing": true},
	}
	remover := &fakeRemover{}
	rec := &fakeSweepRecorder{}

	res, err := newTestJob(records, remover, rec).Sweep(context.Background(), 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"abandoned"}, records.deleted)
	assert.Equal(t, []string{"track/abandoned.mp3"}, remover.removed, "object of a confirmed record is kept")
	require.Len(t, records.records, 1)
	assert.True(t, records.records[0].Active)
	assert.Equal(t, 1, rec.counts["skipped"])
}

func TestSweepKeepsObjectWhenRecordDeleteFails(t *testing.T) {
	records := &fakeRecords{
		records: []*model.UploadRecord{staleRecord("a", 48*time.Hour, false)},
		failOn:  map[string]bool{"a": true},
	}
	remover := &fakeRemover{}

	res, err := newTestJob(records, remover, nil).Sweep(context.Background(), 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, remover.removed)
}

func TestSweepPagesThroughBatches(t *testing.T) {
	records := &fakeRecords{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		records.records = append(records.records, staleRecord(id, 48*time.Hour, false))
	}

	res, err := newTestJob(records, &fakeRemover{}, nil).Sweep(context.Background(), 24*time.Hour, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Deleted)
	assert.Equal(t, 3, records.listCalls)
}

func TestSweepStopsAfterDeleteFailure(t *testing.T) {
	records := &fakeRecords{failOn: map[string]bool{"a": true}}
	records.records = []*model.UploadRecord{
		staleRecord("a", 48*time.Hour, false),
		staleRecord("b", 48*time.Hour, false),
	}
	rec := &fakeSweepRecorder{}

	res, err := newTestJob(records, &fakeRemover{}, rec).Sweep(context.Background(), 24*time.Hour, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, records.listCalls)
	assert.Equal(t, 1, rec.counts["failed"])
}

func TestSweepListError(t *testing.T) {
	records := &fakeRecords{listErr: errors.New("db down")}
	_, err := newTestJob(records, &fakeRemover{}, nil).Sweep(context.Background(), time.Hour, 0)
	assert.Error(t, err)
}

func TestSweepRejectsNonPositiveAge(t *testing.T) {
	_, err := newTestJob(&fakeRecords{}, &fakeRemover{}, nil).Sweep(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestHandleUsesPayloadOverride(t *testing.T) {
	records := &fakeRecords{records: []*model.UploadRecord{staleRecord("a", 2*time.Hour, false)}}
	job := newTestJob(records, &fakeRemover{}, nil)

	task, err := NewSweepTask(SweepPayload{OlderThanSeconds: 3600})
	require.NoError(t, err)
	assert.Equal(t, TaskUploadsSweep, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"a"}, records.deleted)
	assert.Equal(t, sweepNow.Add(-time.Hour), records.cutoffs[0])
}

func TestHandleBadPayloadSkipsRetry(t *testing.T) {
	job := newTestJob(&fakeRecords{}, &fakeRemover{}, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskUploadsSweep, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewWorkerRegistersCron(t *testing.T) {
	mr := miniredis.RunT(t)
	task, err := NewSweepTask(SweepPayload{})
	require.NoError(t, err)

	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Handlers:  []TaskHandler{{Type: TaskUploadsSweep, Handler: newTestJob(&fakeRecords{}, nil, nil).Handle}},
		Cron:      []CronRegistration{{Spec: "@every 1h", Task: task}},
	})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Cron:      []CronRegistration{{Spec: "not a schedule", Task: task}},
	})
	assert.Error(t, err)
}
