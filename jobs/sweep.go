package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ArtistStudio/logger"
	"ArtistStudio/model"

	"github.com/hibiken/asynq"
)

const (
	defaultBatchSize = 200
	maxBatches       = 50
)

// StaleRecords is the repository subset the sweeper needs.
type StaleRecords interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]*model.UploadRecord, error)
	DeleteInactive(ctx context.Context, id string) (bool, error)
}

// ObjectRemover deletes uploaded objects.
type ObjectRemover interface {
	RemoveObject(ctx context.Context, key string) error
}

// SweepRecorder counts sweep outcomes.
type SweepRecorder interface {
	RecordSweep(result string, n int)
}

// SweepResult summarises one run.
type SweepResult struct {
	Deleted int
	Failed  int
	// Skipped counts records confirmed between listing and deletion.
	Skipped       int
	ObjectsFailed int
}

// SweepJob deletes inactive upload records older than StaleAfter together with their objects.
type SweepJob struct {
	Records    StaleRecords
	Storage    ObjectRemover
	StaleAfter time.Duration
	Recorder   SweepRecorder
	clock      func() time.Time
}

// NewSweepJob wires dependencies for the sweep handler.
func NewSweepJob(records StaleRecords, storage ObjectRemover, staleAfter time.Duration, recorder SweepRecorder) *SweepJob {
	return &SweepJob{
		Records:    records,
		Storage:    storage,
		StaleAfter: staleAfter,
		Recorder:   recorder,
		clock:      func() time.Time { return time.Now() },
	}
}

// Handle processes TaskUploadsSweep tasks.
func (j *SweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("uploads sweep: handler not configured")
	}
	var payload SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("uploads sweep: bad payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	olderThan := j.StaleAfter
	if payload.OlderThanSeconds > 0 {
		olderThan = time.Duration(payload.OlderThanSeconds) * time.Second
	}
	_, err := j.Sweep(ctx, olderThan, payload.BatchSize)
	return err
}

// Sweep runs one pass. A record is deleted only while still inactive and its
// object is removed afterwards on a best effort basis.
func (j *SweepJob) Sweep(ctx context.Context, olderThan time.Duration, batchSize int) (SweepResult, error) {
	var res SweepResult
	if olderThan <= 0 {
		return res, errors.New("uploads sweep: stale age must be positive")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	cutoff := j.clock().Add(-olderThan)
	start := time.Now()

	for batch := 0; batch < maxBatches; batch++ {
		records, err := j.Records.ListStale(ctx, cutoff, batchSize)
		if err != nil {
			logger.Error("[Sweep] 查询过期上传记录失败", logger.ErrorField(err))
			j.record(res)
			return res, fmt.Errorf("list stale uploads: %w", err)
		}
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				j.record(res)
				return res, err
			}
			// 先条件删除记录，再删对象；记录已被确认时保留对象
			deleted, err := j.Records.DeleteInactive(ctx, rec.ID)
			if err != nil {
				res.Failed++
				logger.Warn("[Sweep] 删除上传记录失败",
					logger.String("uploadId", rec.ID),
					logger.ErrorField(err))
				continue
			}
			if !deleted {
				res.Skipped++
				logger.Info("[Sweep] 上传记录已被确认，跳过", logger.String("uploadId", rec.ID))
				continue
			}
			res.Deleted++
			if j.Storage != nil {
				if err := j.Storage.RemoveObject(ctx, rec.StoragePath); err != nil {
					res.ObjectsFailed++
					logger.Warn("[Sweep] 删除对象失败",
						logger.String("key", rec.StoragePath),
						logger.ErrorField(err))
				}
			}
		}
		// a short page means nothing is left; failed deletes would otherwise be listed again
		if len(records) < batchSize || res.Failed > 0 {
			break
		}
	}

	j.record(res)
	logger.Info("[Sweep] 清理完成",
		logger.Int("deleted", res.Deleted),
		logger.Int("failed", res.Failed),
		logger.Int("skipped", res.Skipped),
		logger.Int("objectsFailed", res.ObjectsFailed),
		logger.Time("cutoff", cutoff),
		logger.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (j *SweepJob) record(res SweepResult) {
	if j.Recorder == nil {
		return
	}
	j.Recorder.RecordSweep("deleted", res.Deleted)
	j.Recorder.RecordSweep("failed", res.Failed)
	j.Recorder.RecordSweep("skipped", res.Skipped)
}
