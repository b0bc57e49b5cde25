package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"lendly/internal/database"
	"lendly/internal/metrics"
	"lendly/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const TaskRefresh = "refresh"

// reportTaskPayload is persisted in SyncTask.Payload as JSON.
type reportTaskPayload struct {
	BookingID int64 `json:"booking_id"`
}

// ReportWorker consumes sync_queue tasks and regenerates the bookings
// spreadsheet. Every booking lifecycle change enqueues a refresh; the report
// itself is always rebuilt whole, so collapsing a burst of tasks into one
// rebuild is harmless.
type ReportWorker struct {
	db            *database.DB
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	exportPath    string
	logger        *zerolog.Logger
}

// NewReportWorker builds a worker with sane defaults.
func NewReportWorker(db *database.DB, redisClient *redis.Client, retry RetryPolicy, exportPath string, logger *zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		db:            db,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "reports:queue",
		deadLetterKey: "reports:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		exportPath:    exportPath,
		logger:        logger,
	}
}

// EnqueueTask persists the task to the DB and schedules it via redis or the
// in-memory queue.
func (w *ReportWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 {
		return errors.New("booking id is required")
	}

	payloadBytes, err := json.Marshal(reportTaskPayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("report_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("report_worker: in-memory queue full, task dropped to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("report_worker: started")
	defer w.logger.Info().Msg("report_worker: stopped")

	w.reconcileFailed(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("report_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ReportWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *ReportWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("report_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("report_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *ReportWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if task.TaskType != TaskRefresh {
		w.failTask(ctx, task, fmt.Errorf("unknown task type: %s", task.TaskType))
		return
	}

	if err := w.GenerateReport(ctx); err != nil {
		metrics.IncExportRun("error")
		w.retryOrFail(ctx, task, err)
		return
	}
	metrics.IncExportRun("ok")

	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: mark completed")
	}
}

// GenerateReport rebuilds the bookings spreadsheet from the current state of
// the store.
func (w *ReportWorker) GenerateReport(ctx context.Context) error {
	rows, err := w.db.GetBookingReportRows(ctx)
	if err != nil {
		return fmt.Errorf("load report rows: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Item", "Booker", "Start", "End", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, r := range rows {
		values := []interface{}{
			r.BookingID,
			r.ItemName,
			r.BookerName,
			r.Start.Format(time.RFC3339),
			r.End.Format(time.RFC3339),
			string(r.Status),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	path := filepath.Join(w.exportPath, "bookings.xlsx")
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	w.logger.Debug().Int("rows", len(rows)).Str("path", path).Msg("report_worker: report written")
	return nil
}

func (w *ReportWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: mark retry")
	}
}

// reconcileFailed re-publishes tasks already marked failed in the DB, so the
// dead-letter list survives a crash between the status update and the redis
// push.
func (w *ReportWorker) reconcileFailed(ctx context.Context) {
	tasks, err := w.db.GetFailedSyncTasks(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("report_worker: fetch failed tasks")
		return
	}
	if len(tasks) == 0 {
		return
	}
	w.logger.Warn().Int("count", len(tasks)).Msg("report_worker: failed tasks in backlog")
	for i := range tasks {
		w.pushDeadLetter(ctx, &tasks[i])
	}
}

func (w *ReportWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *ReportWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ReportWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("report_worker: deadletter push")
	}
}
