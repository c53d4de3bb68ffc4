package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"summitclips-server/internal/models"
)

const (
	keyPrefix    = "summitclips"
	jobTTL       = 24 * time.Hour
	pollInterval = 5 * time.Second
)

// Job represents an analysis job in the queue
type Job struct {
	ID           string                 `json:"id"`
	Type         JobType                `json:"type"`
	VideoPath    string                 `json:"video_path"`
	Status       JobStatus              `json:"status"`
	Progress     int                    `json:"progress"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
}

// JobType represents the type of processing job
type JobType string

const (
	JobTypeVideoAnalysis JobType = "video_analysis"
)

// JobStatus represents the processing status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Config holds queue configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Queue is a Redis-backed list of analysis jobs with per-job status hashes
type Queue struct {
	client *redis.Client
}

// NewQueue creates a new queue instance
func NewQueue(ctx context.Context, config Config) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func listKey(jobType JobType) string {
	return fmt.Sprintf("%s:jobs:%s", keyPrefix, jobType)
}

func jobKey(jobID string) string {
	return fmt.Sprintf("%s:job:%s", keyPrefix, jobID)
}

// NewJob builds a pending analysis job for videoPath
func NewJob(videoPath string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Type:      JobTypeVideoAnalysis,
		VideoPath: videoPath,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Enqueue adds an analysis job to the queue
func (q *Queue) Enqueue(ctx context.Context, videoPath string) (*Job, error) {
	job := NewJob(videoPath)

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	// status hash first so the job is visible before a worker can pick it up
	if err := q.save(ctx, job.ID, jobBytes); err != nil {
		return nil, err
	}
	if err := q.client.LPush(ctx, listKey(job.Type), jobBytes).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job, nil
}

func (q *Queue) save(ctx context.Context, jobID string, jobBytes []byte) error {
	key := jobKey(jobID)
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, "data", jobBytes)
	pipe.Expire(ctx, key, jobTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store job data: %w", err)
	}
	return nil
}

// Dequeue waits up to the poll interval for a job. It returns nil, nil when none arrived.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BRPop(ctx, pollInterval, listKey(JobTypeVideoAnalysis)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("invalid dequeue result")
	}

	return decodeJob(result[1])
}

func decodeJob(data string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// update applies fn to the stored job and writes it back
func (q *Queue) update(ctx context.Context, jobID string, fn func(*Job)) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	fn(job)

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.save(ctx, jobID, jobBytes)
}

// MarkRunning records that a worker picked up the job
func (q *Queue) MarkRunning(ctx context.Context, jobID string) error {
	return q.update(ctx, jobID, func(job *Job) { applyStatus(job, JobStatusRunning, 10, "") })
}

// Complete stores the analysis result
func (q *Queue) Complete(ctx context.Context, jobID string, result *models.AnalysisResult) error {
	return q.update(ctx, jobID, func(job *Job) {
		applyStatus(job, JobStatusCompleted, 100, "")
		job.Result = result
	})
}

// Fail marks the job failed with msg
func (q *Queue) Fail(ctx context.Context, jobID string, msg string) error {
	return q.update(ctx, jobID, func(job *Job) { applyStatus(job, JobStatusFailed, job.Progress, msg) })
}

func applyStatus(job *Job, status JobStatus, progress int, errorMessage string) {
	job.Status = status
	job.Progress = progress
	if errorMessage != "" {
		job.ErrorMessage = &errorMessage
	}

	now := time.Now()
	switch status {
	case JobStatusRunning:
		job.StartedAt = &now
	case JobStatusCompleted, JobStatusFailed:
		job.CompletedAt = &now
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.HGet(ctx, jobKey(jobID), "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.NotFound("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job data: %w", err)
	}
	return decodeJob(jobData)
}

// ListJobs returns up to limit tracked jobs; limit <= 0 means all
func (q *Queue) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	var cursor uint64
	jobs := []*Job{}
	count := int64(limit)
	if count <= 0 {
		count = 100
	}

	for {
		keys, next, err := q.client.Scan(ctx, cursor, jobKey("*"), count).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan job keys: %w", err)
		}

		for _, key := range keys {
			jobData, err := q.client.HGet(ctx, key, "data").Result()
			if err != nil {
				continue // expired between scan and read
			}
			job, err := decodeJob(jobData)
			if err != nil {
				continue
			}
			jobs = append(jobs, job)
			if limit > 0 && len(jobs) >= limit {
				return jobs, nil
			}
		}

		cursor = next
		if cursor == 0 {
			return jobs, nil
		}
	}
}

// Health pings Redis
func (q *Queue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close closes the queue connection
func (q *Queue) Close() error {
	return q.client.Close()
}
