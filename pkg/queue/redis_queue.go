package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var addScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "data", ARGV[2], "attempts", ARGV[3], "attemptsMade", 0,
	"backoffType", ARGV[4], "backoffDelay", ARGV[5], "backoffMultiplier", ARGV[6], "timestamp", ARGV[7])
redis.call("LPUSH", KEYS[2], ARGV[1])
return 1
`)

var moveToActiveScript = redis.NewScript(`
local id = redis.call("RPOPLPUSH", KEYS[1], KEYS[2])
if not id then
	return false
end
if not redis.call("SET", ARGV[1] .. id, ARGV[2], "NX", "PX", ARGV[3]) then
	redis.call("LREM", KEYS[2], 1, id)
	return false
end
return id
`)

var extendLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var finishScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call("LREM", KEYS[2], 0, ARGV[2])
redis.call("DEL", KEYS[3], KEYS[1])
redis.call("INCR", KEYS[4])
return 1
`)

var retryScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call("LREM", KEYS[2], 0, ARGV[2])
redis.call("HSET", KEYS[3], "attemptsMade", ARGV[3], "failedReason", ARGV[4])
redis.call("ZADD", KEYS[4], ARGV[5], ARGV[2])
redis.call("DEL", KEYS[1])
return 1
`)

var promoteDelayedScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])
local moved = 0
for _, id in ipairs(ids) do
	redis.call("ZREM", KEYS[1], id)
	if not redis.call("LPOS", KEYS[2], id) and not redis.call("LPOS", KEYS[3], id) then
		redis.call("LPUSH", KEYS[2], id)
		moved = moved + 1
	end
end
return moved
`)

var recoverStalledScript = redis.NewScript(`
local ids = redis.call("LRANGE", KEYS[1], 0, -1)
local seen = {}
local moved = 0
for _, id in ipairs(ids) do
	if not seen[id] and redis.call("EXISTS", ARGV[1] .. id) == 0 then
		seen[id] = true
		redis.call("LREM", KEYS[1], 0, id)
		if not redis.call("LPOS", KEYS[2], id) and not redis.call("ZSCORE", KEYS[3], id) then
			redis.call("RPUSH", KEYS[2], id)
		end
		moved = moved + 1
	end
end
return moved
`)

const promoteBatchSize = 1000

type Options struct {
	// LockDuration is the lease an executor holds on an active job. It is renewed every half
	// period while the handler runs; the stalled check only hands over jobs whose lease ran out.
	LockDuration    time.Duration
	PollInterval    time.Duration
	PromoteInterval time.Duration
	Logger          *zap.Logger
}

type redisQueue struct {
	client          *redis.Client
	prefix          string
	lockDuration    time.Duration
	pollInterval    time.Duration
	promoteInterval time.Duration
	logger          *zap.Logger
	now             func() time.Time
	newToken        func() string
}

func (q *redisQueue) key(name string) string {
	return q.prefix + name
}

func (q *redisQueue) jobKey(id string) string {
	return q.prefix + "job:" + id
}

func (q *redisQueue) lockKey(id string) string {
	return q.prefix + "lock:" + id
}

func (q *redisQueue) Add(ctx context.Context, jobID string, data []byte, opts JobOptions) (bool, error) {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	res, err := addScript.Run(ctx, q.client, []string{q.jobKey(jobID), q.key("wait")},
		jobID,
		string(data),
		attempts,
		string(opts.Backoff.Type),
		opts.Backoff.Delay.Milliseconds(),
		opts.Backoff.Multiplier,
		q.now().UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("RedisQueue.Add: %w", err)
	}
	return res == 1, nil
}

func (q *redisQueue) GetJobCounts(ctx context.Context) (JobCounts, error) {
	var counts JobCounts
	var err error
	if counts.Waiting, err = q.client.LLen(ctx, q.key("wait")).Result(); err != nil {
		return counts, fmt.Errorf("RedisQueue.GetJobCounts: %w", err)
	}
	if counts.Delayed, err = q.client.ZCard(ctx, q.key("delayed")).Result(); err != nil {
		return counts, fmt.Errorf("RedisQueue.GetJobCounts: %w", err)
	}
	if counts.Active, err = q.client.LLen(ctx, q.key("active")).Result(); err != nil {
		return counts, fmt.Errorf("RedisQueue.GetJobCounts: %w", err)
	}
	if counts.Completed, err = q.counter(ctx, "completed"); err != nil {
		return counts, fmt.Errorf("RedisQueue.GetJobCounts: %w", err)
	}
	if counts.Failed, err = q.counter(ctx, "failed"); err != nil {
		return counts, fmt.Errorf("RedisQueue.GetJobCounts: %w", err)
	}
	return counts, nil
}

func (q *redisQueue) counter(ctx context.Context, name string) (int64, error) {
	n, err := q.client.Get(ctx, q.key(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (q *redisQueue) Process(ctx context.Context, concurrency int, handler Handler) error {
	if concurrency < 1 {
		concurrency = 1
	}
	var wg sync.WaitGroup
	wg.Add(concurrency + 1)
	go func() {
		defer wg.Done()
		q.runMaintenance(ctx)
	}()
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			q.runExecutor(ctx, handler)
		}()
	}
	wg.Wait()
	return nil
}

func (q *redisQueue) runExecutor(ctx context.Context, handler Handler) {
	for ctx.Err() == nil {
		processed, err := q.processNext(ctx, handler)
		if err != nil && ctx.Err() == nil {
			q.logger.Error("failed to process job", zap.Error(err))
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *redisQueue) runMaintenance(ctx context.Context) {
	promoteTicker := time.NewTicker(q.promoteInterval)
	defer promoteTicker.Stop()
	stalledTicker := time.NewTicker(q.lockDuration / 2)
	defer stalledTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-promoteTicker.C:
			if _, err := q.promoteDelayed(ctx); err != nil && ctx.Err() == nil {
				q.logger.Error("failed to promote delayed jobs", zap.Error(err))
			}
		case <-stalledTicker.C:
			n, err := q.recoverStalled(ctx)
			if err != nil && ctx.Err() == nil {
				q.logger.Error("failed to recover stalled jobs", zap.Error(err))
			} else if n > 0 {
				q.logger.Warn("moved stalled jobs back to wait", zap.Int("count", n))
			}
		}
	}
}

// processNext takes at most one job. processed reports whether a job id was taken off the
// wait list.
func (q *redisQueue) processNext(ctx context.Context, handler Handler) (processed bool, err error) {
	token := q.newToken()
	id, err := moveToActiveScript.Run(ctx, q.client, []string{q.key("wait"), q.key("active")},
		q.key("lock:"), token, q.lockDuration.Milliseconds()).Text()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("RedisQueue.processNext: %w", err)
	}

	// the job runs to completion even when shutdown was requested meanwhile
	baseCtx := context.WithoutCancel(ctx)
	fields, err := q.client.HGetAll(baseCtx, q.jobKey(id)).Result()
	if err != nil {
		return true, fmt.Errorf("RedisQueue.processNext: %w", err)
	}
	if len(fields) == 0 {
		q.logger.Warn("dropping job without data", zap.String("job_id", id))
		_, err = q.client.TxPipelined(baseCtx, func(pipe redis.Pipeliner) error {
			pipe.LRem(baseCtx, q.key("active"), 1, id)
			pipe.Del(baseCtx, q.lockKey(id))
			return nil
		})
		if err != nil {
			return true, fmt.Errorf("RedisQueue.processNext: %w", err)
		}
		return true, nil
	}
	job := parseJob(id, fields)

	jobCtx, lost := context.WithCancel(baseCtx)
	stopRenewal := q.keepLock(baseCtx, id, token, lost)
	herr := runHandler(jobCtx, handler, job)
	stopRenewal()
	lost()

	var owned bool
	if herr != nil {
		owned, err = q.retryOrFail(baseCtx, job, token, herr)
	} else {
		owned, err = q.complete(baseCtx, job.ID, token)
	}
	if err != nil {
		return true, fmt.Errorf("RedisQueue.processNext: %w", err)
	}
	if !owned {
		q.logger.Warn("job lock lost before the result was recorded, leaving the job to its new owner",
			zap.String("job_id", job.ID))
	}
	return true, nil
}

// keepLock extends the job lock every half lock duration until the returned func is called.
// onLost is called once the lock turns out to belong to someone else.
func (q *redisQueue) keepLock(ctx context.Context, id, token string, onLost context.CancelFunc) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(q.lockDuration / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ok, err := extendLockScript.Run(ctx, q.client, []string{q.lockKey(id)},
					token, q.lockDuration.Milliseconds()).Int()
				if err != nil {
					q.logger.Warn("failed to extend job lock", zap.String("job_id", id), zap.Error(err))
					continue
				}
				if ok == 0 {
					q.logger.Error("job lock lost while running", zap.String("job_id", id))
					onLost()
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func runHandler(ctx context.Context, handler Handler, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

// complete reports false when token no longer owns the job lock; nothing is changed then.
func (q *redisQueue) complete(ctx context.Context, id, token string) (bool, error) {
	res, err := finishScript.Run(ctx, q.client,
		[]string{q.lockKey(id), q.key("active"), q.jobKey(id), q.key("completed")}, token, id).Int()
	return res == 1, err
}

func (q *redisQueue) retryOrFail(ctx context.Context, job Job, token string, cause error) (bool, error) {
	attemptsMade := job.AttemptsMade + 1
	if attemptsMade >= job.Attempts {
		q.logger.Error("job failed permanently",
			zap.String("job_id", job.ID), zap.Int("attempts", attemptsMade), zap.Error(cause))
		res, err := finishScript.Run(ctx, q.client,
			[]string{q.lockKey(job.ID), q.key("active"), q.jobKey(job.ID), q.key("failed")}, token, job.ID).Int()
		return res == 1, err
	}

	delay := job.Backoff.DelayFor(attemptsMade)
	q.logger.Warn("job failed, retrying",
		zap.String("job_id", job.ID), zap.Int("attempt", attemptsMade), zap.Duration("delay", delay), zap.Error(cause))
	res, err := retryScript.Run(ctx, q.client,
		[]string{q.lockKey(job.ID), q.key("active"), q.jobKey(job.ID), q.key("delayed")},
		token, job.ID, attemptsMade, cause.Error(), q.now().Add(delay).UnixMilli()).Int()
	return res == 1, err
}

func (q *redisQueue) promoteDelayed(ctx context.Context) (int, error) {
	n, err := promoteDelayedScript.Run(ctx, q.client, []string{q.key("delayed"), q.key("wait"), q.key("active")},
		q.now().UnixMilli(), promoteBatchSize).Int()
	if err != nil {
		return 0, fmt.Errorf("RedisQueue.promoteDelayed: %w", err)
	}
	return n, nil
}

func (q *redisQueue) recoverStalled(ctx context.Context) (int, error) {
	n, err := recoverStalledScript.Run(ctx, q.client, []string{q.key("active"), q.key("wait"), q.key("delayed")},
		q.key("lock:")).Int()
	if err != nil {
		return 0, fmt.Errorf("RedisQueue.recoverStalled: %w", err)
	}
	return n, nil
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}

func parseJob(id string, fields map[string]string) Job {
	job := Job{
		ID:   id,
		Data: []byte(fields["data"]),
		Backoff: Backoff{
			Type: BackoffType(fields["backoffType"]),
		},
	}
	job.Attempts, _ = strconv.Atoi(fields["attempts"])
	job.AttemptsMade, _ = strconv.Atoi(fields["attemptsMade"])
	if ms, err := strconv.ParseInt(fields["backoffDelay"], 10, 64); err == nil {
		job.Backoff.Delay = time.Duration(ms) * time.Millisecond
	}
	job.Backoff.Multiplier, _ = strconv.ParseFloat(fields["backoffMultiplier"], 64)
	if ms, err := strconv.ParseInt(fields["timestamp"], 10, 64); err == nil {
		job.CreatedAt = time.UnixMilli(ms)
	}
	return job
}

func NewRedisQueue(client *redis.Client, name string, opts Options) Queue {
	return newRedisQueue(client, name, opts)
}

func newRedisQueue(client *redis.Client, name string, opts Options) *redisQueue {
	if opts.LockDuration <= 0 {
		opts.LockDuration = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.PromoteInterval <= 0 {
		opts.PromoteInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &redisQueue{
		client:          client,
		prefix:          fmt.Sprintf("bull:%s:", name),
		lockDuration:    opts.LockDuration,
		pollInterval:    opts.PollInterval,
		promoteInterval: opts.PromoteInterval,
		logger:          opts.Logger.With(zap.String("queue", name)),
		now:             time.Now,
		newToken:        uuid.NewString,
	}
}
