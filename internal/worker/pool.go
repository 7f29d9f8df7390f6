package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
	"studytrack-backend/internal/services"
)

// conversationsToKeep bounds the coach history pruned by the maintenance
// job.
const conversationsToKeep = 200

// Pool runs the background jobs the request path defers: refreshing the
// cached coach stats after sessions and logs change, and trimming old coach
// conversation turns.
type Pool struct {
	redis       *redis.Client
	coach       *services.CoachService
	coachRepo   *repository.CoachRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	coach *services.CoachService,
	coachRepo *repository.CoachRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		coach:       coach,
		coachRepo:   coachRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.JobQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		var processErr error
		switch job.Type {
		case models.JobRefreshStats:
			processErr = p.coach.RefreshStats(ctx)
		case models.JobPruneConversations:
			processErr = p.pruneConversations(ctx)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			log.Printf("Worker %d: job %s failed: %v", id, job.ID, processErr)
		} else {
			log.Printf("Worker %d: job %s completed", id, job.ID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) pruneConversations(ctx context.Context) error {
	pruned, err := p.coachRepo.Prune(ctx, conversationsToKeep)
	if err != nil {
		return err
	}
	if pruned > 0 {
		log.Printf("Pruned %d old coach conversation turns", pruned)
	}
	return nil
}
