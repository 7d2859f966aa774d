package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
)

// DefaultBackfillBatchSize is how many sessions are fetched per round
const DefaultBackfillBatchSize = 100

type BackfillSummary struct {
	TotalProcessed     int
	SuccessCount       int
	FailureCount       int
	CheckpointsWritten int
}

// CheckpointBackfillService plans vitals checkpoints for sessions stored without any
type CheckpointBackfillService struct {
	repo        repositories.SessionRepository
	sessions    *SessionService
	workerCount int
	batchSize   int
}

func NewCheckpointBackfillService(
	repo repositories.SessionRepository,
	sessions *SessionService,
	workers int,
	batchSize int,
) *CheckpointBackfillService {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = DefaultBackfillBatchSize
	}
	return &CheckpointBackfillService{
		repo:        repo,
		sessions:    sessions,
		workerCount: workers,
		batchSize:   batchSize,
	}
}

// BackfillAll drains the sessions lacking checkpoints. Pages advance by
// cursor, so a session that fails is attempted once per run and the sessions
// queued behind it are still reached.
func (s *CheckpointBackfillService) BackfillAll(ctx context.Context) (*BackfillSummary, error) {
	var processed, success, failure, written int64
	var cursor *repositories.SessionCursor

	for {
		batch, err := s.repo.ListWithoutCheckpoints(ctx, cursor, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions without checkpoints: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		cursor = repositories.CursorAfter(batch[len(batch)-1])

		sessionChan := make(chan *entities.ServiceSession, len(batch))
		var wg sync.WaitGroup
		for i := 0; i < s.workerCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for session := range sessionChan {
					n, err := s.sessions.Backfill(ctx, session)
					atomic.AddInt64(&processed, 1)
					if err != nil {
						atomic.AddInt64(&failure, 1)
						log.Ctx(ctx).Warn().Err(err).Str("session_id", session.ID).Msg("failed to backfill session checkpoints")
						continue
					}
					atomic.AddInt64(&success, 1)
					atomic.AddInt64(&written, int64(n))
				}
			}()
		}

		for _, session := range batch {
			sessionChan <- session
		}
		close(sessionChan)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(batch) < s.batchSize {
			break
		}
	}

	return &BackfillSummary{
		TotalProcessed:     int(processed),
		SuccessCount:       int(success),
		FailureCount:       int(failure),
		CheckpointsWritten: int(written),
	}, nil
}

// BackfillSingle plans checkpoints for one session by ID
func (s *CheckpointBackfillService) BackfillSingle(ctx context.Context, sessionID string) (int, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return s.sessions.Backfill(ctx, session)
}
