// Package scheduler drives the two periodic fan-out jobs: history sync and
// audio-feature enrichment. Each tick walks every known user and contains
// failures at the user boundary - one broken account never stops the batch.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const enrichFetchLimit = 50

// UserLister enumerates all known user ids.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// CredentialProvider yields a fresh access token for a user.
type CredentialProvider interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// HistorySyncer is the per-user sync operation.
type HistorySyncer interface {
	Sync(ctx context.Context, userID, token string) (int, error)
}

// FeatureEnricher is the per-user enrichment operation. It obtains its own
// credential.
type FeatureEnricher interface {
	EnrichMissing(ctx context.Context, userID string, limit int) (int, error)
}

// Config holds the two job intervals.
type Config struct {
	SyncInterval   time.Duration
	EnrichInterval time.Duration
}

// Scheduler owns the periodic jobs. It is an explicit instance with
// Start/Stop, wired to the engines it drives.
type Scheduler struct {
	users    UserLister
	tokens   CredentialProvider
	history  HistorySyncer
	features FeatureEnricher
	cfg      Config
	log      zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(users UserLister, tokens CredentialProvider, history HistorySyncer, features FeatureEnricher, cfg Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		users:    users,
		tokens:   tokens,
		history:  history,
		features: features,
		cfg:      cfg,
		log:      log,
	}
}

// Start launches both job loops. Each runs once immediately, then on its
// interval, until Stop is called or ctx is cancelled. Start is single-shot;
// calling it again is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, s.cfg.SyncInterval, s.SyncAll)
	go s.loop(ctx, s.cfg.EnrichInterval, s.EnrichAll)
}

// Stop halts the job loops and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()

	tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SyncAll runs one history-sync tick across all users.
func (s *Scheduler) SyncAll(ctx context.Context) {
	s.log.Info().Msg("starting scheduled poll for recently played tracks")

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users")
		return
	}

	for _, userID := range userIDs {
		s.forUser(userID, func() error {
			token, err := s.tokens.AccessToken(ctx, userID)
			if err != nil {
				return err
			}
			_, err = s.history.Sync(ctx, userID, token)
			return err
		})
	}

	s.log.Info().Msg("completed scheduled poll for recently played tracks")
}

// EnrichAll runs one enrichment tick across all users.
func (s *Scheduler) EnrichAll(ctx context.Context) {
	s.log.Info().Msg("starting scheduled fetch of audio features")

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users")
		return
	}

	for _, userID := range userIDs {
		s.forUser(userID, func() error {
			_, err := s.features.EnrichMissing(ctx, userID, enrichFetchLimit)
			return err
		})
	}

	s.log.Info().Msg("completed scheduled fetch of audio features")
}

// forUser runs one user's operation and contains every failure, panics
// included, at the user boundary.
func (s *Scheduler) forUser(userID string, op func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("user_id", userID).Msgf("panic during scheduled job: %v", r)
		}
	}()

	if err := op(); err != nil {
		s.log.Error().Err(fmt.Errorf("user %s: %w", userID, err)).Msg("scheduled job failed for user")
	}
}
