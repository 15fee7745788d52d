package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ---------- fakes ---------- */

type fakeUsers struct {
	ids []string
	err error
}

func (f *fakeUsers) ListUserIDs(_ context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeTokens struct {
	failFor map[string]bool
}

func (f *fakeTokens) AccessToken(_ context.Context, userID string) (string, error) {
	if f.failFor[userID] {
		return "", errors.New("credential unavailable")
	}
	return "tok-" + userID, nil
}

type fakeSyncer struct {
	mu      sync.Mutex
	synced  []string
	failFor string
	panicOn string
}

func (f *fakeSyncer) Sync(_ context.Context, userID, _ string) (int, error) {
	if f.panicOn == userID {
		panic("unexpected state for " + userID)
	}
	if f.failFor == userID {
		return 0, errors.New("sync blew up")
	}
	f.mu.Lock()
	f.synced = append(f.synced, userID)
	f.mu.Unlock()
	return 1, nil
}

func (f *fakeSyncer) users() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.synced...)
}

type fakeEnricher struct {
	mu       sync.Mutex
	enriched []string
	failFor  string
}

func (f *fakeEnricher) EnrichMissing(_ context.Context, userID string, _ int) (int, error) {
	if f.failFor == userID {
		return 0, errors.New("enrich blew up")
	}
	f.mu.Lock()
	f.enriched = append(f.enriched, userID)
	f.mu.Unlock()
	return 1, nil
}

func (f *fakeEnricher) users() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.enriched...)
}

func testScheduler(users *fakeUsers, tokens *fakeTokens, syncer *fakeSyncer, enricher *fakeEnricher) *Scheduler {
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return New(users, tokens, syncer, enricher, Config{
		SyncInterval:   time.Hour,
		EnrichInterval: time.Hour,
	}, log)
}

/* ---------- tests ---------- */

func TestSyncAllIsolatesCredentialFailure(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1", "u2", "u3"}}
	tokens := &fakeTokens{failFor: map[string]bool{"u2": true}}
	syncer := &fakeSyncer{}
	s := testScheduler(users, tokens, syncer, &fakeEnricher{})

	s.SyncAll(context.Background())

	assert.Equal(t, []string{"u1", "u3"}, syncer.users(),
		"a failed credential refresh must only skip that user")
}

func TestSyncAllIsolatesSyncFailure(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1", "u2", "u3"}}
	syncer := &fakeSyncer{failFor: "u1"}
	s := testScheduler(users, &fakeTokens{}, syncer, &fakeEnricher{})

	s.SyncAll(context.Background())

	assert.Equal(t, []string{"u2", "u3"}, syncer.users())
}

func TestSyncAllContainsPanic(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1", "u2"}}
	syncer := &fakeSyncer{panicOn: "u1"}
	s := testScheduler(users, &fakeTokens{}, syncer, &fakeEnricher{})

	require.NotPanics(t, func() {
		s.SyncAll(context.Background())
	})
	assert.Equal(t, []string{"u2"}, syncer.users())
}

func TestEnrichAllIsolatesFailure(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1", "u2", "u3"}}
	enricher := &fakeEnricher{failFor: "u2"}
	s := testScheduler(users, &fakeTokens{}, &fakeSyncer{}, enricher)

	s.EnrichAll(context.Background())

	assert.Equal(t, []string{"u1", "u3"}, enricher.users())
}

func TestTickSurvivesUserListFailure(t *testing.T) {
	users := &fakeUsers{err: errors.New("db down")}
	s := testScheduler(users, &fakeTokens{}, &fakeSyncer{}, &fakeEnricher{})

	require.NotPanics(t, func() {
		s.SyncAll(context.Background())
		s.EnrichAll(context.Background())
	})
}

func TestStartRunsBothJobsImmediately(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1"}}
	syncer := &fakeSyncer{}
	enricher := &fakeEnricher{}
	s := testScheduler(users, &fakeTokens{}, syncer, enricher)

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(syncer.users()) >= 1 && len(enricher.users()) >= 1
	}, time.Second, 10*time.Millisecond, "both jobs run once at startup, not only after the first interval")
}

func TestStopHaltsLoops(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1"}}
	syncer := &fakeSyncer{}
	s := testScheduler(users, &fakeTokens{}, syncer, &fakeEnricher{})

	s.Start(context.Background())
	s.Stop()

	before := len(syncer.users())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, len(syncer.users()), "no ticks after Stop")
}

func TestStartIsSingleShot(t *testing.T) {
	users := &fakeUsers{ids: []string{"u1"}}
	syncer := &fakeSyncer{}
	s := testScheduler(users, &fakeTokens{}, syncer, &fakeEnricher{})

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(syncer.users()) >= 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"u1"}, syncer.users(),
		"a second Start must not register a second loop")
}
