package weather

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPolling_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loc := testLocations()[0]
	store := newMemStore(loc)

	var runs atomic.Int32
	fetcher := &stubFetcher{
		responses: map[int]fetchResponse{
			loc.ID: {body: forecastPayload(t, loc.ID, "London", "GB", regularEntries(2, 1000)), status: http.StatusOK},
		},
		onFetch: func(int) { runs.Add(1) },
	}
	svc := newTestService(t, store, fetcher)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.pollEvery(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}

	count, err := store.CountForecasts(loc.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(6))
}

func TestPolling_SkipsWhileRunActive(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loc := testLocations()[0]
	store := newMemStore(loc)
	svc := newTestService(t, store, &stubFetcher{})

	// an active run holds the lock; the scheduled run must not block on it
	svc.ingestMu.Lock()
	defer svc.ingestMu.Unlock()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		svc.pollOnce(t.Context())
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("scheduled ingestion waited for the active run")
	}
}
