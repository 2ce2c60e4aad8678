package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/skinvault/skinport-api/internal/testutil"
	"github.com/skinvault/skinport-api/pkg/cache"
)

// fakeCache is an in-memory SummaryCache that mimics the error contract of
// cache.Store.
type fakeCache struct {
	mu      sync.Mutex
	data    []byte
	getErr  error
	setErr  error
	deletes int
}

func (c *fakeCache) Get(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	if c.data == nil {
		return cache.ErrCacheMiss
	}
	if err := json.Unmarshal(c.data, v); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrInvalidEntry, err)
	}
	return nil
}

func (c *fakeCache) Set(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data = data
	return nil
}

func (c *fakeCache) Delete(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.deletes++
	return nil
}

func (c *fakeCache) cached(t *testing.T) []Summary {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return nil
	}
	var summaries []Summary
	if err := json.Unmarshal(c.data, &summaries); err != nil {
		t.Fatalf("Cached value undecodable: %v", err)
	}
	return summaries
}

func newTestService(t *testing.T, mock *testutil.MockSkinport, fc *fakeCache, useFallback bool) *Service {
	t.Helper()
	return NewService(NewSource(newTestFetcher(t, mock, 0), useFallback), fc)
}

func TestService_GetPrices_CacheHitSkipsUpstream(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()

	cached := []Summary{{MarketHashName: "AK-47 | Redline (Field-Tested)", TradableMinPrice: fptr(17.35)}}
	fc := &fakeCache{}
	if err := fc.Set(context.Background(), cached); err != nil {
		t.Fatalf("Seeding cache failed: %v", err)
	}

	service := newTestService(t, mock, fc, true)

	got, err := service.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if !reflect.DeepEqual(got, cached) {
		t.Errorf("Expected cached summaries, got %+v", got)
	}
	if mock.Requests() != 0 {
		t.Errorf("Cache hit must not call upstream; got %d requests", mock.Requests())
	}
}

func TestService_GetPrices_MissFetchesAndPopulates(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()

	fc := &fakeCache{}
	service := newTestService(t, mock, fc, true)

	got, err := service.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if mock.Requests() != 1 {
		t.Errorf("Expected 1 upstream request, got %d", mock.Requests())
	}

	want := summariesByName(got)
	summary, ok := want["AK-47 | Redline (Field-Tested)"]
	if !ok {
		t.Fatalf("Missing aggregated summary: %+v", got)
	}
	if summary.TradableMinPrice == nil || *summary.TradableMinPrice != 17.35 {
		t.Errorf("Unexpected tradable min price: %+v", summary)
	}
	if summary.NonTradableMinPrice == nil || *summary.NonTradableMinPrice != 16.9 {
		t.Errorf("Unexpected non-tradable min price: %+v", summary)
	}

	if !reflect.DeepEqual(summariesByName(fc.cached(t)), want) {
		t.Errorf("Cache not populated with the fetched result")
	}
}

func TestService_GetPrices_CorruptEntryPurgedAndRefetched(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()

	fc := &fakeCache{data: []byte(`{not json`)}
	service := newTestService(t, mock, fc, true)

	got, err := service.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(got) == 0 {
		t.Error("Expected live summaries after purge")
	}
	if fc.deletes != 1 {
		t.Errorf("Expected stale key purge, got %d deletes", fc.deletes)
	}
	if mock.Requests() != 1 {
		t.Errorf("Expected 1 upstream request, got %d", mock.Requests())
	}
}

func TestService_GetPrices_CacheStoreDownDegradesToMiss(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()

	storeErr := errors.New("dial tcp: connection refused")
	fc := &fakeCache{getErr: storeErr, setErr: storeErr}
	service := newTestService(t, mock, fc, true)

	got, err := service.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("Cache store outage must not fail the request: %v", err)
	}
	if len(got) == 0 {
		t.Error("Expected live summaries despite cache outage")
	}
	if mock.Requests() != 1 {
		t.Errorf("Expected 1 upstream request, got %d", mock.Requests())
	}
}

func TestService_GetPrices_FallbackResultIsCached(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()
	mock.SetResponse(testutil.MockResponse{StatusCode: http.StatusInternalServerError, Body: "boom"})

	fc := &fakeCache{}
	service := newTestService(t, mock, fc, true)

	got, err := service.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}

	fallback, err := FallbackListings()
	if err != nil {
		t.Fatalf("FallbackListings failed: %v", err)
	}
	want := summariesByName(Aggregate(fallback))

	if !reflect.DeepEqual(summariesByName(got), want) {
		t.Errorf("Expected aggregate of the fallback dataset, got %+v", got)
	}
	if !reflect.DeepEqual(summariesByName(fc.cached(t)), want) {
		t.Errorf("Fallback result must populate the cache")
	}
}

func TestService_GetPrices_UpstreamUnavailable(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()
	mock.SetResponse(testutil.MockResponse{StatusCode: http.StatusInternalServerError, Body: "boom"})

	fc := &fakeCache{}
	service := newTestService(t, mock, fc, false)

	_, err := service.GetPrices(context.Background())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
	if fc.cached(t) != nil {
		t.Error("Cache must stay empty after total failure")
	}
}
