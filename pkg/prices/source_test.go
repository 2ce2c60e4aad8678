package prices

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/skinvault/skinport-api/internal/testutil"
)

func TestFallbackListings(t *testing.T) {
	listings, err := FallbackListings()
	if err != nil {
		t.Fatalf("FallbackListings failed: %v", err)
	}
	if len(listings) == 0 {
		t.Fatal("Fallback dataset is empty")
	}
}

func TestSource_Listings_Live(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()

	source := NewSource(newTestFetcher(t, mock, 0), true)

	listings, err := source.Listings(context.Background())
	if err != nil {
		t.Fatalf("Listings failed: %v", err)
	}
	if len(listings) != 2 {
		t.Errorf("Expected live listings, got %+v", listings)
	}
}

func TestSource_Listings_FallbackOnFailure(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()
	mock.SetResponse(testutil.MockResponse{StatusCode: http.StatusBadGateway, Body: "upstream down"})

	source := NewSource(newTestFetcher(t, mock, 0), true)

	listings, err := source.Listings(context.Background())
	if err != nil {
		t.Fatalf("Listings failed: %v", err)
	}

	want, err := FallbackListings()
	if err != nil {
		t.Fatalf("FallbackListings failed: %v", err)
	}
	if !reflect.DeepEqual(listings, want) {
		t.Errorf("Expected fallback listings, got %+v", listings)
	}
}

func TestSource_Listings_FallbackDisabled(t *testing.T) {
	mock := testutil.NewMockSkinport()
	defer mock.Close()
	mock.SetResponse(testutil.MockResponse{StatusCode: http.StatusBadGateway, Body: "upstream down"})

	source := NewSource(newTestFetcher(t, mock, 0), false)

	_, err := source.Listings(context.Background())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}
