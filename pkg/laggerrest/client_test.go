package laggerrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"execution-core/internal/domain"

	"golang.org/x/time/rate"
)

func TestListLiveOrdersMapsParentClientOrderIDNotAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"result":[{"id":"ex-1","client_order_id":"co-1","state":"open","parent_client_order_id":"co-main"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}, rate.NewLimiter(rate.Inf, 1))
	orders, err := c.ListLiveOrders(context.Background(), 27)
	if err != nil {
		t.Fatalf("ListLiveOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	got := orders[0]
	if got.ParentClientOrderID != "co-main" {
		t.Fatalf("ParentClientOrderID = %q, want %q", got.ParentClientOrderID, "co-main")
	}
	if got.Asset != "" {
		t.Fatalf("Asset = %q, want empty: the wire response carries no asset/symbol field", got.Asset)
	}
	if got.ExchangeID != "ex-1" || got.ClientOrderID != "co-1" || got.State != domain.StateWorking {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestChunkStringsBatchOf45SplitsInto20_20_5(t *testing.T) {
	ids := make([]string, 45)
	for i := range ids {
		ids[i] = "id"
	}
	chunks := chunkStrings(ids, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantSizes := []int{20, 20, 5}
	for i, want := range wantSizes {
		if len(chunks[i]) != want {
			t.Fatalf("chunk %d has %d ids, want %d", i, len(chunks[i]), want)
		}
	}
}

func TestChunkStringsEmpty(t *testing.T) {
	if chunks := chunkStrings(nil, 20); len(chunks) != 0 {
		t.Fatalf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkStringsExactMultiple(t *testing.T) {
	ids := make([]string, 40)
	chunks := chunkStrings(ids, 20)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestJoinComma(t *testing.T) {
	got := joinComma([]string{"open", "pending"})
	want := "open,pending"
	if got != want {
		t.Fatalf("joinComma = %q, want %q", got, want)
	}
}
