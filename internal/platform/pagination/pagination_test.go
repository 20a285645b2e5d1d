package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?page=abc&limit=-3", nil)
	p := FromRequest(r)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Fatalf("expected defaults, got %+v", p)
	}

	r = httptest.NewRequest("GET", "/products?page=2&limit=500", nil)
	p = FromRequest(r)
	if p.Page != 2 || p.Limit != MaxLimit {
		t.Fatalf("expected page=2 limit=%d, got %+v", MaxLimit, p)
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	pg := Slice(items, Params{Page: 2, Limit: 2})
	if len(pg.Items) != 2 || pg.Items[0] != 3 || pg.Items[1] != 4 {
		t.Fatalf("unexpected items: %v", pg.Items)
	}
	if pg.Total != 5 || pg.Pages != 3 {
		t.Fatalf("unexpected meta: %+v", pg)
	}

	pg = Slice(items, Params{Page: 9, Limit: 2})
	if len(pg.Items) != 0 {
		t.Fatalf("expected empty page, got %v", pg.Items)
	}
}
