package apierr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
)

func TestFromMapsDomainErrors(t *testing.T) {
	_, rangeErr := calendar.ListDateRange("2026-01-05", "2026-01-01")
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"range", fmt.Errorf("run: %w", rangeErr), http.StatusBadRequest, "invalid_range"},
		{"category", fmt.Errorf("lookup: %w", errs.ErrUnknownCategory), http.StatusNotFound, "unknown_category"},
		{"argument", errs.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"passthrough", New(http.StatusConflict, "conflict", nil), http.StatusConflict, "conflict"},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := From(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%s: got=(%d,%s) want=(%d,%s)", tc.name, got.Status, got.Code, tc.status, tc.code)
		}
	}
	if From(nil) != nil {
		t.Fatalf("From(nil): want nil")
	}
}
