package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
)

type fakeTariffs struct {
	byName map[string]tariffs.Tariff
}

func (f *fakeTariffs) Get(_ context.Context, name string) (tariffs.Tariff, error) {
	if t, ok := f.byName[name]; ok {
		return t, nil
	}
	// репозиторий на промахе возвращает free
	return tariffs.Default(), nil
}

type fakeUsers struct {
	tgID     int64
	tariff   string
	duration int
	err      error
}

func (f *fakeUsers) SetTariff(_ context.Context, tgID int64, tariff string, durationDays int) error {
	if f.err != nil {
		return f.err
	}
	f.tgID = tgID
	f.tariff = tariff
	f.duration = durationDays
	return nil
}

type fakeLedger struct {
	userID int64
	tariff string
	amount int64
	err    error
}

func (f *fakeLedger) Create(_ context.Context, userID int64, tariff string, amount int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.userID = userID
	f.tariff = tariff
	f.amount = amount
	return 1, nil
}

func newTestHandler(ts *fakeTariffs, us *fakeUsers, lg *fakeLedger) *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), ts, us, lg)
}

func basicTariff() *fakeTariffs {
	return &fakeTariffs{byName: map[string]tariffs.Tariff{
		"basic": {Name: "basic", Price: 100, ChannelsLimit: 2, PostsPerDay: 5, DurationDays: 30},
	}}
}

func TestPaySuccess(t *testing.T) {
	us := &fakeUsers{}
	lg := &fakeLedger{}
	h := newTestHandler(basicTariff(), us, lg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay?user=42&tariff=basic", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if lg.userID != 42 || lg.tariff != "basic" || lg.amount != 100 {
		t.Errorf("ledger entry = (%d, %q, %d), want (42, basic, 100)", lg.userID, lg.tariff, lg.amount)
	}
	if us.tgID != 42 || us.tariff != "basic" || us.duration != 30 {
		t.Errorf("activation = (%d, %q, %d), want (42, basic, 30)", us.tgID, us.tariff, us.duration)
	}
}

func TestPayRejectsBadParams(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"no user", "/payments/pay?tariff=basic"},
		{"bad user", "/payments/pay?user=abc&tariff=basic"},
		{"zero user", "/payments/pay?user=0&tariff=basic"},
		{"no tariff", "/payments/pay?user=42"},
		{"free tariff", "/payments/pay?user=42&tariff=free"},
		{"unknown tariff", "/payments/pay?user=42&tariff=gold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			us := &fakeUsers{}
			lg := &fakeLedger{}
			h := newTestHandler(basicTariff(), us, lg)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if lg.userID != 0 || us.tgID != 0 {
				t.Error("rejected request must not touch ledger or user")
			}
		})
	}
}

func TestPayLedgerErrorStopsActivation(t *testing.T) {
	us := &fakeUsers{}
	lg := &fakeLedger{err: errors.New("db down")}
	h := newTestHandler(basicTariff(), us, lg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay?user=42&tariff=basic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if us.tgID != 0 {
		t.Error("tariff must not activate when payment record failed")
	}
}
