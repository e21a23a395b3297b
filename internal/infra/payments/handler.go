package payments

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
)

type TariffStore interface {
	Get(ctx context.Context, name string) (tariffs.Tariff, error)
}

type UserStore interface {
	SetTariff(ctx context.Context, tgID int64, tariff string, durationDays int) error
}

type Ledger interface {
	Create(ctx context.Context, userID int64, tariff string, amount int64) (int64, error)
}

type Handler struct {
	log     *slog.Logger
	tariffs TariffStore
	users   UserStore
	ledger  Ledger
}

func NewHandler(log *slog.Logger, tariffStore TariffStore, userStore UserStore, ledger Ledger) *Handler {
	return &Handler{log: log, tariffs: tariffStore, users: userStore, ledger: ledger}
}

// ServeHTTP эмулирует успешную оплату:
// /payments/pay?user=123&tariff=basic — записываем платёж в журнал
// и включаем тариф со сроком из настроек.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil || userID <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid user parameter"))
		return
	}
	tariffName := r.URL.Query().Get("tariff")
	if tariffName == "" || tariffName == tariffs.FreeName {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid tariff parameter"))
		return
	}

	t, err := h.tariffs.Get(ctx, tariffName)
	if err != nil || t.Name != tariffName {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("unknown tariff"))
		return
	}

	if _, err := h.ledger.Create(ctx, userID, t.Name, t.Price); err != nil {
		h.log.Error("failed to record payment", "user", userID, "tariff", t.Name, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("failed to record payment"))
		return
	}

	if err := h.users.SetTariff(ctx, userID, t.Name, t.DurationDays); err != nil {
		h.log.Error("failed to activate tariff", "user", userID, "tariff", t.Name, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("failed to activate tariff"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w,
		"<html><body><h1>Оплата прошла</h1><p>Тариф «%s» активирован на %d дней.</p></body></html>",
		t.Name, t.DurationDays,
	)
}
