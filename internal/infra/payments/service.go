package payments

import (
	"fmt"
	"strings"
)

// Service строит ссылку на оплату тарифа. Реального провайдера нет:
// ссылка ведёт на наш же HTTP-сервер, который эмулирует успешную оплату.
type Service struct {
	baseURL string
}

func NewService(baseURL string) *Service {
	return &Service{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Service) PaymentURL(userID int64, tariff string) string {
	return fmt.Sprintf("%s/payments/pay?user=%d&tariff=%s", s.baseURL, userID, tariff)
}
