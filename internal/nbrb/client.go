// Package nbrb - клиент API курсов Национального банка Республики Беларусь.
package nbrb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

const (
	provider  = "nbrb"
	ratesPath = "/api/exrates/rates?periodicity=0"
)

// Client получает официальные курсы валют.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиента по конфигурации.
func New(cfg config.NBRB) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// DailyRates возвращает ежедневные курсы валют к белорусскому рублю.
func (c *Client) DailyRates(ctx context.Context) (rates []models.ExchangeRate, err error) {
	const op = "nbrb.DailyRates"
	defer func() { metrics.ObserveUpstream(provider, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ratesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	if err = json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rates, nil
}
