// Package weatherapi - клиент WeatherAPI.com (текущая погода и прогноз).
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

const (
	provider = "weatherapi"

	// errCodeNoLocation - код ошибки провайдера "No matching location found".
	errCodeNoLocation = 1006
)

// ErrLocationNotFound - провайдер не нашёл населённый пункт.
var ErrLocationNotFound = errors.New("location not found")

// Query - город или координаты.
type Query struct {
	City string
	Lat  *float64
	Lon  *float64
}

// String возвращает значение параметра q.
func (q Query) String() string {
	if q.Lat != nil && q.Lon != nil {
		return strconv.FormatFloat(*q.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(*q.Lon, 'f', -1, 64)
	}
	return strings.TrimSpace(q.City)
}

// Empty сообщает, что не задан ни город, ни пара координат.
func (q Query) Empty() bool {
	return q.String() == ""
}

// Client выполняет запросы к API провайдера.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// New создаёт клиента по конфигурации.
func New(cfg config.WeatherAPI) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.Key,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Current возвращает текущую погоду.
func (c *Client) Current(ctx context.Context, q Query) (*models.Weather, error) {
	const op = "weatherapi.Current"
	var out models.Weather
	if err := c.get(ctx, "current.json", q, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// Forecast возвращает прогноз на days дней, включая текущую погоду.
func (c *Client) Forecast(ctx context.Context, q Query, days int) (*models.Forecast, error) {
	const op = "weatherapi.Forecast"
	var out models.Forecast
	extra := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.get(ctx, "forecast.json", q, extra, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, method string, q Query, extra url.Values, out any) (err error) {
	defer func() {
		if errors.Is(err, ErrLocationNotFound) {
			metrics.UpstreamRequests.WithLabelValues(provider, metrics.OutcomeNotFound).Inc()
			return
		}
		metrics.ObserveUpstream(provider, err)
	}()

	params := url.Values{
		"key":    {c.key},
		"q":      {q.String()},
		"aqi":    {"no"},
		"alerts": {"no"},
	}
	for k, v := range extra {
		params[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		code := gjson.GetBytes(body, "error.code").Int()
		if resp.StatusCode == http.StatusBadRequest || code == errCodeNoLocation {
			return ErrLocationNotFound
		}
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}

	return json.Unmarshal(body, out)
}
