// Package services отдаёт курсы Нацбанка с учётом тарифа, конвертирует
// суммы и выгружает курсы в CSV.
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
)

const (
	// BaseCurrency - валюта, к которой НБРБ публикует курсы.
	BaseCurrency = "BYN"

	cacheKey  = "currency:rates:daily"
	cacheKind = "currency"
)

var (
	// ErrUnknownCurrency - валюты нет в таблице курсов.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrInvalidAmount - сумма не является конечным неотрицательным числом.
	ErrInvalidAmount = errors.New("invalid amount")
)

// RatesProvider - источник официальных курсов.
type RatesProvider interface {
	DailyRates(ctx context.Context) ([]models.ExchangeRate, error)
}

// Cache - кеш таблицы курсов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// CurrencyService работает с курсами валют.
type CurrencyService struct {
	provider RatesProvider
	cache    Cache
	ttl      time.Duration
	log      *slog.Logger
}

// NewCurrencyService создает новый экземпляр CurrencyService.
func NewCurrencyService(provider RatesProvider, cache Cache, ttl time.Duration, log *slog.Logger) *CurrencyService {
	return &CurrencyService{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// Rates возвращает основные валюты в фиксированном порядке и, для премиума,
// полную таблицу.
func (s *CurrencyService) Rates(ctx context.Context, isPremium bool) (*models.CurrencyRates, error) {
	const op = "services.currency.Rates"
	all, err := s.table(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &models.CurrencyRates{
		Rates:     majors(all),
		IsPremium: isPremium,
	}
	res.AllRates = res.Rates
	if isPremium {
		res.AllRates = all
	}
	return res, nil
}

// Convert переводит сумму из одной валюты в другую через BYN.
func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) (*models.Conversion, error) {
	const op = "services.currency.Convert"
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	res := &models.Conversion{Amount: amount, From: from, To: to, Result: amount}
	if from == to && from != "" {
		return res, nil
	}

	all, err := s.table(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := convert(amount, from, to, all)
	if err != nil {
		return nil, err
	}
	res.Result = result
	return res, nil
}

// ExportCSV пишет в w курсы, доступные премиум-пользователю.
func (s *CurrencyService) ExportCSV(ctx context.Context, w io.Writer) error {
	const op = "services.currency.ExportCSV"
	all, err := s.table(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Currency", "Code", "Rate (BYN)", "Scale"}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range all {
		record := []string{
			r.Name,
			r.Code,
			strconv.FormatFloat(r.Rate, 'f', -1, 64),
			strconv.Itoa(r.Scale),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExportFilename возвращает имя файла выгрузки на дату now.
func ExportFilename(now time.Time) string {
	return "exchange-rates-" + now.UTC().Format(time.DateOnly) + ".csv"
}

func (s *CurrencyService) table(ctx context.Context) ([]models.CurrencyInfo, error) {
	var raw []models.ExchangeRate
	found, err := s.cache.Get(ctx, cacheKey, &raw)
	if err != nil {
		s.log.Warn("currency cache read failed", sl.Err(err))
	} else {
		metrics.ObserveCache(cacheKind, found)
	}

	if !found || err != nil {
		raw, err = s.provider.DailyRates(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, cacheKey, raw, s.ttl); err != nil {
			s.log.Warn("currency cache write failed", sl.Err(err))
		}
	}

	out := make([]models.CurrencyInfo, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.CurrencyInfo{
			Code:  r.CurAbbreviation,
			Name:  r.CurName,
			Rate:  r.CurOfficialRate,
			Scale: r.CurScale,
		})
	}
	return out, nil
}

func majors(all []models.CurrencyInfo) []models.CurrencyInfo {
	out := make([]models.CurrencyInfo, 0, len(premium.MajorCurrencies))
	for _, code := range premium.MajorCurrencies {
		i := slices.IndexFunc(all, func(c models.CurrencyInfo) bool { return c.Code == code })
		if i >= 0 {
			out = append(out, all[i])
		}
	}
	return out
}

func convert(amount float64, from, to string, rates []models.CurrencyInfo) (float64, error) {
	byn := amount
	if from != BaseCurrency {
		r, ok := find(rates, from)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, from)
		}
		byn = amount * r.Rate / float64(r.Scale)
	}
	if to == BaseCurrency {
		return byn, nil
	}
	r, ok := find(rates, to)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, to)
	}
	return byn * float64(r.Scale) / r.Rate, nil
}

func find(rates []models.CurrencyInfo, code string) (models.CurrencyInfo, bool) {
	for _, r := range rates {
		// нулевой курс или масштаб делают конвертацию бессмысленной
		if r.Code == code && r.Rate > 0 && r.Scale > 0 {
			return r, true
		}
	}
	return models.CurrencyInfo{}, false
}
