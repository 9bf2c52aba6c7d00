package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultDataBase  = "https://data-api.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// Data API /activity, /holders: 200/10s → 120/10s → 12/s
	dataRatePerSec = 12

	defaultMaxRetries = 3
	defaultRetryWait  = 500 * time.Millisecond
	defaultTimeout    = 30 * time.Second

	// El breaker abre tras breakerFailures requests lógicos fallidos seguidos
	// y prueba de nuevo pasado breakerTimeout.
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// StatusError es una respuesta HTTP no exitosa de la API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// endpoint agrupa el rate limiter y el circuit breaker de una API.
type endpoint struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// Client es el HTTP client de Polymarket con rate limiting, retries y
// circuit breaker por API.
type Client struct {
	http       *http.Client
	gammaBase  string
	dataBase   string
	gamma      endpoint
	data       endpoint
	maxRetries int
	retryWait  time.Duration
}

// Option ajusta un Client.
type Option func(*Client)

// WithRetry fija el número de reintentos y la espera base del backoff.
func WithRetry(maxRetries int, baseWait time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseWait > 0 {
			c.retryWait = baseWait
		}
	}
}

// WithTimeout fija el timeout por request HTTP.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient crea un Client con los base URLs dados.
// Si gammaBase o dataBase están vacíos, usa los URLs de producción.
func NewClient(gammaBase, dataBase string, opts ...Option) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if dataBase == "" {
		dataBase = defaultDataBase
	}
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		gammaBase: gammaBase,
		dataBase:  dataBase,
		gamma: endpoint{
			limiter: rate.NewLimiter(gammaRatePerSec, 10),
			breaker: newBreaker("gamma"),
		},
		data: endpoint{
			limiter: rate.NewLimiter(dataRatePerSec, 5),
			breaker: newBreaker("data-api"),
		},
		maxRetries: defaultMaxRetries,
		retryWait:  defaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		// Los 4xx y las cancelaciones no dicen nada de la salud de la API.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.Status < 500 && se.Status != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "api", name, "from", from.String(), "to", to.String())
		},
	})
}

// get hace un GET con circuit breaker, rate limiting y retries.
func (c *Client) get(ctx context.Context, ep endpoint, url string, out any) error {
	_, err := ep.breaker.Execute(func() (interface{}, error) {
		return nil, c.doWithRetry(ctx, ep.limiter, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			return c.http.Do(req)
		}, out)
	})
	return err
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt == c.maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			if resp.StatusCode == http.StatusTooManyRequests {
				slog.Warn("rate limited by API", "attempt", attempt+1)
			}
			if attempt < c.maxRetries {
				c.sleep(ctx, attempt)
			}
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return &StatusError{Status: resp.StatusCode, Body: string(body)}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries: %w", c.maxRetries, &StatusError{Status: lastStatus})
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
