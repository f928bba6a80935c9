package sportsdata

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/openfooty/matchday/internal/platform/logging"
	"github.com/openfooty/matchday/internal/platform/resilience"
	"github.com/openfooty/matchday/internal/usecase"
)

const (
	defaultBaseURL = "https://api.sportsdata.io/v4/soccer"
	dayPathLayout  = "2006-01-02"
)

var apiKeyParamRegex = regexp.MustCompile(`key=[^&\s"']+`)
var errSportsDataTransient = crerr.New("sportsdata transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the sportsdata.io v4 soccer scores API. It carries
// bounded retries for transient statuses, a circuit breaker, and
// single-flight dedup for identical in-flight requests.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     retries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchSeasonDetails loads current-season metadata including the full
// round list with each round's games.
func (c *Client) FetchSeasonDetails(ctx context.Context, competition string) (usecase.ProviderSeasonDetails, error) {
	competition = strings.TrimSpace(competition)
	if competition == "" {
		return usecase.ProviderSeasonDetails{}, fmt.Errorf("%w: competition is required", usecase.ErrInvalidInput)
	}

	var envelope competitionDetailsEnvelope
	path := "/scores/json/CompetitionDetails/" + url.PathEscape(competition)
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return usecase.ProviderSeasonDetails{}, fmt.Errorf("fetch competition details competition=%s: %w", competition, err)
	}

	rounds := make([]usecase.ProviderRound, 0, len(envelope.CurrentSeason.Rounds))
	for i, item := range envelope.CurrentSeason.Rounds {
		round, err := mapRound(item)
		if err != nil {
			return usecase.ProviderSeasonDetails{}, fmt.Errorf("competition=%s round %d: %w", competition, i, err)
		}
		rounds = append(rounds, round)
	}

	return usecase.ProviderSeasonDetails{
		CompetitionName: strings.TrimSpace(envelope.CurrentSeason.CompetitionName),
		SeasonName:      strings.TrimSpace(envelope.CurrentSeason.Name),
		Rounds:          rounds,
	}, nil
}

// FetchScheduleByDate loads every fixture the provider lists for one
// calendar date.
func (c *Client) FetchScheduleByDate(ctx context.Context, competition string, day time.Time) ([]usecase.ProviderGame, error) {
	competition = strings.TrimSpace(competition)
	if competition == "" {
		return nil, fmt.Errorf("%w: competition is required", usecase.ErrInvalidInput)
	}
	if day.IsZero() {
		return nil, fmt.Errorf("%w: day is required", usecase.ErrInvalidInput)
	}

	var items []json.RawMessage
	path := "/scores/json/GamesByDate/" + url.PathEscape(competition) + "/" + day.UTC().Format(dayPathLayout)
	if err := c.doJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("fetch games by date competition=%s date=%s: %w", competition, day.UTC().Format(dayPathLayout), err)
	}

	games := make([]usecase.ProviderGame, 0, len(items))
	for i, raw := range items {
		game, err := decodeGame(raw)
		if err != nil {
			return nil, fmt.Errorf("games by date item %d: %w", i, err)
		}
		games = append(games, game)
	}

	return games, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsdata circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: schedule provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	values.Set("key", c.apiKey)
	fullURL := c.baseURL + path + "?" + values.Encode()

	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errSportsDataTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSportsDataTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSportsDataTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportsDataTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportsdata request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("key") {
		query.Set("key", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
