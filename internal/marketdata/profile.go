package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finvista/advisor-cli/internal/resilience"
)

const defaultProfileBaseURL = "https://query2.finance.yahoo.com"

// ProfileOptions configures the company profile client.
type ProfileOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// ProfileClient reads company profiles from the quote-summary API. The quote
// and chart endpoints do not carry sector names, so those come from here.
type ProfileClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewProfileClient creates a profile client.
func NewProfileClient(opts ProfileOptions) *ProfileClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultProfileBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "advisor-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &ProfileClient{
		client:    &http.Client{Timeout: opts.Timeout},
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
	}
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Sector returns the sector name for a symbol.
func (c *ProfileClient) Sector(ctx context.Context, symbol string) (string, error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "marketdata: build profile request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "marketdata: profile request %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", eris.Wrap(err, "marketdata: read profile response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("marketdata: profile %s returned status %d", symbol, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", eris.Wrapf(err, "marketdata: parse profile %s", symbol)
	}
	if parsed.QuoteSummary.Error != nil {
		return "", eris.Errorf("marketdata: profile %s: %s", symbol, parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return "", eris.Errorf("marketdata: profile %s has no result", symbol)
	}

	return parsed.QuoteSummary.Result[0].AssetProfile.Sector, nil
}
