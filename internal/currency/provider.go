package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPRateProvider reads a USD-based rate document. Both the public
// open.er-api.com shape ({"rates":{"PKR":...}}) and the storefront's own
// {"pkrPerUsd":...} shape are accepted.
type HTTPRateProvider struct {
	URL    string
	Client *http.Client
	Now    func() time.Time
}

type rateDocument struct {
	Result    string             `json:"result"`
	Rates     map[string]float64 `json:"rates"`
	PkrPerUsd *float64           `json:"pkrPerUsd"`
}

func NewHTTPRateProvider(url string) *HTTPRateProvider {
	return &HTTPRateProvider{
		URL:    strings.TrimSpace(url),
		Client: &http.Client{Timeout: 8 * time.Second},
		Now:    time.Now,
	}
}

func (p *HTTPRateProvider) FetchRate(ctx context.Context) (Rate, error) {
	if p.URL == "" {
		return Rate{}, fmt.Errorf("exchange rate url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Rate{}, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return Rate{}, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Rate{}, fmt.Errorf("exchange rate upstream status %d", res.StatusCode)
	}

	var doc rateDocument
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&doc); err != nil {
		return Rate{}, fmt.Errorf("decode exchange rate: %w", err)
	}

	value := 0.0
	if doc.PkrPerUsd != nil {
		value = *doc.PkrPerUsd
	} else if v, ok := doc.Rates[string(PKR)]; ok {
		value = v
	}

	rate := Rate{PkrPerUsd: value, FetchedAt: p.Now().UTC()}
	if !rate.Valid() {
		return Rate{}, ErrInvalidRate
	}
	return rate, nil
}
