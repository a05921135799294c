package cardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_page = "client.page"
)

type ClientOptions struct {
	BaseUrl           string
	Key               string
	PageSize          int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client reads the collectible card list from the card api.
type Client struct {
	http     *resty.Client
	key      string
	pageSize int
	tel      telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)
	assert.Positive(opts.PageSize)

	tel = telemetry.NewScopedAPI("cardapi", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetHeader("X-Mashape-Key", opts.Key)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "hearthstats/cardapi", tel)

	return &Client{
		http:     httpClient,
		key:      opts.Key,
		pageSize: opts.PageSize,
		tel:      tel,
	}
}

// Page returns the raw records of a 1-indexed page. An empty result means
// there are no further pages.
func (c *Client) Page(ctx context.Context, page int) ([]Record, error) {
	if c.key == "" {
		return nil, &scrapers.AuthError{Reason: "card api key is not configured"}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"collectible": "1",
			"page":        strconv.Itoa(page),
			"pageSize":    strconv.Itoa(c.pageSize),
		}).
		Get("/cards")
	err = scrapers.CheckResponse(res, err)
	if err != nil {
		return nil, err
	}

	records, paginated, err := decodeRecords(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_page, page, err)
		return nil, &scrapers.ParseError{
			Entity: fmt.Sprintf("card page %d", page),
			Err:    err,
		}
	}
	// the set keyed form holds every card at once
	if !paginated && page > 1 {
		return nil, nil
	}
	c.tel.ReportDebug(report_client_page, page, len(records))
	return records, nil
}

// decodeRecords accepts either a json array of records or an object keyed by
// card set. The boolean result is false for the set keyed form. Records are
// decoded one by one, a record that does not decode is returned with
// DecodeErr set so that the rest of the page survives it.
func decodeRecords(body []byte) ([]Record, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, true, fmt.Errorf("empty body")
	}

	switch body[0] {
	case '[':
		var raw []json.RawMessage
		err := json.Unmarshal(body, &raw)
		if err != nil {
			return nil, true, err
		}
		records := make([]Record, 0, len(raw))
		for _, r := range raw {
			records = append(records, decodeRecord(r, ""))
		}
		return records, true, nil
	case '{':
		var sets map[string]json.RawMessage
		err := json.Unmarshal(body, &sets)
		if err != nil {
			return nil, false, err
		}
		names := make([]string, 0, len(sets))
		for name := range sets {
			names = append(names, name)
		}
		sort.Strings(names)

		var records []Record
		for _, name := range names {
			var raw []json.RawMessage
			err := json.Unmarshal(sets[name], &raw)
			if err != nil {
				records = append(records, Record{
					CardSet:   name,
					DecodeErr: fmt.Errorf("set %s: %w", name, err),
				})
				continue
			}
			for _, r := range raw {
				records = append(records, decodeRecord(r, name))
			}
		}
		return records, false, nil
	}
	return nil, true, fmt.Errorf("unexpected body starting with %q", body[0])
}

// decodeRecord keeps whatever fields did decode next to the error, so the
// skipped record can still be identified.
func decodeRecord(raw json.RawMessage, set string) Record {
	var r Record
	err := json.Unmarshal(raw, &r)
	if err != nil {
		r.DecodeErr = err
	}
	if r.CardSet == "" {
		r.CardSet = set
	}
	return r
}
