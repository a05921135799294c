package hearthpwn

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://www.hearthpwn.com"

type ClientOptions struct {
	BaseUrl           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client fetches deck listings, deck pages, card pages and the collection
// endpoint of the deck site.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	// collectionHttp never follows redirects, the site answers an expired
	// session with a redirect to its login page which may be on another host.
	collectionHttp *resty.Client

	tel telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("hearthpwn", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	// max burst >= rps just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))

	newHttp := func(redirects resty.RedirectPolicy) *resty.Client {
		httpClient := resty.New()
		httpClient.SetBaseURL(opts.BaseUrl)
		httpClient.SetCookieJar(jar)
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
		httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
		httpClient.SetRedirectPolicy(redirects)
		httpClient.SetTimeout(timeout)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
		telemetry.InstrumentResty(httpClient, "hearthstats/hearthpwn", tel)
		return httpClient
	}

	return &Client{
		BaseUrl: parsedBaseUrl,
		Http:    newHttp(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname())),
		collectionHttp: newHttp(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})),
		tel: tel,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*resty.Response, error) {
	req := c.Http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(path)
	err = scrapers.CheckResponse(res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}
