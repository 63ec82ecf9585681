package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ------------------------------------------

type streamsResponsePayload struct {
	Data []Stream `json:"data"`
}

type errorResponsePayload struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ------------------------------------------

// Credentials - Twitch application credentials
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Opts - client options
type Opts struct {
	Credentials Credentials

	// BaseURL - Helix API root, HelixBaseURL if empty
	BaseURL string

	// HTTPClient - client used for requests, if nil an app-token client is created from Credentials
	HTTPClient *http.Client

	// Limiter - client side rate limiter, defaults to 800 requests per minute (Helix app token bucket)
	Limiter *rate.Limiter
}

// TwitchClient - Helix API client context
type TwitchClient struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTwitchClient - constructor
func NewTwitchClient(opts Opts) *TwitchClient {
	c := &TwitchClient{
		baseURL:    opts.BaseURL,
		clientID:   opts.Credentials.ClientID,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
	}

	if c.baseURL == "" {
		c.baseURL = HelixBaseURL
	}

	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(800.0/60.0), 10)
	}

	if c.httpClient == nil {
		log.Info().
			Str("client_id", opts.Credentials.ClientID).
			Str("client_secret", utils.AnonymizeToken(opts.Credentials.ClientSecret, 0)).
			Msg("Using app access token authorization")

		tokenConfig := &clientcredentials.Config{
			ClientID:     opts.Credentials.ClientID,
			ClientSecret: opts.Credentials.ClientSecret,
			TokenURL:     TokenURL,
		}

		// Token source refreshes the app token on its own once it expires
		c.httpClient = tokenConfig.Client(context.Background())
		c.httpClient.Timeout = RequestTimeout
	}

	return c
}

// FetchStreams - fetches live streams of given channels, offline channels are not part of the result
func (c *TwitchClient) FetchStreams(ctx context.Context, logins []string) ([]Stream, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	var resultMutex sync.Mutex
	result := make([]Stream, 0, len(logins))

	for start := 0; start < len(logins); start += MaxLoginsPerRequest {
		chunk := logins[start:min(start+MaxLoginsPerRequest, len(logins))]

		group.Go(func() error {
			streams, err := c.fetchStreamsChunk(groupCtx, chunk)
			if err != nil {
				return err
			}

			resultMutex.Lock()
			result = append(result, streams...)
			resultMutex.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *TwitchClient) fetchStreamsChunk(ctx context.Context, logins []string) ([]Stream, error) {
	query := url.Values{}
	query.Set("first", fmt.Sprintf("%d", MaxLoginsPerRequest))
	for _, login := range logins {
		query.Add("user_login", login)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/streams?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}

	data := new(streamsResponsePayload)
	if err := c.fetch(req, data); err != nil {
		return nil, err
	}

	return data.Data, nil
}

// fetch - makes rate limited request and decodes JSON response
func (c *TwitchClient) fetch(req *http.Request, data interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Accept", "application/json")

	log.Trace().Str("url", req.URL.String()).Msg("Requesting Twitch API")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		errPayload := new(errorResponsePayload)
		_ = json.NewDecoder(res.Body).Decode(errPayload)

		return &APIError{StatusCode: res.StatusCode, Message: errPayload.Message}
	}

	if err := json.NewDecoder(res.Body).Decode(data); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}

	return nil
}
