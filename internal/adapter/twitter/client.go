// internal/adapter/twitter/client.go

package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dghubble/oauth1"
	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"golang.org/x/time/rate"

	"tweetscope/internal/config"
	"tweetscope/internal/domain/tweet"
)

const (
	minTimelinePage = 5
	maxTimelinePage = 100
	maxFollowPage   = 1000
	maxLookupNames  = 100
)

var (
	tweetFields = []gotwitter.TweetField{
		gotwitter.TweetField("created_at"),
		gotwitter.TweetField("author_id"),
		gotwitter.TweetField("lang"),
		gotwitter.TweetField("source"),
		gotwitter.TweetField("entities"),
		gotwitter.TweetField("geo"),
		gotwitter.TweetField("referenced_tweets"),
	}
	timelineExpansions = []gotwitter.Expansion{
		gotwitter.Expansion("author_id"),
		gotwitter.Expansion("referenced_tweets.id"),
		gotwitter.Expansion("referenced_tweets.id.author_id"),
		gotwitter.Expansion("entities.mentions.username"),
		gotwitter.Expansion("geo.place_id"),
	}
	placeFields = []gotwitter.PlaceField{
		gotwitter.PlaceField("name"),
		gotwitter.PlaceField("full_name"),
		gotwitter.PlaceField("country_code"),
	}
	userFields = []gotwitter.UserField{
		gotwitter.UserField("public_metrics"),
		gotwitter.UserField("location"),
	}
)

// Client reads profiles, timelines and followed accounts from the Twitter API v2
type Client struct {
	api      *gotwitter.Client
	limiter  *rate.Limiter
	pageSize int
	logger   *log.Logger

	// mentioned maps lower-cased usernames missing from page expansions to their ids;
	// 0 marks a name the API did not return
	mentioned map[string]tweet.UserID
	mu        sync.Mutex
}

// bearerAuthorizer adds an app-only bearer token to each request
type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// signedAuthorizer leaves authentication to an OAuth1-signing http.Client
type signedAuthorizer struct{}

func (signedAuthorizer) Add(*http.Request) {}

// NewClient creates a client. User-context OAuth1 credentials are preferred over the bearer token.
func NewClient(cfg config.TwitterConfig, logger *log.Logger) (*Client, error) {
	if !cfg.HasCredentials() {
		return nil, errors.New("twitter credentials are not configured")
	}

	var (
		httpClient *http.Client
		authorizer gotwitter.Authorizer
	)
	if cfg.HasUserContext() {
		oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
		httpClient = oauthConfig.Client(oauth1.NoContext, token)
		authorizer = signedAuthorizer{}
	} else {
		httpClient = &http.Client{}
		authorizer = bearerAuthorizer{token: cfg.BearerToken}
	}
	httpClient.Timeout = cfg.Timeout

	return newClient(&gotwitter.Client{
		Authorizer: authorizer,
		Client:     httpClient,
		Host:       strings.TrimSuffix(cfg.Host, "/"),
	}, cfg.RequestsPerWindow, cfg.Window, cfg.PageSize, logger), nil
}

func newClient(api *gotwitter.Client, requests int, window time.Duration, pageSize int, logger *log.Logger) *Client {
	return &Client{
		api:       api,
		limiter:   rate.NewLimiter(rate.Every(window/time.Duration(requests)), 1),
		pageSize:  pageSize,
		logger:    logger,
		mentioned: make(map[string]tweet.UserID),
	}
}

// FetchProfile looks the account up by handle
func (c *Client) FetchProfile(ctx context.Context, handle string) (*tweet.Profile, error) {
	user, err := c.lookup(ctx, handle)
	if err != nil {
		return nil, err
	}

	id, err := tweet.ParseUserID(user.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	p := &tweet.Profile{ID: id, Handle: user.UserName}
	if user.PublicMetrics != nil {
		p.PostCount = user.PublicMetrics.Tweets
		p.FriendCount = user.PublicMetrics.Following
	}
	return p, nil
}

// StreamTweets pages through the user timeline, newest first
func (c *Client) StreamTweets(ctx context.Context, handle string, limit int) (tweet.Cursor[tweet.Tweet], error) {
	user, err := c.lookup(ctx, handle)
	if err != nil {
		return nil, err
	}
	author := tweet.Author{Handle: user.UserName}
	author.ID, _ = tweet.ParseUserID(user.ID)

	fetch := func(ctx context.Context, token string, remaining int) ([]tweet.Tweet, string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}

		opts := gotwitter.UserTweetTimelineOpts{
			TweetFields:     tweetFields,
			Expansions:      timelineExpansions,
			PlaceFields:     placeFields,
			MaxResults:      clamp(remaining, c.pageSize, minTimelinePage, maxTimelinePage),
			PaginationToken: token,
		}
		resp, err := c.api.UserTweetTimeline(ctx, user.ID, opts)
		if err != nil {
			return nil, "", mapError(err)
		}

		var next string
		if resp.Meta != nil {
			next = resp.Meta.NextToken
		}
		page := convertTimeline(resp.Raw, author)
		if err := c.resolveMentions(ctx, page); err != nil {
			c.logger.Warn("mentioned accounts left unresolved", "handle", handle, "error", err)
		}
		c.logger.Debug("timeline page", "handle", handle, "tweets", len(page), "next", next)
		return page, next, nil
	}

	return newPager(fetch, limit), nil
}

// StreamFriends pages through the accounts the user follows
func (c *Client) StreamFriends(ctx context.Context, handle string, limit int) (tweet.Cursor[tweet.Friend], error) {
	user, err := c.lookup(ctx, handle)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, token string, remaining int) ([]tweet.Friend, string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}

		opts := gotwitter.UserFollowingLookupOpts{
			UserFields:      userFields,
			MaxResults:      clamp(remaining, maxFollowPage, 1, maxFollowPage),
			PaginationToken: token,
		}
		resp, err := c.api.UserFollowingLookup(ctx, user.ID, opts)
		if err != nil {
			return nil, "", mapError(err)
		}

		var next string
		if resp.Meta != nil {
			next = resp.Meta.NextToken
		}
		page := convertFriends(resp.Raw)
		c.logger.Debug("following page", "handle", handle, "friends", len(page), "next", next)
		return page, next, nil
	}

	return newPager(fetch, limit), nil
}

func (c *Client) lookup(ctx context.Context, handle string) (*gotwitter.UserObj, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.api.UserNameLookup(ctx, []string{handle}, gotwitter.UserLookupOpts{UserFields: userFields})
	if err != nil {
		return nil, mapError(err)
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil {
		return nil, fmt.Errorf("%w: @%s", tweet.ErrNotFound, handle)
	}
	return resp.Raw.Users[0], nil
}

// resolveMentions fills in the ids of mentions whose accounts were missing from the
// page expansions, looking the usernames up in batches
func (c *Client) resolveMentions(ctx context.Context, page []tweet.Tweet) error {
	c.mu.Lock()
	var names []string
	queued := map[string]bool{}
	for _, t := range page {
		for _, m := range t.Mentions {
			key := strings.ToLower(m.Handle)
			if m.ID != 0 || key == "" || queued[key] {
				continue
			}
			if _, known := c.mentioned[key]; known {
				continue
			}
			queued[key] = true
			names = append(names, key)
		}
	}
	c.mu.Unlock()

	var lookupErr error
	for start := 0; start < len(names); start += maxLookupNames {
		batch := names[start:min(start+maxLookupNames, len(names))]
		found, err := c.lookupNames(ctx, batch)
		if errors.Is(err, tweet.ErrNotFound) {
			found, err = nil, nil
		}
		if err != nil {
			lookupErr = err
			break
		}

		c.mu.Lock()
		for _, name := range batch {
			c.mentioned[name] = found[name]
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range page {
		for j := range page[i].Mentions {
			m := &page[i].Mentions[j]
			if m.ID == 0 {
				m.ID = c.mentioned[strings.ToLower(m.Handle)]
			}
		}
	}
	return lookupErr
}

func (c *Client) lookupNames(ctx context.Context, names []string) (map[string]tweet.UserID, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.api.UserNameLookup(ctx, names, gotwitter.UserLookupOpts{})
	if err != nil {
		return nil, mapError(err)
	}

	found := make(map[string]tweet.UserID, len(names))
	if resp.Raw == nil {
		return found, nil
	}
	for _, u := range resp.Raw.Users {
		if u == nil {
			continue
		}
		if id, err := tweet.ParseUserID(u.ID); err == nil {
			found[strings.ToLower(u.UserName)] = id
		}
	}
	return found, nil
}

// mapError turns API error responses into the domain errors
func mapError(err error) error {
	var (
		status int
		limit  *gotwitter.RateLimit
		detail string
	)

	var apiErr *gotwitter.ErrorResponse
	var httpErr *gotwitter.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status, limit, detail = apiErr.StatusCode, apiErr.RateLimit, apiErr.Detail
	case errors.As(err, &httpErr):
		// error bodies that are not JSON
		status, limit, detail = httpErr.StatusCode, httpErr.RateLimit, httpErr.Status
	default:
		return err
	}

	switch status {
	case http.StatusTooManyRequests:
		rl := &tweet.RateLimitError{}
		if limit != nil && limit.Reset > 0 {
			rl.Reset = time.Unix(int64(limit.Reset), 0)
		}
		return rl
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", tweet.ErrNotFound, detail)
	default:
		return fmt.Errorf("twitter API returned status code %d: %s", status, detail)
	}
}

// clamp picks the page size for the remaining items within the API bounds
func clamp(remaining, preferred, lo, hi int) int {
	n := min(remaining, preferred)
	return max(lo, min(n, hi))
}
