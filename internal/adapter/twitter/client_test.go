package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"

	"tweetscope/internal/config"
	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/logging"
)

const userJSON = `{"id":"100","name":"Alice","username":"alice","public_metrics":{"followers_count":5,"following_count":420,"tweet_count":3,"listed_count":0}}`

const firstPage = `{
  "data": [
    {"id":"3","text":"RT @bob: hi","author_id":"100","created_at":"2021-06-02T10:00:00.000Z","lang":"en","source":"Twitter for iPhone",
     "referenced_tweets":[{"type":"retweeted","id":"50"}]},
    {"id":"2","text":"#Go at https://t.co/x with @carol","author_id":"100","created_at":"2021-06-01T09:30:00.000Z","lang":"en","source":"Twitter Web App",
     "geo":{"place_id":"p1"},
     "entities":{"hashtags":[{"start":0,"end":3,"tag":"Go"}],
                 "urls":[{"start":7,"end":30,"url":"https://t.co/x","expanded_url":"https://golang.org/doc"}],
                 "mentions":[{"start":36,"end":42,"username":"carol"}]}}
  ],
  "includes": {
    "tweets": [{"id":"50","text":"hi","author_id":"200"}],
    "users": [{"id":"200","name":"Bob","username":"bob"},{"id":"300","name":"Carol","username":"Carol"}],
    "places": [{"id":"p1","full_name":"Paris, France","name":"Paris","country_code":"FR"}]
  },
  "meta": {"result_count":2,"next_token":"page2"}
}`

const secondPage = `{
  "data": [
    {"id":"1","text":"quoting","author_id":"100","created_at":"2021-05-30T08:00:00.000Z","lang":"fr","source":"Twitter Web App",
     "referenced_tweets":[{"type":"quoted","id":"60"}]}
  ],
  "meta": {"result_count":1}
}`

var knownUsers = map[string]string{
	"alice": userJSON,
	"dave":  `{"id":"400","name":"Dave","username":"Dave"}`,
}

type apiServer struct {
	*httptest.Server

	mu             sync.Mutex
	timelineTokens []string
	pageSizes      []string
	lookups        []string
}

func (s *apiServer) lookedUp(names string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, names)
}

func (s *apiServer) lookupRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.lookups...)
}

func (s *apiServer) requests() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.timelineTokens...), append([]string{}, s.pageSizes...)
}

func newAPIServer(t *testing.T, timeline http.HandlerFunc) *apiServer {
	t.Helper()
	s := &apiServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		s.lookedUp(name)
		u, ok := knownUsers[strings.ToLower(name)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"title":"Not Found Error","detail":"Could not find user","type":"about:blank","status":404}`)
			return
		}
		io.WriteString(w, `{"data":`+u+`}`)
	})
	mux.HandleFunc("/2/users/by", func(w http.ResponseWriter, r *http.Request) {
		names := r.URL.Query().Get("usernames")
		s.lookedUp(names)
		var found []string
		for _, name := range strings.Split(names, ",") {
			if u, ok := knownUsers[strings.ToLower(name)]; ok {
				found = append(found, u)
			}
		}
		if len(found) == 0 {
			io.WriteString(w, `{"errors":[{"detail":"Could not find user","title":"Not Found Error"}]}`)
			return
		}
		io.WriteString(w, `{"data":[`+strings.Join(found, ",")+`]}`)
	})
	mux.HandleFunc("/2/users/100/tweets", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.timelineTokens = append(s.timelineTokens, r.URL.Query().Get("pagination_token"))
		s.pageSizes = append(s.pageSizes, r.URL.Query().Get("max_results"))
		s.mu.Unlock()
		timeline(w, r)
	})
	mux.HandleFunc("/2/users/100/following", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"id":"7","name":"Dan","username":"dan"},{"id":"8","name":"Eve","username":"eve"}],"meta":{"result_count":2}}`)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testClient(s *apiServer, pageSize int) *Client {
	api := &gotwitter.Client{
		Authorizer: bearerAuthorizer{token: "test"},
		Client:     s.Client(),
		Host:       s.URL,
	}
	return newClient(api, 1000, time.Millisecond, pageSize, logging.Discard())
}

func pagedTimeline(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pagination_token") == "page2" {
		io.WriteString(w, secondPage)
		return
	}
	io.WriteString(w, firstPage)
}

func drain(t *testing.T, c tweet.Cursor[tweet.Tweet]) []tweet.Tweet {
	t.Helper()
	defer c.Close()
	var out []tweet.Tweet
	for {
		tw, err := c.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, tw)
	}
}

func TestFetchProfile(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, pagedTimeline)
	p, err := testClient(s, 100).FetchProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if p.ID != 100 || p.Handle != "alice" || p.PostCount != 3 || p.FriendCount != 420 {
		t.Fatalf("profile = %+v", p)
	}
	if p.UTCOffset != nil {
		t.Fatal("UTCOffset set from an API that has none")
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, pagedTimeline)
	_, err := testClient(s, 100).FetchProfile(context.Background(), "nobody")
	if !errors.Is(err, tweet.ErrNotFound) {
		t.Fatalf("FetchProfile() error = %v, want ErrNotFound", err)
	}
}

func TestStreamTweetsPagesAndConverts(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, pagedTimeline)
	cur, err := testClient(s, 100).StreamTweets(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("StreamTweets() error = %v", err)
	}
	got := drain(t, cur)

	if len(got) != 3 {
		t.Fatalf("got %d tweets, want 3", len(got))
	}
	if tokens, _ := s.requests(); fmt.Sprint(tokens) != "[ page2]" {
		t.Errorf("pagination tokens = %q", tokens)
	}

	rt := got[0]
	if rt.RetweetOf == nil || rt.RetweetOf.ID != 200 || rt.RetweetOf.Handle != "bob" {
		t.Errorf("retweet origin = %+v", rt.RetweetOf)
	}
	if rt.Author.ID != 100 || rt.Author.Handle != "alice" {
		t.Errorf("author = %+v", rt.Author)
	}
	if !rt.CreatedAt.Equal(time.Date(2021, 6, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %s", rt.CreatedAt)
	}

	plain := got[1]
	if plain.Place == nil || plain.Place.Name != "Paris" || plain.Place.CountryCode != "FR" {
		t.Errorf("place = %+v", plain.Place)
	}
	if len(plain.Hashtags) != 1 || plain.Hashtags[0] != "Go" {
		t.Errorf("hashtags = %v", plain.Hashtags)
	}
	if len(plain.URLs) != 1 || plain.URLs[0] != "https://golang.org/doc" {
		t.Errorf("urls = %v", plain.URLs)
	}
	if len(plain.Mentions) != 1 || plain.Mentions[0].ID != 300 || plain.Mentions[0].Handle != "Carol" {
		t.Errorf("mentions = %+v", plain.Mentions)
	}
	if plain.IsRetweet() || plain.IsQuote {
		t.Error("plain tweet flagged as retweet or quote")
	}

	if !got[2].IsQuote || got[2].Lang != "fr" {
		t.Errorf("quote = %+v", got[2])
	}
}

const unexpandedMentionsPage = `{
  "data": [
    {"id":"12","text":"@dave @ghost hello","author_id":"100","created_at":"2021-06-03T10:00:00.000Z","lang":"en","source":"Twitter Web App",
     "entities":{"mentions":[{"start":0,"end":5,"username":"dave"},{"start":6,"end":12,"username":"ghost"}]}},
    {"id":"11","text":"again @Dave","author_id":"100","created_at":"2021-06-02T10:00:00.000Z","lang":"en","source":"Twitter Web App",
     "entities":{"mentions":[{"start":6,"end":11,"username":"Dave"}]}}
  ],
  "meta": {"result_count":2,"next_token":"more"}
}`

const repeatMentionPage = `{
  "data": [
    {"id":"10","text":"@dave @ghost bye","author_id":"100","created_at":"2021-06-01T10:00:00.000Z","lang":"en","source":"Twitter Web App",
     "entities":{"mentions":[{"start":0,"end":5,"username":"dave"},{"start":6,"end":12,"username":"ghost"}]}}
  ],
  "meta": {"result_count":1}
}`

func TestStreamTweetsResolvesUnexpandedMentions(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pagination_token") == "more" {
			io.WriteString(w, repeatMentionPage)
			return
		}
		io.WriteString(w, unexpandedMentionsPage)
	})
	cur, err := testClient(s, 100).StreamTweets(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("StreamTweets() error = %v", err)
	}
	got := drain(t, cur)

	if len(got) != 3 {
		t.Fatalf("got %d tweets, want 3", len(got))
	}
	for _, tw := range got {
		for _, m := range tw.Mentions {
			switch strings.ToLower(m.Handle) {
			case "dave":
				if m.ID != 400 {
					t.Errorf("tweet %s: mention %q id = %d, want 400", tw.ID, m.Handle, m.ID)
				}
			case "ghost":
				if m.ID != 0 {
					t.Errorf("tweet %s: unknown account got id %d", tw.ID, m.ID)
				}
			}
		}
	}

	// one batched lookup for the timeline, none repeated on the second page
	lookups := s.lookupRequests()
	if len(lookups) != 2 || lookups[0] != "alice" || lookups[1] != "dave,ghost" {
		t.Fatalf("lookups = %q, want [alice dave,ghost]", lookups)
	}
}

func TestStreamTweetsHonoursLimit(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, pagedTimeline)
	cur, err := testClient(s, 100).StreamTweets(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("StreamTweets() error = %v", err)
	}
	got := drain(t, cur)

	if len(got) != 2 {
		t.Fatalf("got %d tweets, want 2", len(got))
	}
	tokens, sizes := s.requests()
	if len(tokens) != 1 {
		t.Fatalf("requested %d pages, want 1", len(tokens))
	}
	if sizes[0] != "5" {
		t.Errorf("max_results = %q, want the API minimum", sizes[0])
	}
}

func TestStreamTweetsRateLimited(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(15 * time.Minute).Unix()
	s := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-limit", "900")
		w.Header().Set("x-rate-limit-remaining", "0")
		w.Header().Set("x-rate-limit-reset", fmt.Sprint(reset))
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"title":"Too Many Requests","detail":"Too Many Requests","type":"about:blank","status":429}`)
	})

	cur, err := testClient(s, 100).StreamTweets(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("StreamTweets() error = %v", err)
	}
	defer cur.Close()

	_, err = cur.Next(context.Background())
	if !errors.Is(err, tweet.ErrRateLimited) {
		t.Fatalf("Next() error = %v, want ErrRateLimited", err)
	}
}

func TestStreamFriends(t *testing.T) {
	t.Parallel()

	s := newAPIServer(t, pagedTimeline)
	cur, err := testClient(s, 100).StreamFriends(context.Background(), "alice", 300)
	if err != nil {
		t.Fatalf("StreamFriends() error = %v", err)
	}
	defer cur.Close()

	var got []tweet.Friend
	for {
		f, err := cur.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, f)
	}

	if len(got) != 2 || got[0].ID != 7 || got[1].Handle != "eve" || got[0].Lang != undeterminedLang {
		t.Fatalf("friends = %+v", got)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(configWith("", ""), logging.Discard()); err == nil {
		t.Fatal("NewClient() accepted empty credentials")
	}
	if _, err := NewClient(configWith("bearer", ""), logging.Discard()); err != nil {
		t.Fatalf("NewClient(bearer) error = %v", err)
	}
	if _, err := NewClient(configWith("", "oauth"), logging.Discard()); err != nil {
		t.Fatalf("NewClient(oauth1) error = %v", err)
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct{ remaining, preferred, want int }{
		{2, 100, 5},
		{50, 100, 50},
		{500, 100, 100},
		{500, 20, 20},
	}
	for _, tc := range tests {
		if got := clamp(tc.remaining, tc.preferred, minTimelinePage, maxTimelinePage); got != tc.want {
			t.Errorf("clamp(%d, %d) = %d, want %d", tc.remaining, tc.preferred, got, tc.want)
		}
	}
}

func configWith(bearer, oauth string) config.TwitterConfig {
	cfg := config.TwitterConfig{
		BearerToken:       bearer,
		Host:              "https://api.twitter.com",
		RequestsPerWindow: 900,
		Window:            15 * time.Minute,
		PageSize:          100,
		Timeout:           10 * time.Second,
	}
	if oauth != "" {
		cfg.ConsumerKey = oauth
		cfg.ConsumerSecret = oauth
		cfg.AccessToken = oauth
		cfg.AccessTokenSecret = oauth
	}
	return cfg
}

func TestMapErrorPlainBody(t *testing.T) {
	t.Parallel()

	err := mapError(&gotwitter.HTTPError{Status: "429 Too Many Requests", StatusCode: http.StatusTooManyRequests,
		RateLimit: &gotwitter.RateLimit{Reset: gotwitter.Epoch(1700000000)}})
	var rl *tweet.RateLimitError
	if !errors.As(err, &rl) || !rl.Reset.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("mapError() = %v, want rate limit with reset", err)
	}

	if err := mapError(&gotwitter.HTTPError{Status: "404 Not Found", StatusCode: http.StatusNotFound}); !errors.Is(err, tweet.ErrNotFound) {
		t.Fatalf("mapError() = %v, want ErrNotFound", err)
	}
}
