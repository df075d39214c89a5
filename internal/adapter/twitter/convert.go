// internal/adapter/twitter/convert.go

package twitter

import (
	"strings"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"

	"tweetscope/internal/domain/tweet"
)

// undeterminedLang is reported for followed accounts; API v2 exposes no account language
const undeterminedLang = "und"

// includes indexes the expansions of one timeline page
type includes struct {
	tweets      map[string]*gotwitter.TweetObj
	usersByID   map[string]*gotwitter.UserObj
	usersByName map[string]*gotwitter.UserObj
	places      map[string]*gotwitter.PlaceObj
}

func indexIncludes(raw *gotwitter.TweetRaw) includes {
	inc := includes{
		tweets:      map[string]*gotwitter.TweetObj{},
		usersByID:   map[string]*gotwitter.UserObj{},
		usersByName: map[string]*gotwitter.UserObj{},
		places:      map[string]*gotwitter.PlaceObj{},
	}
	if raw == nil || raw.Includes == nil {
		return inc
	}

	for _, t := range raw.Includes.Tweets {
		if t != nil {
			inc.tweets[t.ID] = t
		}
	}
	for _, u := range raw.Includes.Users {
		if u != nil {
			inc.usersByID[u.ID] = u
			inc.usersByName[strings.ToLower(u.UserName)] = u
		}
	}
	for _, p := range raw.Includes.Places {
		if p != nil {
			inc.places[p.ID] = p
		}
	}
	return inc
}

// convertTimeline maps one timeline page to domain tweets, keeping the API order
func convertTimeline(raw *gotwitter.TweetRaw, author tweet.Author) []tweet.Tweet {
	if raw == nil {
		return nil
	}
	inc := indexIncludes(raw)

	out := make([]tweet.Tweet, 0, len(raw.Tweets))
	for _, obj := range raw.Tweets {
		if obj == nil {
			continue
		}
		out = append(out, convertTweet(obj, author, inc))
	}
	return out
}

func convertTweet(obj *gotwitter.TweetObj, author tweet.Author, inc includes) tweet.Tweet {
	t := tweet.Tweet{
		ID:     obj.ID,
		Author: author,
		Text:   obj.Text,
		Source: obj.Source,
		Lang:   obj.Language,
	}

	if obj.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, obj.CreatedAt); err == nil {
			t.CreatedAt = ts.UTC()
		}
	}

	if obj.Geo != nil && obj.Geo.PlaceID != "" {
		if p, ok := inc.places[obj.Geo.PlaceID]; ok {
			t.Place = &tweet.Place{Name: p.Name, FullName: p.FullName, CountryCode: p.CountryCode}
		} else {
			t.Place = &tweet.Place{}
		}
	}

	for _, ref := range obj.ReferencedTweets {
		if ref == nil {
			continue
		}
		switch ref.Type {
		case "retweeted":
			t.RetweetOf = retweetOrigin(ref.ID, inc)
		case "quoted":
			t.IsQuote = true
		}
	}

	if obj.Entities != nil {
		for _, h := range obj.Entities.HashTags {
			t.Hashtags = append(t.Hashtags, h.Tag)
		}
		for _, u := range obj.Entities.URLs {
			link := u.ExpandedURL
			if link == "" {
				link = u.URL
			}
			t.URLs = append(t.URLs, link)
		}
		// mentions missing from the expansions keep a zero id until the client looks them up
		for _, m := range obj.Entities.Mentions {
			ref := tweet.UserRef{Handle: m.UserName}
			if u, ok := inc.usersByName[strings.ToLower(m.UserName)]; ok {
				ref.ID, _ = tweet.ParseUserID(u.ID)
				ref.Handle = u.UserName
			}
			t.Mentions = append(t.Mentions, ref)
		}
	}

	return t
}

// retweetOrigin resolves the original author of a retweet. The reference is kept
// even when the expansion is missing so the tweet still counts as a retweet.
func retweetOrigin(tweetID string, inc includes) *tweet.UserRef {
	ref := &tweet.UserRef{}
	orig, ok := inc.tweets[tweetID]
	if !ok {
		return ref
	}
	ref.ID, _ = tweet.ParseUserID(orig.AuthorID)
	if u, ok := inc.usersByID[orig.AuthorID]; ok {
		ref.Handle = u.UserName
	}
	return ref
}

func convertFriends(raw *gotwitter.UserRaw) []tweet.Friend {
	if raw == nil {
		return nil
	}
	out := make([]tweet.Friend, 0, len(raw.Users))
	for _, u := range raw.Users {
		if u == nil {
			continue
		}
		f := tweet.Friend{Handle: u.UserName, Lang: undeterminedLang}
		f.ID, _ = tweet.ParseUserID(u.ID)
		out = append(out, f)
	}
	return out
}
