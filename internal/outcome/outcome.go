package outcome

import (
	"net/url"
)

// Status is the result of a connect attempt carried back to the page.
type Status string

const (
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// Outcome is the connect result decoded from redirect query parameters.
type Outcome struct {
	Provider string
	Status   Status
	Team     string
	Message  string
}

// providerKeys lists the query parameter names providers report under.
var providerKeys = []string{"slack", "zoom"}

// BuildRedirect returns the application-root redirect URL carrying the outcome.
func BuildRedirect(base string, o Outcome) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(o.Provider, string(o.Status))
	if o.Team != "" {
		q.Set("team", o.Team)
	}
	if o.Message != "" {
		q.Set("message", o.Message)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Parse reads a connect outcome from page query parameters. It returns false
// when no recognized provider/status pair is present; unknown status values
// are ignored so future providers can add their own keys.
func Parse(query url.Values) (Outcome, bool) {
	for _, key := range providerKeys {
		val := query.Get(key)
		if val == "" {
			continue
		}
		status := Status(val)
		if status != StatusConnected && status != StatusError {
			continue
		}
		return Outcome{
			Provider: key,
			Status:   status,
			Team:     query.Get("team"),
			Message:  query.Get("message"),
		}, true
	}
	return Outcome{}, false
}

// Strip removes outcome parameters from a query string and returns the
// scrubbed URL path+query. The page embeds the result in a
// history.replaceState call so a refresh cannot replay the banner.
func Strip(u *url.URL) string {
	q := u.Query()
	for _, key := range providerKeys {
		q.Del(key)
	}
	q.Del("team")
	q.Del("message")
	clean := *u
	clean.RawQuery = q.Encode()
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.Path + querySuffix(clean.RawQuery)
}

func querySuffix(raw string) string {
	if raw == "" {
		return ""
	}
	return "?" + raw
}
