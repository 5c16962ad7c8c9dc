package core

import (
	"regexp"
	"strings"
)

// DefaultPostHosts are the hosts canonical post links are accepted from.
var DefaultPostHosts = []string{"twitter.com", "x.com"}

// PostLink is a canonical post URL split into its parts. PostID keeps the
// decimal string as it appeared in the URL.
type PostLink struct {
	Matched      bool
	URL          string
	AuthorHandle string
	PostID       string
}

// LinkResolver matches canonical post URLs of the form
// https://<host>/<handle>/status/<digits>.
type LinkResolver struct {
	pattern *regexp.Regexp
}

func NewLinkResolver(hosts ...string) *LinkResolver {
	if len(hosts) == 0 {
		hosts = DefaultPostHosts
	}

	quoted := make([]string, len(hosts))
	for i, h := range hosts {
		quoted[i] = regexp.QuoteMeta(h)
	}

	return &LinkResolver{
		pattern: regexp.MustCompile(`^https://(?:` + strings.Join(quoted, "|") + `)/([^/]+)/status/(\d+)$`),
	}
}

func (r *LinkResolver) Resolve(url string) PostLink {
	m := r.pattern.FindStringSubmatch(url)
	if m == nil {
		return PostLink{}
	}
	return PostLink{
		Matched:      true,
		URL:          url,
		AuthorHandle: m[1],
		PostID:       m[2],
	}
}

var defaultResolver = NewLinkResolver()

// ResolvePostLink resolves url against the default hosts.
func ResolvePostLink(url string) PostLink {
	return defaultResolver.Resolve(url)
}
