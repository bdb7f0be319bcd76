package dnsbench

import (
	"math/rand"
	"strings"
)

// baseDomains is the reference workload, popular sites together with the
// CDN, API and tracker domains a typical page load touches. 100 entries.
var baseDomains = []string{
	// popular sites
	"google.com",
	"youtube.com",
	"facebook.com",
	"amazon.com",
	"wikipedia.org",
	"twitter.com",
	"instagram.com",
	"linkedin.com",
	"reddit.com",
	"netflix.com",
	"microsoft.com",
	"apple.com",
	"github.com",
	"stackoverflow.com",
	"yahoo.com",
	"bing.com",
	"duckduckgo.com",
	"twitch.tv",
	"spotify.com",
	"zoom.us",
	"ebay.com",
	"paypal.com",
	"adobe.com",
	"dropbox.com",
	"salesforce.com",
	"shopify.com",
	"wordpress.com",
	"tumblr.com",
	"pinterest.com",
	"quora.com",
	"medium.com",
	"cnn.com",
	"bbc.com",
	"nytimes.com",
	"theguardian.com",
	"reuters.com",
	"bloomberg.com",
	"forbes.com",
	"espn.com",
	"imdb.com",
	"booking.com",
	"airbnb.com",
	"tripadvisor.com",
	"uber.com",
	"doordash.com",
	"walmart.com",
	"target.com",
	"bestbuy.com",
	"etsy.com",
	"aliexpress.com",
	"alibaba.com",
	"baidu.com",
	"yandex.com",
	"vk.com",
	"whatsapp.com",
	"telegram.org",
	"discord.com",
	"slack.com",
	"notion.so",
	"figma.com",
	"canva.com",
	"gitlab.com",
	"bitbucket.org",
	"docker.com",
	"npmjs.com",
	"python.org",
	"golang.org",
	// CDNs
	"cdn.jsdelivr.net",
	"cdnjs.cloudflare.com",
	"unpkg.com",
	"ajax.googleapis.com",
	"code.jquery.com",
	"stackpath.bootstrapcdn.com",
	"maxcdn.bootstrapcdn.com",
	// fonts
	"fonts.googleapis.com",
	"fonts.gstatic.com",
	"use.fontawesome.com",
	"use.typekit.net",
	// analytics and tracking
	"www.google-analytics.com",
	"www.googletagmanager.com",
	"connect.facebook.net",
	"platform.twitter.com",
	"snap.licdn.com",
	"s.pinimg.com",
	"static.ads-twitter.com",
	// APIs and services
	"api.stripe.com",
	"js.stripe.com",
	"www.paypal.com",
	"apis.google.com",
	"maps.googleapis.com",
	"www.gstatic.com",
	"ssl.gstatic.com",
	// media and images
	"images.unsplash.com",
	"i.imgur.com",
	"pbs.twimg.com",
	"scontent.xx.fbcdn.net",
	// security and challenge endpoints
	"www.google.com",
	"challenges.cloudflare.com",
	"static.cloudflareinsights.com",
	"www.recaptcha.net",
}

// pageResourcePrefixes are the resource subdomains a page bundle fans out to.
var pageResourcePrefixes = []string{"www", "cdn", "api", "static"}

const (
	cacheBypassMinLabel = 6
	cacheBypassMaxLabel = 10
)

const labelAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Page is one simulated page load, a primary domain plus the resource
// domains resolved alongside it. All domains of a page are fired as one
// concurrent batch in burst mode.
type Page struct {
	Primary   string
	Resources []string
}

// Domains returns the primary domain followed by all resource domains.
func (p Page) Domains() []string {
	return append([]string{p.Primary}, p.Resources...)
}

// BaseDomains returns up to n domains of the reference catalog.
func BaseDomains(n int) []string {
	if n <= 0 || n > len(baseDomains) {
		n = len(baseDomains)
	}
	out := make([]string, n)
	copy(out, baseDomains[:n])
	return out
}

// ColdDomains returns up to n catalog domains, each prefixed with a freshly
// generated random label so that neither the resolver nor its upstream can
// serve the answer from cache. The base suffix stays unchanged.
func ColdDomains(n int) []string {
	base := BaseDomains(n)
	out := make([]string, len(base))
	for i, d := range base {
		out[i] = randomLabel() + "." + d
	}
	return out
}

// WarmDomains returns up to n unmodified catalog domains, suitable for
// cache-hit measurement after a warm-up pass.
func WarmDomains(n int) []string {
	return BaseDomains(n)
}

// Pages groups up to n catalog domains into page bundles. Each bundle holds
// the primary domain and its resource subdomains.
func Pages(n int) []Page {
	base := BaseDomains(n)
	pages := make([]Page, len(base))
	for i, d := range base {
		resources := make([]string, len(pageResourcePrefixes))
		for j, prefix := range pageResourcePrefixes {
			resources[j] = prefix + "." + stripWWW(d)
		}
		pages[i] = Page{Primary: d, Resources: resources}
	}
	return pages
}

func stripWWW(domain string) string {
	return strings.TrimPrefix(domain, "www.")
}

// randomLabel generates a cache-bypass label of 6-10 lowercase alphanumeric
// characters.
func randomLabel() string {
	n := cacheBypassMinLabel + rand.Intn(cacheBypassMaxLabel-cacheBypassMinLabel+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = labelAlphabet[rand.Intn(len(labelAlphabet))]
	}
	return string(b)
}
