package feed

import (
	"math/rand"
	"net/http"
)

// acceptLanguages contains common browser Accept-Language values
var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.9,fr;q=0.8",
	"fr-FR,fr;q=0.9,en;q=0.8",
}

// addBrowserHeaders adds browser-like headers to feed requests, some job boards reject bare clients
func addBrowserHeaders(req *http.Request) {
	// xml feeds first, json feeds and html accepted as the last resort
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.9,application/feed+json;q=0.8,application/json;q=0.7,*/*;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))]) //nolint:gosec // non-cryptographic randomness is fine for header variation
}
