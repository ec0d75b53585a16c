// Package posting maps raw feed items of heterogeneous shape to canonical job postings and validates them.
package posting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/jobimport/pkg/domain"
)

// MaxDescriptionLen is the maximum description length in characters
const MaxDescriptionLen = 5000

// defaults of unresolved fields
const (
	DefaultTitle    = "Untitled Position"
	DefaultCompany  = "Unknown"
	DefaultLocation = "Remote"
	DefaultJobType  = "Full-time"
	DefaultCategory = "General"
)

// TransformError is returned when a raw item can't be turned into a posting
type TransformError struct {
	Source string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform item from %s: %v", e.Source, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// field aliases in priority order, the first non-empty one wins
var (
	idFields          = []string{"guid", "id"}
	titleFields       = []string{"title"}
	companyFields     = []string{"company", "company_name", "organization", "job_listing:company", "job:company"}
	locationFields    = []string{"location", "region", "city", "job_listing:location", "job:location"}
	descriptionFields = []string{"description", "content:encoded", "content", "summary"}
	urlFields         = []string{"link", "url", "guid"}
	dateFields        = []string{"pubdate", "published", "publisheddate", "date", "dc:date", "updated"}
	jobTypeFields     = []string{"job_type", "jobtype", "type", "job_listing:job_type"}
	categoryFields    = []string{"category", "categories", "job_category"}
	regionFields      = []string{"region", "location"}
	salaryFields      = []string{"salary", "compensation"}
)

// Normalizer maps raw items to canonical postings
type Normalizer struct {
	policy *bluemonday.Policy
	now    func() time.Time
}

// NewNormalizer makes a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{policy: bluemonday.StrictPolicy(), now: time.Now}
}

// Normalize converts a raw feed item to a posting. The id is the explicit guid/id of the item,
// otherwise a digest of link, title and publish date, so the same entry always resolves to the same id.
func (n *Normalizer) Normalize(item domain.RawItem, sourceURL string) (domain.JobPosting, error) {
	if item == nil {
		return domain.JobPosting{}, &TransformError{Source: sourceURL, Err: fmt.Errorf("empty item")}
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return domain.JobPosting{}, &TransformError{Source: sourceURL, Err: fmt.Errorf("marshal raw payload: %w", err)}
	}

	rawDate := first(item, dateFields...)
	published := n.now().UTC()
	if rawDate != "" {
		if ts, err := dateparse.ParseAny(rawDate); err == nil {
			published = ts.UTC()
		} else {
			lgr.Printf("[DEBUG] can't parse publish date %q of %s: %v", rawDate, sourceURL, err)
		}
	}

	defaults := lookupSource(sourceURL)
	res := domain.JobPosting{
		JobID:         first(item, idFields...),
		Title:         orDefault(first(item, titleFields...), DefaultTitle),
		Company:       orDefault(first(item, companyFields...), DefaultCompany),
		Location:      orDefault(first(item, locationFields...), DefaultLocation),
		Description:   n.CleanDescription(first(item, descriptionFields...)),
		URL:           first(item, urlFields...),
		PublishedDate: published,
		JobType:       orDefault(first(item, jobTypeFields...), defaults.jobType, DefaultJobType),
		Category:      orDefault(first(item, categoryFields...), defaults.category, DefaultCategory),
		Region:        orDefault(first(item, regionFields...), defaults.region),
		Salary:        first(item, salaryFields...),
		Source:        sourceURL,
		RawPayload:    raw,
		Active:        true,
	}
	if res.JobID == "" {
		res.JobID = ContentID(first(item, "link", "url"), first(item, titleFields...), rawDate)
	}
	return res, nil
}

// ContentID makes a deterministic id from the link, title and publish date of an entry
func ContentID(link, title, published string) string {
	sum := sha256.Sum256([]byte(link + "|" + title + "|" + published))
	return hex.EncodeToString(sum[:])
}

// CleanDescription strips markup, decodes entities, collapses whitespace and truncates to MaxDescriptionLen characters
func (n *Normalizer) CleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(n.policy.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxDescriptionLen {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLen])
}

// first returns the first non-empty, trimmed value of the given fields
func first(item domain.RawItem, fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(item.String(f)); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
