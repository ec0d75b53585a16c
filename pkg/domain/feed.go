package domain

import "time"

// FetchStatus is the outcome of the last fetch attempt recorded on a feed source
type FetchStatus string

// fetch statuses
const (
	FetchPending FetchStatus = "pending"
	FetchSuccess FetchStatus = "success"
	FetchFailed  FetchStatus = "failed"
)

// FeedSource represents a configured external feed yielding job postings
type FeedSource struct {
	URL             string
	Name            string
	Category        string
	JobType         string
	Region          string
	Active          bool
	LastFetchedAt   *time.Time
	LastFetchStatus FetchStatus
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RawItem is a loosely typed bag of fields of a single feed entry as produced by the parser.
// Values are strings, nested RawItem maps, or []any for repeated elements.
type RawItem map[string]any

// String returns the text value of the field. Nested elements resolve to their text content,
// repeated elements are joined with ", ".
func (r RawItem) String(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	return textOf(v)
}

// TextKey is the key holding the character data of an element which also has attributes or children
const TextKey = "value"

func textOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case RawItem:
		return textOf(val[TextKey])
	case map[string]any:
		return textOf(val[TextKey])
	case []any:
		res := ""
		for _, el := range val {
			s := textOf(el)
			if s == "" {
				continue
			}
			if res != "" {
				res += ", "
			}
			res += s
		}
		return res
	default:
		return ""
	}
}
