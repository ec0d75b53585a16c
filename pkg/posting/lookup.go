package posting

import "strings"

type lookupEntry struct {
	key, value string
}

// source url fragments mapped to posting defaults, checked in order
var (
	jobTypeLookup = []lookupEntry{
		{"full-time", "Full-time"},
		{"part-time", "Part-time"},
		{"contract", "Contract"},
	}
	categoryLookup = []lookupEntry{
		{"smm", "Social Media Marketing"},
		{"seller", "Sales"},
		{"design-multimedia", "Design & Multimedia"},
		{"data-science", "Data Science"},
		{"copywriting", "Copywriting"},
		{"business", "Business"},
		{"management", "Management"},
	}
	regionLookup = []lookupEntry{
		{"france", "France"},
		{"usa", "USA"},
		{"uk", "UK"},
	}
)

type sourceDefaults struct {
	jobType, category, region string
}

// lookupSource infers job type, category and region defaults from the feed url
func lookupSource(sourceURL string) sourceDefaults {
	src := strings.ToLower(sourceURL)
	return sourceDefaults{
		jobType:  match(src, jobTypeLookup),
		category: match(src, categoryLookup),
		region:   match(src, regionLookup),
	}
}

func match(src string, table []lookupEntry) string {
	for _, e := range table {
		if strings.Contains(src, e.key) {
			return e.value
		}
	}
	return ""
}
