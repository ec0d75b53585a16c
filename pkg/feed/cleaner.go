package feed

import (
	"regexp"
	"strings"
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

var (
	controlCharsRe  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	valuelessAttrRe = regexp.MustCompile(`(\w+)=\s*>`)
	emptyAttrRe     = regexp.MustCompile(`\s+\w+=""\s*`)
	startTagRe      = regexp.MustCompile(`<[^<>!?/][^<>]*>`)
	attrRe          = regexp.MustCompile(`(\s[\w:.-]+)\s*=\s*("[^"]*"|'[^']*'|[^\s"'<>]*[^\s"'<>/])`)
)

// Clean pre-cleans a raw feed document before structural parsing. It strips control characters,
// drops attributes without a value, neutralizes unterminated CDATA blocks and removes empty attribute assignments.
func Clean(data string) string {
	data = controlCharsRe.ReplaceAllString(data, "")
	data = repairCDATA(data)
	data = valuelessAttrRe.ReplaceAllString(data, ">")
	data = emptyAttrRe.ReplaceAllString(data, " ")
	return data
}

// repairCDATA replaces every CDATA opener which has no terminator before the next opener
// (or the end of the document) with an empty CDATA block, so the rest of the text is parsed as markup.
func repairCDATA(data string) string {
	if !strings.Contains(data, cdataOpen) {
		return data
	}

	var b strings.Builder
	b.Grow(len(data))
	for {
		i := strings.Index(data, cdataOpen)
		if i < 0 {
			b.WriteString(data)
			return b.String()
		}
		b.WriteString(data[:i])
		rest := data[i+len(cdataOpen):]

		end := strings.Index(rest, cdataClose)
		next := strings.Index(rest, cdataOpen)
		if end < 0 || (next >= 0 && next < end) {
			b.WriteString(cdataOpen + cdataClose)
			data = rest
			continue
		}
		b.WriteString(cdataOpen)
		b.WriteString(rest[:end+len(cdataClose)])
		data = rest[end+len(cdataClose):]
	}
}

// quoteAttributes wraps unquoted attribute values of start tags in double quotes.
// Quoted values are matched as a whole, so a name=value inside them is left alone.
func quoteAttributes(data string) string {
	return startTagRe.ReplaceAllStringFunc(data, func(tag string) string {
		return attrRe.ReplaceAllStringFunc(tag, func(attr string) string {
			m := attrRe.FindStringSubmatch(attr)
			if m == nil || strings.HasPrefix(m[2], `"`) || strings.HasPrefix(m[2], "'") {
				return attr
			}
			return m[1] + `="` + m[2] + `"`
		})
	})
}
