package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:job_listing="https://jobicy.com/ns">
	<channel>
		<title>Jobs</title>
		<item>
			<title>Go Developer</title>
			<link>https://example.com/jobs/1</link>
			<guid isPermaLink="false">job-1</guid>
			<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
			<description><![CDATA[<p>Build <b>services</b></p>]]></description>
			<content:encoded><![CDATA[<p>Full text</p>]]></content:encoded>
			<job_listing:company>Acme</job_listing:company>
			<category>Engineering</category>
			<category>Backend</category>
		</item>
		<item>
			<title>Designer</title>
			<link>https://example.com/jobs/2</link>
		</item>
	</channel>
</rss>`

func TestClean(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{name: "control characters", in: "<a>x\x00y\x08z\x0B\x1F</a>\t\n", want: "<a>xyz</a>\t\n"},
		{name: "attribute without value", in: `<item foo=>text</item>`, want: `<item >text</item>`},
		{name: "empty attribute", in: `<guid isPermaLink="" >1</guid>`, want: `<guid >1</guid>`},
		{name: "unterminated cdata", in: `<d><![CDATA[broken</d>`, want: `<d><![CDATA[]]>broken</d>`},
		{name: "cdata opener before terminator", in: `<![CDATA[a<![CDATA[b]]>`, want: `<![CDATA[]]>a<![CDATA[b]]>`},
		{name: "valid cdata untouched", in: `<d><![CDATA[<p>x</p>]]></d>`, want: `<d><![CDATA[<p>x</p>]]></d>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestQuoteAttributes(t *testing.T) {
	assert.Equal(t, `<guid isPermaLink="false">1</guid>`, quoteAttributes(`<guid isPermaLink=false>1</guid>`))
	assert.Equal(t, `<a href="x" rel="nofollow">`, quoteAttributes(`<a href="x" rel=nofollow>`))
	assert.Equal(t, `text a=b <b>`, quoteAttributes(`text a=b <b>`), "text outside tags is kept")
	assert.Equal(t, `<enclosure url="https://e.com/a.png" title="size w=100" length="12"/>`,
		quoteAttributes(`<enclosure url="https://e.com/a.png" title="size w=100" length=12/>`),
		"name=value inside a quoted value is kept")
	assert.Equal(t, `<a title='x=1' rel="me">`, quoteAttributes(`<a title='x=1' rel=me>`))
}

func TestParser_ParseItems(t *testing.T) {
	p := NewParser()

	t.Run("channel wrapped rss", func(t *testing.T) {
		items, err := p.ParseItems([]byte(rssFeed))
		require.NoError(t, err)
		require.Len(t, items, 2)

		first := items[0]
		assert.Equal(t, "Go Developer", first.String("title"))
		assert.Equal(t, "https://example.com/jobs/1", first.String("link"))
		assert.Equal(t, "job-1", first.String("guid"))
		assert.Equal(t, domain.RawItem{"ispermalink": "false", "value": "job-1"}, first["guid"])
		assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", first.String("pubdate"))
		assert.Equal(t, "<p>Build <b>services</b></p>", first.String("description"))
		assert.Equal(t, "<p>Full text</p>", first.String("content:encoded"))
		assert.Equal(t, "Acme", first.String("job_listing:company"))
		assert.Equal(t, "Engineering, Backend", first.String("category"))

		assert.Equal(t, "Designer", items[1].String("title"))
	})

	t.Run("bare item list", func(t *testing.T) {
		doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><channel><title>x</title></channel>
			<item><title>One</title></item><item><title>Two</title></item></rdf:RDF>`
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "One", items[0].String("title"))
		assert.Equal(t, "Two", items[1].String("title"))
	})

	t.Run("single item is a one element list", func(t *testing.T) {
		doc := `<rss><channel><item><title>Only</title><link>https://example.com/only</link></item></channel></rss>`
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Only", items[0].String("title"))
	})

	t.Run("single item document", func(t *testing.T) {
		items, err := p.ParseItems([]byte(`<item><title>Alone</title></item>`))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Alone", items[0].String("title"))
	})

	t.Run("unknown shape yields empty list", func(t *testing.T) {
		items, err := p.ParseItems([]byte(`<catalog><book><title>x</title></book></catalog>`))
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("empty channel", func(t *testing.T) {
		items, err := p.ParseItems([]byte(`<rss><channel><title>empty</title></channel></rss>`))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unquoted attribute repaired by fallback", func(t *testing.T) {
		doc := `<rss><channel><item><title>Repaired</title><guid isPermaLink=false>g-1</guid></item></channel></rss>`
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Repaired", items[0].String("title"))
		assert.Equal(t, "g-1", items[0].String("guid"))
	})

	t.Run("stray attribute and control chars cleaned", func(t *testing.T) {
		doc := "<rss><channel><item foo=><title>Clean\x01ed</title><link href=\"\" >https://example.com/c</link></item></channel></rss>"
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Cleaned", items[0].String("title"))
		assert.Equal(t, "https://example.com/c", items[0].String("link"))
	})

	t.Run("html entities and bare ampersand", func(t *testing.T) {
		doc := `<rss><channel><item><title>R&amp;D &nbsp;Lead & Co</title></item></channel></rss>`
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Contains(t, items[0].String("title"), "R&D")
	})

	t.Run("full items recovered by permissive pass", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{name: "bare ampersand", doc: `<rss version="2.0"><channel><item><title>Sales & Marketing Lead</title>` +
				`<link>https://e.com/jobs/1</link><guid>g-1</guid></item></channel></rss>`},
			{name: "unquoted attribute", doc: `<rss version="2.0"><channel><item><title>Sales &amp; Marketing Lead</title>` +
				`<link>https://e.com/jobs/1</link><guid isPermaLink=false>g-1</guid></item></channel></rss>`},
			{name: "quoted value with equals sign", doc: `<rss version="2.0"><channel><item><title>Sales & Marketing Lead</title>` +
				`<link>https://e.com/jobs/1</link><guid>g-1</guid>` +
				`<enclosure url="https://e.com/a.png" title="size w=100"/></item></channel></rss>`},
			{name: "unclosed html in description", doc: `<rss version="2.0"><channel><item><title>Sales & Marketing Lead</title>` +
				`<description>line<br>next</description><link>https://e.com/jobs/1</link><guid>g-1</guid></item></channel></rss>`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, strictErr := decodeTree(Clean(tt.doc), true)
				require.Error(t, strictErr, "document must need the permissive pass")

				items, err := p.ParseItems([]byte(tt.doc))
				require.NoError(t, err)
				require.Len(t, items, 1)
				assert.Equal(t, "Sales & Marketing Lead", items[0].String("title"))
				assert.Equal(t, "https://e.com/jobs/1", items[0].String("link"))
				assert.Equal(t, "g-1", items[0].String("guid"))
			})
		}
	})

	t.Run("unparseable document", func(t *testing.T) {
		_, err := p.ParseItems([]byte("this is not a feed at all"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrParse))
	})

	t.Run("truncated document", func(t *testing.T) {
		_, err := p.ParseItems([]byte(`<rss><channel><item><title`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrParse))
	})
}

func TestParser_AtomAndJSON(t *testing.T) {
	p := NewParser()

	t.Run("atom feed as root array", func(t *testing.T) {
		doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Jobs</title>
	<entry>
		<title>SRE</title>
		<id>urn:job:42</id>
		<link href="https://example.com/jobs/42"/>
		<published>2024-05-01T10:00:00Z</published>
		<summary>Keep things running</summary>
	</entry>
</feed>`
		root, err := p.Parse([]byte(doc))
		require.NoError(t, err)
		assert.True(t, root.List)

		items := ExtractItems(root)
		require.Len(t, items, 1)
		assert.Equal(t, "SRE", items[0].String("title"))
		assert.Equal(t, "urn:job:42", items[0].String("guid"))
		assert.Equal(t, "https://example.com/jobs/42", items[0].String("link"))
		assert.Equal(t, "2024-05-01T10:00:00Z", items[0].String("pubdate"))
		assert.Equal(t, "Keep things running", items[0].String("description"))
	})

	t.Run("json feed as root array", func(t *testing.T) {
		doc := `{"version": "https://jsonfeed.org/version/1.1", "title": "Jobs", "items": [
			{"id": "j-1", "url": "https://example.com/j/1", "title": "Data Engineer", "content_text": "pipelines"},
			{"id": "j-2", "url": "https://example.com/j/2", "title": "Analyst"}
		]}`
		items, err := p.ParseItems([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "j-1", items[0].String("guid"))
		assert.Equal(t, "Data Engineer", items[0].String("title"))
		assert.Equal(t, "https://example.com/j/2", items[1].String("link"))
	})
}

func TestExtractItems(t *testing.T) {
	t.Run("nil root", func(t *testing.T) {
		items := ExtractItems(nil)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("root array", func(t *testing.T) {
		root := &Node{List: true, Children: []*Node{
			{Name: "item", Children: []*Node{{Name: "title", Text: " A "}}},
			{Name: "item", Text: "plain"},
			{Name: "item"},
		}}
		items := ExtractItems(root)
		require.Len(t, items, 2)
		assert.Equal(t, "A", items[0].String("title"))
		assert.Equal(t, "plain", items[1].String(domain.TextKey))
	})
}
