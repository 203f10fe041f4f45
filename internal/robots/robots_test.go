package robots

import (
	"reflect"
	"strings"
	"testing"
)

const sample = `# robots for example.test
User-agent: *
Disallow: /admin/
Disallow: /private*
Allow: /public
Crawl-delay: 5

User-agent: Googlebot
Disallow: /nogoogle$ # trailing comment
Disallow:

Sitemap: http://example.test/sitemap.xml
Host: example.test
garbage line
`

func parse(s string) (*Result, error) {
	return Parse(strings.NewReader(s))
}

func TestParse(t *testing.T) {
	r, err := parse(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantDisallow := []string{"/admin/", "/private*", "/nogoogle$"}
	if !reflect.DeepEqual(r.DisallowedPaths, wantDisallow) {
		t.Errorf("DisallowedPaths = %v, want %v", r.DisallowedPaths, wantDisallow)
	}
	if !reflect.DeepEqual(r.AllowedPaths, []string{"/public"}) {
		t.Errorf("AllowedPaths = %v", r.AllowedPaths)
	}
	if !reflect.DeepEqual(r.Sitemaps, []string{"http://example.test/sitemap.xml"}) {
		t.Errorf("Sitemaps = %v", r.Sitemaps)
	}
	if r.CrawlDelay != 5 {
		t.Errorf("CrawlDelay = %d, want 5", r.CrawlDelay)
	}
	if r.Host != "example.test" {
		t.Errorf("Host = %q", r.Host)
	}
	if len(r.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2", len(r.Groups))
	}

	star := r.Groups["*"]
	if star == nil || len(star.Disallow) != 2 || star.CrawlDelay != 5 {
		t.Errorf("* group = %+v", star)
	}
	g := r.Groups["googlebot"]
	if g == nil || g.UserAgent != "Googlebot" || len(g.Disallow) != 1 {
		t.Errorf("googlebot group = %+v", g)
	}
}

func TestParse_Empty(t *testing.T) {
	r, err := parse("")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.DisallowedPaths) != 0 || len(r.Groups) != 0 {
		t.Errorf("empty body should parse to empty result, got %+v", r)
	}
}

func TestParse_RulesBeforeUserAgent(t *testing.T) {
	r, err := parse("Disallow: /orphan\n")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.DisallowedPaths, []string{"/orphan"}) {
		t.Errorf("DisallowedPaths = %v", r.DisallowedPaths)
	}
}

func TestParse_CrawlDelayFraction(t *testing.T) {
	r, _ := parse("User-agent: *\nCrawl-delay: 2.5\n")
	if r.CrawlDelay != 2 {
		t.Errorf("CrawlDelay = %d, want 2", r.CrawlDelay)
	}
	r, _ = parse("User-agent: *\nCrawl-delay: soon\n")
	if r.CrawlDelay != 0 {
		t.Errorf("CrawlDelay = %d, want 0", r.CrawlDelay)
	}
}

func TestInterestingPaths(t *testing.T) {
	r, _ := parse(`User-agent: *
Disallow: /
Disallow: /admin/
Disallow: /admin/
Disallow: /backup*
Allow: /admin/
Allow: /static$
`)

	got := r.InterestingPaths()
	want := []string{"/admin/", "/backup", "/static"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InterestingPaths() = %v, want %v", got, want)
	}
}
