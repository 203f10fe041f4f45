// Package robots parses robots.txt bodies.
package robots

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Result contains parsed robots.txt data.
type Result struct {
	AllowedPaths    []string
	DisallowedPaths []string
	Sitemaps        []string
	CrawlDelay      int
	Host            string
	Groups          map[string]*Rules
}

// Rules contains rules for a specific user agent.
type Rules struct {
	UserAgent  string
	Allow      []string
	Disallow   []string
	CrawlDelay int
}

// Parse reads robots.txt content. Unknown directives and malformed lines are
// skipped.
func Parse(r io.Reader) (*Result, error) {
	result := &Result{
		AllowedPaths:    make([]string, 0),
		DisallowedPaths: make([]string, 0),
		Sitemaps:        make([]string, 0),
		Groups:          make(map[string]*Rules),
	}

	scanner := bufio.NewScanner(r)
	var current *Rules

	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch directive {
		case "user-agent":
			key := strings.ToLower(value)
			if rules, ok := result.Groups[key]; ok {
				current = rules
			} else {
				current = &Rules{UserAgent: value}
				result.Groups[key] = current
			}

		case "disallow":
			if value != "" {
				result.DisallowedPaths = append(result.DisallowedPaths, value)
				if current != nil {
					current.Disallow = append(current.Disallow, value)
				}
			}

		case "allow":
			if value != "" {
				result.AllowedPaths = append(result.AllowedPaths, value)
				if current != nil {
					current.Allow = append(current.Allow, value)
				}
			}

		case "sitemap":
			if value != "" {
				result.Sitemaps = append(result.Sitemaps, value)
			}

		case "host":
			result.Host = value

		case "crawl-delay":
			if delay, err := strconv.Atoi(leadingDigits(value)); err == nil {
				result.CrawlDelay = delay
				if current != nil {
					current.CrawlDelay = delay
				}
			}
		}
	}

	return result, scanner.Err()
}

// InterestingPaths returns the distinct disallowed then allowed paths, with
// wildcard suffixes trimmed and the site root left out.
func (r *Result) InterestingPaths() []string {
	interesting := make([]string, 0)
	seen := make(map[string]bool)

	add := func(paths []string) {
		for _, p := range paths {
			p = strings.TrimSuffix(p, "$")
			p = strings.TrimSuffix(p, "*")
			if p == "" || p == "/" || seen[p] {
				continue
			}
			seen[p] = true
			interesting = append(interesting, p)
		}
	}

	add(r.DisallowedPaths)
	add(r.AllowedPaths)
	return interesting
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
