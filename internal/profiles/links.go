package profiles

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// MaxSocialLinks is the number of links a profile may carry.
const MaxSocialLinks = 6

// SocialLink is a profile link classified for display.
type SocialLink struct {
	Platform    string `json:"platform"`
	Label       string `json:"label"`
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

type platform struct {
	name    string
	label   string
	hosts   []string
	bareTag bool // display the username without "@"
}

var platforms = []platform{
	{name: "instagram", label: "Instagram", hosts: []string{"instagram.com"}},
	{name: "twitter", label: "Twitter", hosts: []string{"twitter.com", "x.com"}},
	{name: "tiktok", label: "TikTok", hosts: []string{"tiktok.com"}},
	{name: "pinterest", label: "Pinterest", hosts: []string{"pinterest."}},
	{name: "youtube", label: "YouTube", hosts: []string{"youtube.com", "youtu.be"}, bareTag: true},
	{name: "facebook", label: "Facebook", hosts: []string{"facebook.com"}},
	{name: "reddit", label: "Reddit", hosts: []string{"reddit.com"}},
	{name: "behance", label: "Behance", hosts: []string{"behance.net"}},
	{name: "dribbble", label: "Dribbble", hosts: []string{"dribbble.com"}},
	{name: "artstation", label: "ArtStation", hosts: []string{"artstation.com"}},
	{name: "deviantart", label: "DeviantArt", hosts: []string{"deviantart.com"}},
	{name: "tumblr", label: "Tumblr", hosts: []string{"tumblr.com"}},
	{name: "twitch", label: "Twitch", hosts: []string{"twitch.tv"}},
	{name: "discord", label: "Discord", hosts: []string{"discord.gg", "discord.com"}, bareTag: true},
}

// hostMatches matches a domain or any of its subdomains. A pattern ending in "." matches that
// name under any TLD.
func hostMatches(host, pattern string) bool {
	if strings.HasSuffix(pattern, ".") {
		return strings.HasPrefix(host, pattern) || strings.Contains(host, "."+pattern)
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func parseURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u, true
	}
	u, err = url.Parse("https://" + raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// truncate cuts s to max runes, marking the cut with "..".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-2]) + ".."
}

// ParseSocialLink classifies raw. Blank or unparseable input yields false.
func ParseSocialLink(raw string) (SocialLink, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SocialLink{}, false
	}
	u, ok := parseURL(trimmed)
	if !ok {
		return SocialLink{}, false
	}
	if u.Path == "" {
		u.Path = "/"
	}

	host := strings.ToLower(u.Hostname())
	username := ""
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			username = part
			break
		}
	}

	for _, p := range platforms {
		for _, h := range p.hosts {
			if !hostMatches(host, h) {
				continue
			}
			display := u.Hostname()
			if username != "" {
				display = username
				if !p.bareTag {
					display = "@" + username
				}
			}
			return SocialLink{Platform: p.name, Label: p.label, DisplayText: display, URL: u.String()}, true
		}
	}
	return SocialLink{Platform: "other", Label: u.Hostname(), DisplayText: truncate(u.String(), 32), URL: u.String()}, true
}

// ParseSocialLinks classifies every link, dropping the ones that cannot be parsed.
func ParseSocialLinks(links []string) []SocialLink {
	out := make([]SocialLink, 0, len(links))
	for _, l := range links {
		if sl, ok := ParseSocialLink(l); ok {
			out = append(out, sl)
		}
	}
	return out
}

// NormalizeSocialLinks trims, drops blanks and duplicates, keeping first occurrences.
func NormalizeSocialLinks(links []string) ([]string, error) {
	out := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	if len(out) > MaxSocialLinks {
		return nil, &models.ValidationError{Field: "social_links", Message: fmt.Sprintf("at most %d links", MaxSocialLinks)}
	}
	return out, nil
}
