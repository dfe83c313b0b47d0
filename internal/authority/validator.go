// Package authority inspects raw page markup for author trust signals.
package authority

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"AEOAuditor/internal/domain"
)

// Bonus weights per signal; the sum is domain.MaxAuthorityBonus.
const (
	ProfileLinkPoints = 20
	BylinePoints      = 10
	BioLinkPoints     = 10
)

var (
	profilePattern = regexp.MustCompile(`(?i)linkedin\.com/in/`)
	bylinePattern  = regexp.MustCompile(`(?i)author|byline|writer|entry-author`)
	bioPattern     = regexp.MustCompile(`(?i)about|author`)
)

// Validate never fails: unparseable markup yields all-false signals.
func Validate(rawMarkup string) domain.AuthoritySignals {
	var signals domain.AuthoritySignals
	if strings.TrimSpace(rawMarkup) == "" {
		return signals
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return signals
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if profilePattern.MatchString(href) {
			signals.HasProfileLink = true
		}
		if bioPattern.MatchString(linkPath(href)) {
			signals.HasBioLink = true
		}
		return !(signals.HasProfileLink && signals.HasBioLink)
	})

	doc.Find("[class], [id]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		if bylinePattern.MatchString(class) || bylinePattern.MatchString(id) {
			signals.HasByline = true
			return false
		}
		return true
	})

	if signals.HasProfileLink {
		signals.BonusPoints += ProfileLinkPoints
	}
	if signals.HasByline {
		signals.BonusPoints += BylinePoints
	}
	if signals.HasBioLink {
		signals.BonusPoints += BioLinkPoints
	}
	return signals
}

// linkPath keeps only the URL path so hosts like "aboutus.example" and
// mailto:/tel: targets do not count.
func linkPath(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Opaque != "" {
		return ""
	}
	return u.Path
}
