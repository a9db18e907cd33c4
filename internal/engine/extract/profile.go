// Package extract reads profile fields out of a rendered LinkedIn profile page.
// The page layout changes often; every field is best effort and a missing
// section leaves the field empty.
package extract

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	nameSelector     = "main h1, h1.text-heading-xlarge, h1"
	headlineSelector = "main .text-body-medium.break-words, .pv-text-details__left-panel .text-body-medium"
	itemSelector     = "li.artdeco-list__item, li.pvs-list__paged-list-item"
	visibleText      = `span[aria-hidden="true"]`
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Profile parses a rendered profile page into a record. The record's URL is
// left empty. A page without a name yields a record with an empty Name.
func Profile(page string) (*models.ProfileRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	Clean(doc)

	rec := &models.ProfileRecord{
		Name:       name(doc),
		Headline:   text(doc.Find(headlineSelector).First()),
		About:      about(doc),
		Experience: experience(doc),
		Skills:     skills(doc),
		Education:  education(doc),
	}

	log.Debug().
		Str("name", rec.Name).
		Int("experience", len(rec.Experience)).
		Int("skills", len(rec.Skills)).
		Int("education", len(rec.Education)).
		Msg("Extracted profile fields")

	return rec, nil
}

func name(doc *goquery.Document) string {
	if n := text(doc.Find(nameSelector).First()); n != "" {
		return n
	}
	// Public profile pages carry the name in og:title as "Name - Headline | LinkedIn"
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		og = strings.TrimSuffix(strings.TrimSpace(og), "| LinkedIn")
		if i := strings.Index(og, " - "); i > 0 {
			og = og[:i]
		}
		return strings.TrimSpace(og)
	}
	return ""
}

// section finds the profile card anchored by id (about, experience, skills, education)
func section(doc *goquery.Document, id string) *goquery.Selection {
	sel := doc.Find("section:has(#" + id + ")").First()
	if sel.Length() == 0 {
		sel = doc.Find("section#" + id + ", section." + id).First()
	}
	return sel
}

func about(doc *goquery.Document) string {
	sec := section(doc, "about")
	if sec.Length() == 0 {
		return ""
	}
	body := sec.Find(".inline-show-more-text " + visibleText).First()
	if body.Length() == 0 {
		body = sec.Find(visibleText).Last()
	}
	if body.Length() == 0 {
		return ""
	}

	frag, err := sanitizeFragment(body)
	if err != nil {
		return text(body)
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	out, err := converter.ConvertString(frag)
	if err != nil {
		log.Debug().Err(err).Msg("Markdown conversion failed, using plain text")
		return text(body)
	}
	out = blankLines.ReplaceAllString(strings.TrimSpace(out), "\n\n")
	return out
}

// experience reads positions. Several roles at one company are listed as one
// item whose nested list holds the role titles.
func experience(doc *goquery.Document) []models.Experience {
	var out []models.Experience
	sec := section(doc, "experience")
	sec.Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		if item.ParentsFiltered(itemSelector).Length() > 0 {
			return
		}
		nested := item.Find(itemSelector)
		if nested.Length() > 0 {
			company := firstText(item, ".t-bold")
			nested.Each(func(j int, role *goquery.Selection) {
				if title := firstText(role, ".t-bold"); title != "" {
					out = append(out, models.Experience{Title: title, Company: company})
				}
			})
			return
		}
		title := firstText(item, ".t-bold")
		company := companyName(firstText(item, ".t-normal:not(.t-black--light)"))
		if title != "" || company != "" {
			out = append(out, models.Experience{Title: title, Company: company})
		}
	})
	return out
}

// companyName drops the employment type LinkedIn appends ("Acme · Full-time")
func companyName(s string) string {
	if i := strings.Index(s, " · "); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func skills(doc *goquery.Document) []string {
	var out []string
	seen := map[string]bool{}
	section(doc, "skills").Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		if item.ParentsFiltered(itemSelector).Length() > 0 {
			return
		}
		s := firstText(item, ".t-bold")
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	})
	return out
}

func education(doc *goquery.Document) []string {
	var out []string
	section(doc, "education").Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		if item.ParentsFiltered(itemSelector).Length() > 0 {
			return
		}
		school := firstText(item, ".t-bold")
		if school == "" {
			return
		}
		if degree := firstText(item, ".t-normal:not(.t-black--light)"); degree != "" {
			school += ", " + degree
		}
		out = append(out, school)
	})
	return out
}

// firstText returns the visible text of the first match of sel inside item
func firstText(item *goquery.Selection, sel string) string {
	match := item.Find(sel).First()
	if v := match.Find(visibleText).First(); v.Length() > 0 {
		return text(v)
	}
	return text(match)
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
