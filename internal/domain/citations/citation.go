package citations

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// doiPattern matches the CrossRef DOI syntax. Format validation happens
// before any network resolution is attempted.
var doiPattern = regexp.MustCompile(`(?i)^10.\d{4,9}/[-._;()/:A-Z0-9]+$`)

// Author is one contributor in CrossRef metadata.
type Author struct {
	Family string `json:"family"`
	Given  string `json:"given"`
}

// DateField wraps CrossRef's nested date-parts representation.
type DateField struct {
	DateParts [][]int `json:"date-parts"`
}

// Article is a CrossRef work record, trimmed to the fields the citation
// formatter reads.
type Article struct {
	Authors         []Author   `json:"author"`
	Title           []string   `json:"title"`
	ContainerTitle  []string   `json:"container-title"`
	Issued          *DateField `json:"issued"`
	PublishedPrint  *DateField `json:"published-print"`
	PublishedOnline *DateField `json:"published-online"`
	DOI             string     `json:"DOI"`
	URL             string     `json:"URL,omitempty"`
}

// IsValidDOIFormat checks the DOI syntax without touching the network.
func IsValidDOIFormat(doi string) bool {
	if doi == "" {
		return false
	}
	return doiPattern.MatchString(doi)
}

// FormatAuthorsAPA renders an author list in APA style: "Family, I." parts
// joined with ", & " before the last author, truncated with an ellipsis
// beyond twenty authors.
func FormatAuthorsAPA(authors []Author) string {
	if len(authors) == 0 {
		return "Anonymous"
	}

	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		var initials strings.Builder
		for _, name := range strings.Fields(a.Given) {
			// first rune, not first byte; given names are often non-ASCII
			r, _ := utf8.DecodeRuneInString(name)
			initials.WriteRune(r)
			initials.WriteString(".")
		}
		parts = append(parts, fmt.Sprintf("%s, %s", a.Family, initials.String()))
	}

	switch {
	case len(parts) == 1:
		return parts[0]
	case len(parts) <= 20:
		return strings.Join(parts[:len(parts)-1], ", ") + ", & " + parts[len(parts)-1]
	default:
		return strings.Join(parts[:19], ", ") + ", ... " + parts[len(parts)-1]
	}
}

// Year resolves the publication year, preferring print over online over the
// issued date. Returns "n.d." when no date is present.
func (a *Article) Year() string {
	for _, d := range []*DateField{a.PublishedPrint, a.PublishedOnline, a.Issued} {
		if d == nil {
			continue
		}
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 && d.DateParts[0][0] != 0 {
			return fmt.Sprintf("%d", d.DateParts[0][0])
		}
	}
	return "n.d."
}

// FormatCitation renders an APA citation string for an article.
func FormatCitation(a *Article) string {
	if a == nil {
		return ""
	}

	title := ""
	if len(a.Title) > 0 {
		title = a.Title[0]
	}
	journal := ""
	if len(a.ContainerTitle) > 0 {
		journal = a.ContainerTitle[0]
	}

	citation := fmt.Sprintf("%s (%s). %s", FormatAuthorsAPA(a.Authors), a.Year(), title)
	if journal != "" {
		citation += ". " + journal
	}
	if a.DOI != "" {
		citation += ". https://doi.org/" + a.DOI
	}
	return citation
}

// IsMetadataComplete checks the essential fields against the validation
// strictness: an article passes when it misses at most `strictness` of them.
func IsMetadataComplete(a *Article, strictness int) bool {
	if a == nil {
		return false
	}
	missing := 0
	if len(a.Authors) == 0 {
		missing++
	}
	if len(a.Title) == 0 || a.Title[0] == "" {
		missing++
	}
	if a.Issued == nil || len(a.Issued.DateParts) == 0 {
		missing++
	}
	return missing <= strictness
}
