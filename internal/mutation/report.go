package mutation

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Format identifies how a candidate report is parsed.
type Format int

const (
	// FormatJSON reads mutationScore at the top level or nested under metrics.
	FormatJSON Format = iota
	// FormatJSONFlat reads mutationScore at the top level only.
	FormatJSONFlat
	// FormatHTML scrapes a numeric value adjacent to a mutation-score marker.
	FormatHTML
)

// Candidate is one possible report location with its parse strategy.
type Candidate struct {
	Path   string
	Format Format
}

// DefaultCandidates returns the report locations probed, in priority order.
// The first path that exists wins, regardless of whether it parses.
func DefaultCandidates(reportsDir string) []Candidate {
	return []Candidate{
		{Path: filepath.Join(reportsDir, "mutation.json"), Format: FormatJSON},
		{Path: filepath.Join(reportsDir, "stryker.json"), Format: FormatJSONFlat},
		{Path: filepath.Join(reportsDir, "index.html"), Format: FormatHTML},
	}
}

// parsedScore is a parse attempt's result. Anything not ok collapses to 0
// downstream; parsing never surfaces an error to the caller.
type parsedScore struct {
	value float64
	ok    bool
}

func invalidScore() parsedScore        { return parsedScore{} }
func validScore(v float64) parsedScore { return parsedScore{value: v, ok: true} }

type jsonMetrics struct {
	MutationScore *float64 `json:"mutationScore"`
}

type jsonReport struct {
	MutationScore *float64     `json:"mutationScore"`
	Metrics       *jsonMetrics `json:"metrics"`
}

// parseReport extracts a raw score from report bytes according to format.
func parseReport(data []byte, format Format) parsedScore {
	switch format {
	case FormatJSON, FormatJSONFlat:
		var rep jsonReport
		if err := json.Unmarshal(data, &rep); err != nil {
			return invalidScore()
		}
		if rep.MutationScore != nil {
			return validScore(*rep.MutationScore)
		}
		if format == FormatJSON && rep.Metrics != nil && rep.Metrics.MutationScore != nil {
			return validScore(*rep.Metrics.MutationScore)
		}
		return invalidScore()
	case FormatHTML:
		return parseHTMLReport(data)
	default:
		return invalidScore()
	}
}

var scorePattern = regexp.MustCompile(`(?i)mutation[-_ ]?score[^0-9]{0,40}?([0-9]+(?:\.[0-9]+)?)`)

// parseHTMLReport pulls the score out of an HTML report. It prefers an
// element explicitly marked as the mutation score, falling back to a
// best-effort pattern match over the raw document.
func parseHTMLReport(data []byte) parsedScore {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err == nil {
		sel := doc.Find(`[data-mutation-score], [id*="mutation-score"], [class*="mutation-score"]`)
		result := invalidScore()
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if attr, found := s.Attr("data-mutation-score"); found {
				if v, perr := strconv.ParseFloat(attr, 64); perr == nil {
					result = validScore(v)
					return false
				}
			}
			if m := firstNumber(s.Text()); m.ok {
				result = m
				return false
			}
			return true
		})
		if result.ok {
			return result
		}
	}

	if m := scorePattern.FindSubmatch(data); m != nil {
		if v, perr := strconv.ParseFloat(string(m[1]), 64); perr == nil {
			return validScore(v)
		}
	}
	return invalidScore()
}

var numberPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

func firstNumber(text string) parsedScore {
	m := numberPattern.FindString(text)
	if m == "" {
		return invalidScore()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return invalidScore()
	}
	return validScore(v)
}
