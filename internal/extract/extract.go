package extract

import (
	"fmt"
	"path"
	"strings"

	"github.com/nao1215/refcrawl/internal/crawler"
)

// Substitution replaces From with To in an example name.
type Substitution struct {
	From string
	To   string
}

// Rule describes where examples live on a page and how they are named.
type Rule struct {
	// SourceXPath locates the example source code.
	SourceXPath string

	// OutputXPath locates the output printed by the example.
	OutputXPath string

	// NamePrefix is prepended to every example name.
	NamePrefix string

	// Extension is appended to the example name to form the file name.
	Extension string

	// Substitutions are applied in order to the URL base name.
	Substitutions []Substitution
}

// DefaultRule returns the rule for the cplusplus.com std::string reference.
// Operator names are rewritten because they are not valid CMake target names.
func DefaultRule() Rule {
	return Rule{
		SourceXPath: "//td[@class='source']",
		OutputXPath: "//td[@class='output']",
		NamePrefix:  "string_",
		Extension:   ".cpp.in",
		Substitutions: []Substitution{
			{From: "operator+=", To: "operator_plusequal"},
			{From: "operator+", To: "operator_plus"},
			{From: "operator=", To: "operator_equal"},
			{From: "operator[]", To: "operator_squarebrackets"},
		},
	}
}

// Name returns the example name for pageURL: the last path segment,
// ignoring trailing slashes, with the substitutions applied and the prefix
// prepended.
func (r Rule) Name(pageURL string) string {
	base := path.Base(strings.TrimRight(pageURL, "/"))
	for _, sub := range r.Substitutions {
		base = strings.ReplaceAll(base, sub.From, sub.To)
	}
	return r.NamePrefix + base
}

// Page is the part of a crawled page the extractor reads.
// *crawler.Page implements it.
type Page interface {
	URL() string
	XPath(expr string) ([]*crawler.Element, error)
}

// Example is a source and output pair found on a page.
type Example struct {
	URL    string
	Name   string
	Source string
	Output string
}

// Render returns the example file contents.
func (e *Example) Render() string {
	lines := []string{
		"[URL]", e.URL, "",
		"[Source]", e.Source, "",
		"[Output]", e.Output,
	}
	return strings.Join(lines, "\n")
}

// Extractor finds examples on pages according to a Rule.
type Extractor struct {
	rule Rule
}

// NewExtractor creates an Extractor for rule.
func NewExtractor(rule Rule) *Extractor {
	return &Extractor{rule: rule}
}

// Rule returns the extraction rule.
func (x *Extractor) Rule() Rule {
	return x.rule
}

// Extract returns the example on page, or nil if the page has none.
func (x *Extractor) Extract(page Page) (*Example, error) {
	source, err := x.single(page, x.rule.SourceXPath)
	if err != nil {
		return nil, err
	}
	output, err := x.single(page, x.rule.OutputXPath)
	if err != nil {
		return nil, err
	}

	if source == nil || output == nil {
		return nil, nil
	}

	return &Example{
		URL:    page.URL(),
		Name:   x.rule.Name(page.URL()),
		Source: source.Text(),
		Output: output.Text(),
	}, nil
}

// single returns the only element matching expr, or nil when none does.
func (x *Extractor) single(page Page, expr string) (*crawler.Element, error) {
	elements, err := page.XPath(expr)
	if err != nil {
		return nil, err
	}

	switch len(elements) {
	case 0:
		return nil, nil
	case 1:
		return elements[0], nil
	default:
		return nil, fmt.Errorf("%s on %s: %d matches: %w", expr, page.URL(), len(elements), ErrAmbiguousMatch)
	}
}
