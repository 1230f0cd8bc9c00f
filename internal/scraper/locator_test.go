package scraper

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRoot answers from fixed maps; a selector in panics panics like a detached node
type fakeRoot struct {
	texts  map[string]string
	attrs  map[string]string
	lists  map[string][]string
	panics map[string]bool
}

var errMissing = errors.New("missing")

func (f fakeRoot) Text(sel string) (string, error) {
	if f.panics[sel] {
		panic("node is detached from document")
	}
	if v, ok := f.texts[sel]; ok {
		return v, nil
	}
	return "", errMissing
}

func (f fakeRoot) Attr(sel, name string) (string, error) {
	if v, ok := f.attrs[sel+"@"+name]; ok {
		return v, nil
	}
	return "", errMissing
}

func (f fakeRoot) Texts(sel string) ([]string, error) {
	if v, ok := f.lists[sel]; ok {
		return v, nil
	}
	return nil, errMissing
}

func TestExtract(t *testing.T) {
	root := fakeRoot{
		texts: map[string]string{
			"h3.blank":                 "   ",
			"h3":                       "  Data Scientist \n",
			"h4.base-search-card__sub": "Acme",
			"h3.boom":                  "never read",
		},
		attrs: map[string]string{
			"a@href":           "https://jobs.example.com/jobs/view/1?trk=x",
			"a.promo@href":     "https://ads.example.com/click",
			"a.full-link@href": "",
		},
		panics: map[string]bool{"h3.boom": true},
	}

	tests := []struct {
		name     string
		chain    Chain
		expected string
	}{
		{name: "First rule wins", chain: Text("h4.base-search-card__sub", "h3"), expected: "Acme"},
		{name: "Falls back past missing and blank", chain: Text("h3.missing", "h3.blank", "h3"), expected: "Data Scientist"},
		{name: "Panic is a miss", chain: Text("h3.boom", "h3"), expected: "Data Scientist"},
		{name: "Attribute rule", chain: Href("a.full-link", "a"), expected: "https://jobs.example.com/jobs/view/1?trk=x"},
		{name: "Accept rejects", chain: Chain{
			{Selector: "a.promo", Attr: "href", Accept: func(v string) bool { return strings.Contains(v, "/jobs/view/") }},
			{Selector: "a", Attr: "href"},
		}, expected: "https://jobs.example.com/jobs/view/1?trk=x"},
		{name: "All fail", chain: Text("h5", "h6"), expected: ""},
		{name: "Empty chain", chain: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extract(root, tt.chain))
		})
	}
}

func TestExtract_NilRoot(t *testing.T) {
	assert.Equal(t, "", Extract(nil, Text("h3")))
}

func TestExtractor_Extract(t *testing.T) {
	root := fakeRoot{
		texts: map[string]string{"h4": "Acme"},
		attrs: map[string]string{"a@href": "/jobs/view/9"},
	}
	e := Extractor{
		Role:     Text("h3.title", "h3"),
		Employer: Text("h4 a", "h4"),
		Link:     Href("a.full-link", "a"),
	}

	assert.Equal(t, Fields{Role: "", Employer: "Acme", Link: "/jobs/view/9"}, e.Extract(root))
}

func TestClassifier_Classify(t *testing.T) {
	c := Classifier{Selectors: []string{".benefit", ".footer li"}, Marker: "Easy Apply"}

	tests := []struct {
		name     string
		root     Root
		expected Channel
	}{
		{name: "Badge in second selector", root: fakeRoot{lists: map[string][]string{
			".footer li": {"Promoted", "  EASY   apply "},
		}}, expected: ChannelInstant},
		{name: "No badge", root: fakeRoot{lists: map[string][]string{
			".benefit": {"Actively recruiting"},
		}}, expected: ChannelUnclassified},
		{name: "Selectors all miss", root: fakeRoot{}, expected: ChannelUnclassified},
		{name: "Nil root", root: nil, expected: ChannelUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.root))
		})
	}
}

func TestClassifier_EmptyMarkerNeverMatches(t *testing.T) {
	root := fakeRoot{lists: map[string][]string{".benefit": {"anything"}}}
	assert.Equal(t, ChannelUnclassified, Classifier{Selectors: []string{".benefit"}}.Classify(root))
}
