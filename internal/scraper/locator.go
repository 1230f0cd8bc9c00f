package scraper

import "strings"

// Rule is one candidate way to read a field. Attr empty means inner text.
type Rule struct {
	Selector string
	Attr     string
	// Accept optionally rejects values that matched the selector but are not usable.
	Accept func(string) bool
}

// Text builds a text rule for each selector, in order
func Text(selectors ...string) Chain {
	chain := make(Chain, 0, len(selectors))
	for _, s := range selectors {
		chain = append(chain, Rule{Selector: s})
	}
	return chain
}

// Href builds an href rule for each selector, in order
func Href(selectors ...string) Chain {
	chain := make(Chain, 0, len(selectors))
	for _, s := range selectors {
		chain = append(chain, Rule{Selector: s, Attr: "href"})
	}
	return chain
}

// Chain is evaluated left to right; first non-empty value wins.
type Chain []Rule

// Extract runs chain against root and returns the first non-empty trimmed value,
// or "" when every rule misses. Rule errors (missing, detached, timed out) count as misses.
func Extract(root Root, chain Chain) string {
	if root == nil {
		return ""
	}
	for _, rule := range chain {
		if v := rule.read(root); v != "" {
			return v
		}
	}
	return ""
}

func (r Rule) read(root Root) (value string) {
	defer func() {
		// a detached node can panic inside some drivers
		if recover() != nil {
			value = ""
		}
	}()

	var raw string
	var err error
	if r.Attr == "" {
		raw, err = root.Text(r.Selector)
	} else {
		raw, err = root.Attr(r.Selector, r.Attr)
	}
	if err != nil {
		return ""
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if r.Accept != nil && !r.Accept(raw) {
		return ""
	}
	return raw
}
