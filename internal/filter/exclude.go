package filter

import "strings"

// Excluder drops listings whose role or employer mentions an excluded keyword
type Excluder struct {
	keywords []string
}

func NewExcluder(keywords []string) *Excluder {
	ex := &Excluder{}
	for _, k := range keywords {
		if k = Normalize(k); k != "" {
			ex.keywords = append(ex.keywords, k)
		}
	}
	return ex
}

// Match returns the first excluded keyword found in fields, or ""
func (e *Excluder) Match(fields ...string) string {
	if e == nil || len(e.keywords) == 0 {
		return ""
	}
	text := Normalize(strings.Join(fields, " "))
	for _, k := range e.keywords {
		if strings.Contains(text, k) {
			return k
		}
	}
	return ""
}
