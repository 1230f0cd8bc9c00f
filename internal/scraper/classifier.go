package scraper

import (
	"strings"

	"go-jobfeed-crawler/internal/filter"
)

// Classifier tags a root as instant when any badge text contains Marker
type Classifier struct {
	Selectors []string
	Marker    string
}

func (c Classifier) Classify(root Root) Channel {
	marker := filter.Normalize(c.Marker)
	if marker == "" || root == nil {
		return ChannelUnclassified
	}
	for _, sel := range c.Selectors {
		texts, err := root.Texts(sel)
		if err != nil {
			continue
		}
		for _, t := range texts {
			if strings.Contains(filter.Normalize(t), marker) {
				return ChannelInstant
			}
		}
	}
	return ChannelUnclassified
}
