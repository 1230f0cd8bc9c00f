package scraper

// Fields holds the raw values read from one record root
type Fields struct {
	Role     string
	Employer string
	Link     string
}

// Extractor resolves each logical field through its own fallback chain
type Extractor struct {
	Role     Chain
	Employer Chain
	Link     Chain
}

func (e Extractor) Extract(root Root) Fields {
	return Fields{
		Role:     Extract(root, e.Role),
		Employer: Extract(root, e.Employer),
		Link:     Extract(root, e.Link),
	}
}
