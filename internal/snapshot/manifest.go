package snapshot

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Manifest describes a recorded site on disk. Paths are relative to the manifest.
//
//	feed_url: https://www.linkedin.com/jobs/search/
//	feed: [feed-0.html, feed-1.html]
//	pages:
//	  https://www.linkedin.com/jobs/view/1: detail-1.html
type Manifest struct {
	FeedURL string            `yaml:"feed_url"`
	Feed    []string          `yaml:"feed"`
	Pages   map[string]string `yaml:"pages"`
	Titles  map[string]string `yaml:"titles"`
}

// LoadManifest reads a manifest file and every HTML file it references
func LoadManifest(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	if m.FeedURL == "" || len(m.Feed) == 0 {
		return nil, errors.Newf("manifest %s needs feed_url and at least one feed stage", path)
	}

	dir := filepath.Dir(path)
	read := func(name string) (string, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", errors.Wrapf(err, "failed to read %s", name)
		}
		return string(b), nil
	}

	site := NewSite(m.FeedURL)
	for _, name := range m.Feed {
		html, err := read(name)
		if err != nil {
			return nil, err
		}
		site.Feed = append(site.Feed, html)
	}
	for url, name := range m.Pages {
		html, err := read(name)
		if err != nil {
			return nil, err
		}
		site.Pages[url] = html
	}
	for url, title := range m.Titles {
		site.Titles[url] = title
	}
	return site, nil
}
