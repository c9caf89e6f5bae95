package models

// Site holds the branding shown in the client header.
type Site struct {
	Title   string `yaml:"title" json:"title"`
	Tagline string `yaml:"tagline" json:"tagline"`
	Logo    string `yaml:"logo" json:"logo"`
}

// CustomLink is an extra sidebar footer link.
type CustomLink struct {
	URL      string `yaml:"url" json:"url"`
	Title    string `yaml:"title" json:"title"`
	External bool   `yaml:"external" json:"external"`
}

// Links holds the sidebar footer links.
type Links struct {
	GitHub string       `yaml:"github" json:"github,omitempty"`
	Custom []CustomLink `yaml:"custom" json:"custom,omitempty"`
}

// SiteConfig is the public subset of configuration exposed to the client.
type SiteConfig struct {
	Site  Site  `json:"site"`
	Links Links `json:"links"`
}
