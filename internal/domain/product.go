package domain

import "time"

// Product represents one catalog item as first observed on the remote site.
// Descriptive fields are written once at insert time; only Rating (and the
// row timestamp) are ever rewritten by the sync engine.
type Product struct {
	Code        int       `json:"code"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	URL         string    `json:"url"`
	Image       string    `json:"image,omitempty"`
	AgeCategory string    `json:"ageCategory,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	ReleaseYear int       `json:"releaseYear,omitempty"`
	Usage       string    `json:"usage,omitempty"`
	Pronation   string    `json:"pronation,omitempty"`
	Article     string    `json:"article,omitempty"`
	Season      string    `json:"season,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Rating      int       `json:"rating"`
}

// CodeURL pairs a product code with its listing identifier URL.
type CodeURL struct {
	Code int
	URL  string
}

// CodeLocalID pairs a product code with the shop-local id derived from its
// identifier URL. Stock lookups are keyed by this pair.
type CodeLocalID struct {
	Code    int
	LocalID int
}
