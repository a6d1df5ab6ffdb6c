package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shoesync/backend/internal/domain"
)

// detailResponse mirrors the product detail payload.
type detailResponse struct {
	Code        int    `json:"code"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Image       string `json:"image"`
	AgeCategory string `json:"ageCategory"`
	Gender      string `json:"gender"`
	ReleaseYear int    `json:"releaseYear"`
	Usage       string `json:"usage"`
	Pronation   string `json:"pronation"`
	Article     string `json:"article"`
	Season      string `json:"season"`
	Price       int    `json:"price"`
}

// availabilityResponse mirrors the per-outlet availability payload.
type availabilityResponse struct {
	Outlets map[string][]sizeEntry `json:"outlets"`
}

// sizeEntry accepts sizes as JSON numbers or strings ("10.5", "10,5") and
// normalizes them to float64 once, at the adapter boundary. All later
// set logic compares the numeric value only.
type sizeEntry struct {
	Size  float64
	Count int
}

func (e *sizeEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Size  json.RawMessage `json:"size"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	size, err := parseSize(raw.Size)
	if err != nil {
		return err
	}
	e.Size = size
	e.Count = raw.Count
	return nil
}

func parseSize(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	text = strings.ReplaceAll(text, ",", ".")
	if text == "" {
		return 0, fmt.Errorf("empty size value")
	}
	size, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("size %q: %w", string(raw), err)
	}
	return size, nil
}

func mapProduct(url string, d detailResponse) domain.Product {
	return domain.Product{
		Code:        d.Code,
		Brand:       d.Brand,
		Model:       d.Model,
		URL:         url,
		Image:       d.Image,
		AgeCategory: d.AgeCategory,
		Gender:      d.Gender,
		ReleaseYear: d.ReleaseYear,
		Usage:       d.Usage,
		Pronation:   d.Pronation,
		Article:     d.Article,
		Season:      d.Season,
	}
}

func mapOutlets(a availabilityResponse) map[string][]domain.SizeCount {
	outlets := make(map[string][]domain.SizeCount, len(a.Outlets))
	for outlet, entries := range a.Outlets {
		sizes := make([]domain.SizeCount, 0, len(entries))
		for _, e := range entries {
			sizes = append(sizes, domain.SizeCount{Size: e.Size, Count: e.Count})
		}
		outlets[outlet] = sizes
	}
	return outlets
}

// LocalID extracts the shop-local numeric id from a product identifier URL.
// Identifiers look like https://shop.example/catalog/product/3094643/; the
// local id is the path segment after "product".
func LocalID(identifier string) (int, error) {
	segments := strings.Split(strings.Trim(identifier, "/"), "/")
	for i, seg := range segments {
		if seg != "product" || i+1 >= len(segments) {
			continue
		}
		id, err := strconv.Atoi(segments[i+1])
		if err != nil || id <= 0 {
			break
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: no local id in identifier %q", domain.ErrInvalidArgument, identifier)
}
