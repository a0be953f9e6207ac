package models

import "strings"

// Business is a Yelp business as returned by the chat or business details APIs.
type Business struct {
	ID          string      `json:"id"`
	Alias       string      `json:"alias,omitempty"`
	Name        string      `json:"name"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Price       string      `json:"price,omitempty"`
	Categories  []Category  `json:"categories"`
	URL         string      `json:"url"`
	ImageURL    string      `json:"image_url,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Location    Location    `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
}

type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

type Location struct {
	Address1       string   `json:"address1,omitempty"`
	City           string   `json:"city,omitempty"`
	ZipCode        string   `json:"zip_code,omitempty"`
	Country        string   `json:"country,omitempty"`
	DisplayAddress []string `json:"display_address,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Review is a single Yelp review excerpt.
type Review struct {
	ID          string     `json:"id,omitempty"`
	Rating      int        `json:"rating"`
	Text        string     `json:"text"`
	TimeCreated string     `json:"time_created"`
	URL         string     `json:"url,omitempty"`
	User        ReviewUser `json:"user"`
}

type ReviewUser struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// ReviewMap maps a business id to the reviews fetched for it.
type ReviewMap map[string][]Review

// Total returns the number of reviews across all businesses.
func (m ReviewMap) Total() int {
	n := 0
	for _, reviews := range m {
		n += len(reviews)
	}
	return n
}

// BusinessSummary is the compact view of a business embedded in prompts.
type BusinessSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Price       string  `json:"price"`
	Categories  string  `json:"categories"`
	URL         string  `json:"url"`
}

// Summarize flattens a business into its prompt summary.
func (b Business) Summarize() BusinessSummary {
	titles := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		titles = append(titles, c.Title)
	}

	return BusinessSummary{
		ID:          b.ID,
		Name:        b.Name,
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
		Price:       b.Price,
		Categories:  strings.Join(titles, ", "),
		URL:         b.URL,
	}
}
