// Package domain contains the core data types for the Trip Vote API.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "time"

// InitialRating is the rating every trip starts with.
const InitialRating = 1

// Trip is a submitted trip together with its vote counter.
// JSON holds the payload exactly as the client sent it; it is never rewritten,
// so rating changes are only visible through Rating.
type Trip struct {
	ID       int64
	Title    string
	Username *string // nil when the payload had no "username"
	Author   *string // taken from the payload's "name"
	JSON     string
	Rating   int
	Date     time.Time
}

// Summary is the reduced projection of a Trip used in listings.
// Author marshals as null when the trip was submitted without a name.
type Summary struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Rating int     `json:"rating"`
	Author *string `json:"author"`
}

// Summary returns the listing projection of t.
func (t Trip) Summary() Summary {
	return Summary{ID: t.ID, Title: t.Title, Rating: t.Rating, Author: t.Author}
}
