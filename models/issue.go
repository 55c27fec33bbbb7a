package models

import (
	"fmt"
	"slices"
	"time"
)

// IssueCategory enum
type IssueCategory string

const (
	Road    IssueCategory = "Road"
	Garbage IssueCategory = "Garbage"
	Light   IssueCategory = "Light"
	Water   IssueCategory = "Water"
	Other   IssueCategory = "Other"
)

// Valid reports whether c is one of the known categories.
func (c IssueCategory) Valid() bool {
	switch c {
	case Road, Garbage, Light, Water, Other:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "Reported"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

// Statuses lists every status in lifecycle order.
var Statuses = []IssueStatus{Reported, InProgress, Resolved}

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus converts a wire value into an IssueStatus.
func ParseStatus(s string) (IssueStatus, error) {
	status := IssueStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Filter selects issues by status. FilterAll matches every issue.
type Filter string

const FilterAll Filter = "All"

// ParseFilter accepts "All" or any status wire value.
func ParseFilter(s string) (Filter, error) {
	if Filter(s) == FilterAll {
		return FilterAll, nil
	}
	status, err := ParseStatus(s)
	if err != nil {
		return "", err
	}
	return Filter(status), nil
}

// Matches reports whether an issue in the given status passes the filter.
func (f Filter) Matches(status IssueStatus) bool {
	return f == FilterAll || IssueStatus(f) == status
}

// Location is a geographic coordinate pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat" binding:"latitude"`
	Lng float64 `bson:"lng" json:"lng" binding:"longitude"`
}

// Issue represents a civic issue reported by a user.
//
// An Issue is a snapshot: the With* methods return a new value and never
// modify the receiver or share its Upvotes backing array.
type Issue struct {
	ID          string        `bson:"_id" json:"id" binding:"required"`
	Title       string        `bson:"title" json:"title" binding:"notblank"`
	Description string        `bson:"description" json:"description" binding:"notblank"`
	Category    IssueCategory `bson:"category" json:"category" binding:"category"`
	Location    Location      `bson:"location" json:"location"`
	Status      IssueStatus   `bson:"status" json:"status" binding:"issuestatus"`
	Upvotes     []string      `bson:"upvotes" json:"upvotes" binding:"unique"`
	CreatedBy   string        `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	ImageURL    *string       `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}

// IssueInput is the data a reporter supplies when creating an issue.
type IssueInput struct {
	Title       string        `json:"title" binding:"notblank,max=200"`
	Description string        `json:"description" binding:"notblank,max=1000"`
	Category    IssueCategory `json:"category" binding:"category"`
	Lat         float64       `json:"lat" binding:"latitude"`
	Lng         float64       `json:"lng" binding:"longitude"`
	ImageURL    *string       `json:"imageUrl,omitempty" binding:"omitempty,url"`
}

// ValidateInput rejects malformed reports before any network call is made.
func ValidateInput(input IssueInput) error {
	return Validate(input)
}

// NewIssue builds the initial snapshot of a freshly reported issue.
func NewIssue(id string, input IssueInput, createdAt time.Time) (Issue, error) {
	if err := ValidateInput(input); err != nil {
		return Issue{}, err
	}
	issue := Issue{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Location:    Location{Lat: input.Lat, Lng: input.Lng},
		Status:      Reported,
		Upvotes:     []string{},
		ImageURL:    input.ImageURL,
		CreatedAt:   createdAt,
	}
	if err := issue.Validate(); err != nil {
		return Issue{}, err
	}
	return issue, nil
}

// Validate checks the rules for a received or constructed issue.
func (i Issue) Validate() error {
	return Validate(i)
}

// Clone returns a copy that shares no mutable state with i.
func (i Issue) Clone() Issue {
	i.Upvotes = slices.Clone(i.Upvotes)
	if i.Upvotes == nil {
		i.Upvotes = []string{}
	}
	if i.ImageURL != nil {
		url := *i.ImageURL
		i.ImageURL = &url
	}
	return i
}

// WithStatus returns a new Issue with the given status.
func (i Issue) WithStatus(status IssueStatus) Issue {
	next := i.Clone()
	next.Status = status
	return next
}

// WithUpvote returns a new Issue with userID appended to its upvotes.
// Callers are responsible for checking HasUpvote first.
func (i Issue) WithUpvote(userID string) Issue {
	next := i.Clone()
	next.Upvotes = append(next.Upvotes, userID)
	return next
}

// HasUpvote reports whether userID already voted for the issue.
func (i Issue) HasUpvote(userID string) bool {
	return slices.Contains(i.Upvotes, userID)
}

// VoteCount is the displayed vote total.
func (i Issue) VoteCount() int {
	return len(i.Upvotes)
}
