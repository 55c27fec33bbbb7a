// Package ledger enforces at most one upvote per user on an issue.
package ledger

import (
	"civicsync/models"
)

// AddVote returns a new snapshot of issue carrying userID's vote.
// A repeated vote fails with ErrAlreadyVoted and leaves issue untouched.
func AddVote(issue models.Issue, userID string) (models.Issue, error) {
	if userID == "" {
		return issue, models.ErrUnauthenticated
	}
	if issue.HasUpvote(userID) {
		return issue, models.ErrAlreadyVoted
	}
	return issue.WithUpvote(userID), nil
}

// HasVoted reports whether userID has already voted on issue.
func HasVoted(issue models.Issue, userID string) bool {
	return userID != "" && issue.HasUpvote(userID)
}

// Count is the number of votes shown for issue.
func Count(issue models.Issue) int {
	return issue.VoteCount()
}
