// Package repository persists issues and accounts in MongoDB for the
// authority server.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"civicsync/models"
)

const issuesCollection = "issues"

// IssueRepository stores issues with their upvotes embedded, so a vote is a
// single atomic document update.
type IssueRepository struct {
	coll *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{coll: db.Collection(issuesCollection)}
}

// EnsureIndexes creates the indexes List relies on.
func (r *IssueRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create issue indexes: %w", err)
	}
	return nil
}

// List returns the issues matching filter, newest first.
func (r *IssueRepository) List(ctx context.Context, filter models.Filter) ([]models.Issue, error) {
	query := bson.M{}
	if filter != models.FilterAll {
		query["status"] = string(filter)
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	for i := range issues {
		if issues[i].Upvotes == nil {
			issues[i].Upvotes = []string{}
		}
	}
	return issues, nil
}

func (r *IssueRepository) Create(ctx context.Context, issue models.Issue) error {
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert issue %s: %w", issue.ID, models.ErrConflict)
		}
		return fmt.Errorf("insert issue %s: %w", issue.ID, err)
	}
	return nil
}

// AddUpvote records userID's vote on the issue and returns the updated
// record. A second vote by the same user is ErrAlreadyVoted.
func (r *IssueRepository) AddUpvote(ctx context.Context, id, userID string) (models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "upvotes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"upvotes": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Issue{}, fmt.Errorf("upvote issue %s: %w", id, err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return models.Issue{}, fmt.Errorf("upvote issue %s: %w", id, err)
	}
	if n == 0 {
		return models.Issue{}, fmt.Errorf("upvote issue %s: %w", id, models.ErrNotFound)
	}
	return models.Issue{}, fmt.Errorf("upvote issue %s: %w", id, models.ErrAlreadyVoted)
}

// SetStatus moves the issue to status and returns the updated record.
func (r *IssueRepository) SetStatus(ctx context.Context, id string, status models.IssueStatus) (models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Issue{}, fmt.Errorf("set status %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("set status %s: %w", id, err)
	}
	return issue, nil
}
