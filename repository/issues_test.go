package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"civicsync/models"
)

func issueDoc(id string, status models.IssueStatus, upvotes ...string) bson.D {
	if upvotes == nil {
		upvotes = []string{}
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Pothole " + id},
		{Key: "description", Value: "Large pothole"},
		{Key: "category", Value: "Road"},
		{Key: "location", Value: bson.D{{Key: "lat", Value: 19.076}, {Key: "lng", Value: 72.8777}}},
		{Key: "status", Value: string(status)},
		{Key: "upvotes", Value: upvotes},
		{Key: "createdAt", Value: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
}

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestIssueRepository_List(t *testing.T) {
	mt := newMock(t)

	mt.Run("decodes documents", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			issueDoc("b", models.Resolved, "u1"),
			issueDoc("a", models.Reported),
		))

		issues, err := repo.List(context.Background(), models.FilterAll)

		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(issues) != 2 || issues[0].ID != "b" || issues[1].ID != "a" {
			mt.Fatalf("unexpected issues %+v", issues)
		}
		if issues[0].Status != models.Resolved || issues[0].VoteCount() != 1 {
			mt.Errorf("unexpected first issue %+v", issues[0])
		}
		if err := issues[1].Validate(); err != nil {
			mt.Errorf("decoded issue invalid: %v", err)
		}
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		issues, err := repo.List(context.Background(), models.Filter(models.Reported))

		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if issues == nil || len(issues) != 0 {
			mt.Errorf("expected empty non-nil slice, got %#v", issues)
		}
	})
}

func TestIssueRepository_AddUpvote(t *testing.T) {
	mt := newMock(t)

	mt.Run("first vote", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: issueDoc("a", models.Reported, "u1")},
		))

		issue, err := repo.AddUpvote(context.Background(), "a", "u1")

		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if !issue.HasUpvote("u1") {
			mt.Errorf("expected vote recorded, got %v", issue.Upvotes)
		}
	})

	mt.Run("repeat vote", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		_, err := repo.AddUpvote(context.Background(), "a", "u1")

		if !errors.Is(err, models.ErrAlreadyVoted) {
			mt.Errorf("expected ErrAlreadyVoted, got %v", err)
		}
	})

	mt.Run("unknown issue", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.AddUpvote(context.Background(), "missing", "u1")

		if !errors.Is(err, models.ErrNotFound) {
			mt.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIssueRepository_SetStatus(t *testing.T) {
	mt := newMock(t)

	mt.Run("updated", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: issueDoc("a", models.InProgress)},
		))

		issue, err := repo.SetStatus(context.Background(), "a", models.InProgress)

		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if issue.Status != models.InProgress {
			mt.Errorf("expected In Progress, got %q", issue.Status)
		}
	})

	mt.Run("unknown issue", func(mt *mtest.T) {
		repo := &IssueRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.SetStatus(context.Background(), "missing", models.Resolved)

		if !errors.Is(err, models.ErrNotFound) {
			mt.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), models.User{ID: "u1", Username: "ana", Role: models.RoleCitizen})

		if !errors.Is(err, models.ErrConflict) {
			mt.Errorf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("find by username", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "username", Value: "ana"},
			{Key: "password", Value: "hash"},
			{Key: "role", Value: "admin"},
		}))

		user, err := repo.FindByUsername(context.Background(), "ana")

		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if user.ID != "u1" || user.Role != models.RoleAdmin || user.Password != "hash" {
			mt.Errorf("unexpected user %+v", user)
		}
	})

	mt.Run("unknown username", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByUsername(context.Background(), "nobody")

		if !errors.Is(err, models.ErrNotFound) {
			mt.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
