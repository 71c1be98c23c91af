// Package github implements the comment store on top of the GitHub Issues
// API. PR comments are issue comments, so every operation goes through the
// Issues service.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// CommentStore talks to the GitHub API on behalf of the reporting bot.
type CommentStore struct {
	client *github.Client
}

// NewCommentStore creates a comment store authenticated with a personal
// access token.
func NewCommentStore(ctx context.Context, token string) *CommentStore {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &CommentStore{client: github.NewClient(tc)}
}

// ListComments returns all comments on a pull request in chronological
// creation order, paging through the API as needed. The reporter relies on
// this ordering to pick the earliest bot comment as the one to update.
func (s *CommentStore) ListComments(ctx context.Context, repo string, prNumber int) ([]models.RemoteComment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	// Issue comments are listed ascending by creation time, which is the
	// ordering the reporter's "earliest comment" rule depends on.
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var comments []models.RemoteComment
	for {
		page, resp, err := s.client.Issues.ListComments(ctx, owner, name, prNumber, opts)
		if err != nil {
			return nil, mapError(resp, err)
		}

		for _, c := range page {
			comments = append(comments, models.RemoteComment{
				ID:     c.GetID(),
				Author: c.GetUser().GetLogin(),
				Body:   c.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// CreateComment posts a new comment on a pull request.
func (s *CommentStore) CreateComment(ctx context.Context, repo string, prNumber int, body string) (models.RemoteComment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return models.RemoteComment{}, err
	}

	created, resp, err := s.client.Issues.CreateComment(ctx, owner, name, prNumber, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return models.RemoteComment{}, mapError(resp, err)
	}

	return models.RemoteComment{
		ID:     created.GetID(),
		Author: created.GetUser().GetLogin(),
		Body:   created.GetBody(),
	}, nil
}

// UpdateComment overwrites an existing comment's body.
func (s *CommentStore) UpdateComment(ctx context.Context, repo string, commentID int64, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, resp, err := s.client.Issues.EditComment(ctx, owner, name, commentID, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return mapError(resp, err)
	}
	return nil
}

// DeleteComment removes a comment.
func (s *CommentStore) DeleteComment(ctx context.Context, repo string, commentID int64) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	resp, err := s.client.Issues.DeleteComment(ctx, owner, name, commentID)
	if err != nil {
		return mapError(resp, err)
	}
	return nil
}

// splitRepo splits an "owner/name" slug.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.InvalidRequest(fmt.Sprintf("invalid repo slug: %q", repo))
	}
	return parts[0], parts[1], nil
}

// mapError translates a GitHub API failure into the service error taxonomy:
// 404 is permanent NOT_FOUND, 401/403 is permanent NOT_AUTHORIZED, anything
// else is a transient NETWORK_ERROR the caller may retry.
func mapError(resp *github.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errors.Wrap(err, errors.ErrCodeNotFound, "GitHub resource not found")
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.NotAuthorized(err)
		}
	}
	return errors.NetworkError(err)
}
