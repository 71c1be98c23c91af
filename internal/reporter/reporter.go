// Package reporter keeps exactly one up-to-date bundle-size report comment
// per pull request. One push drives one synchronization pass: fetch the
// push, check eligibility, render the report, then reconcile it against the
// comments already on the PR.
package reporter

import (
	"context"
	"strings"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/logger"
	"github.com/icfy/sizebot/internal/models"
	"github.com/icfy/sizebot/internal/report"
)

// DeltaProvider supplies the raw per-chunk-group comparison between two
// builds. Missing build data for either commit is a NOT_FOUND error.
type DeltaProvider interface {
	GetPushDelta(ctx context.Context, first, second string, opts models.DeltaOptions) (*models.Delta, error)
}

// PushStore looks up recorded pushes. A missing push is a NOT_FOUND error.
type PushStore interface {
	GetPush(ctx context.Context, sha string) (*models.Push, error)
}

// CommentStore owns the remote comments on a pull request. ListComments is
// assumed to return comments in chronological creation order; "earliest
// discovered" in the synchronizer means the first element it returns.
type CommentStore interface {
	ListComments(ctx context.Context, repo string, prNumber int) ([]models.RemoteComment, error)
	CreateComment(ctx context.Context, repo string, prNumber int, body string) (models.RemoteComment, error)
	UpdateComment(ctx context.Context, repo string, commentID int64, body string) error
	DeleteComment(ctx context.Context, repo string, commentID int64) error
}

// PRResolver derives the pull-request number a push belongs to. The second
// return value is false when no PR number can be derived.
type PRResolver interface {
	Resolve(push *models.Push) (int, bool)
}

// Reporter is the comment synchronizer. It holds no mutable state between
// passes; concurrent passes for the same PR can race between list and
// create, producing a duplicate that the next pass prunes.
type Reporter struct {
	repo     config.GitHubConfig
	cfg      config.ReportConfig
	renderer *report.Renderer
	pushes   PushStore
	deltas   DeltaProvider
	comments CommentStore
	resolver PRResolver
	log      *logger.Logger
}

// New creates a reporter wired to its collaborators.
func New(
	ghCfg config.GitHubConfig,
	reportCfg config.ReportConfig,
	pushes PushStore,
	deltas DeltaProvider,
	comments CommentStore,
	resolver PRResolver,
	log *logger.Logger,
) *Reporter {
	return &Reporter{
		repo:     ghCfg,
		cfg:      reportCfg,
		renderer: report.NewRenderer(reportCfg),
		pushes:   pushes,
		deltas:   deltas,
		comments: comments,
		resolver: resolver,
		log:      log,
	}
}

// ReportOnPush runs one synchronization pass for the given commit. It is
// idempotent: repeated invocations with no underlying data change converge
// to exactly one bot comment on the PR. Ineligible pushes (trunk branch, no
// ancestor, unknown sha) are skipped with a log line and a nil error;
// collaborator failures propagate to the caller unchanged.
func (r *Reporter) ReportOnPush(ctx context.Context, sha string) error {
	push, err := r.pushes.GetPush(ctx, sha)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			r.log.Infof("Cannot find push to comment on: %s", sha)
			return nil
		}
		return err
	}

	if r.isTrunk(push.Branch) || push.Ancestor == "" {
		r.log.Infof("Push not eligible for comment: %s", sha)
		return nil
	}

	prNumber, ok := r.resolver.Resolve(push)
	if !ok {
		// Known degraded path: keep going with a zero PR target and let
		// the comment store reject it.
		r.log.Warnf("Cannot find a PR number on the push: %s %q", push.Sha, push.Message)
	}

	r.log.Infof("Commenting on PR %d", prNumber)

	ownComments, err := r.ownCommentIDs(ctx, prNumber)
	if err != nil {
		return err
	}

	delta, err := r.deltas.GetPushDelta(ctx, push.Ancestor, push.Sha, models.DeltaOptions{ExtractManifestGroup: true})
	if err != nil {
		return err
	}

	message := r.renderer.Render(delta)

	if len(ownComments) == 0 {
		r.log.Infof("Posting first comment on PR %d", prNumber)
		if _, err := r.comments.CreateComment(ctx, r.repo.Repo, prNumber, message); err != nil {
			return err
		}
	} else {
		r.log.Infof("Updating existing comment %d on PR %d", ownComments[0], prNumber)
		if err := r.comments.UpdateComment(ctx, r.repo.Repo, ownComments[0], message); err != nil {
			return err
		}

		for _, commentID := range ownComments[1:] {
			r.log.Infof("Removing outdated comment %d on PR %d", commentID, prNumber)
			if err := r.comments.DeleteComment(ctx, r.repo.Repo, commentID); err != nil {
				return err
			}
		}
	}

	r.log.Infof("Commented on PR %d", prNumber)
	return nil
}

// ownCommentIDs lists the PR's comments and keeps the IDs of those owned by
// the bot: authored under the bot login and carrying the current watermark.
func (r *Reporter) ownCommentIDs(ctx context.Context, prNumber int) ([]int64, error) {
	comments, err := r.comments.ListComments(ctx, r.repo.Repo, prNumber)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, c := range comments {
		if c.Author == r.cfg.BotLogin && strings.Contains(c.Body, r.renderer.WatermarkString()) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r *Reporter) isTrunk(branch string) bool {
	for _, trunk := range r.cfg.TrunkBranches {
		if branch == trunk {
			return true
		}
	}
	return false
}
