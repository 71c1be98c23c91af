package reporter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/logger"
	"github.com/icfy/sizebot/internal/models"
)

type fakePushStore struct {
	pushes map[string]*models.Push
}

func (f *fakePushStore) GetPush(_ context.Context, sha string) (*models.Push, error) {
	push, ok := f.pushes[sha]
	if !ok {
		return nil, errors.NotFound("push not found: " + sha)
	}
	return push, nil
}

type fakeDeltaProvider struct {
	delta *models.Delta
	err   error
	calls int
}

func (f *fakeDeltaProvider) GetPushDelta(_ context.Context, first, second string, opts models.DeltaOptions) (*models.Delta, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.delta, nil
}

// fakeCommentStore keeps comments in memory and counts every call, in the
// order the synchronizer is expected to issue them.
type fakeCommentStore struct {
	comments []models.RemoteComment
	nextID   int64

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int

	failWith error
}

func (f *fakeCommentStore) ListComments(_ context.Context, repo string, prNumber int) ([]models.RemoteComment, error) {
	f.listCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]models.RemoteComment, len(f.comments))
	copy(out, f.comments)
	return out, nil
}

func (f *fakeCommentStore) CreateComment(_ context.Context, repo string, prNumber int, body string) (models.RemoteComment, error) {
	f.createCalls++
	if f.failWith != nil {
		return models.RemoteComment{}, f.failWith
	}
	f.nextID++
	comment := models.RemoteComment{ID: f.nextID, Author: "sizebot", Body: body}
	f.comments = append(f.comments, comment)
	return comment, nil
}

func (f *fakeCommentStore) UpdateComment(_ context.Context, repo string, commentID int64, body string) error {
	f.updateCalls++
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.comments {
		if f.comments[i].ID == commentID {
			f.comments[i].Body = body
			return nil
		}
	}
	return errors.NotFound(fmt.Sprintf("comment not found: %d", commentID))
}

func (f *fakeCommentStore) DeleteComment(_ context.Context, repo string, commentID int64) error {
	f.deleteCalls++
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.comments {
		if f.comments[i].ID == commentID {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return errors.NotFound(fmt.Sprintf("comment not found: %d", commentID))
}

func (f *fakeCommentStore) totalCalls() int {
	return f.listCalls + f.createCalls + f.updateCalls + f.deleteCalls
}

const watermarkLine = "<!-- sizebot-watermark: c52822 -->"

func testConfig() (config.GitHubConfig, config.ReportConfig) {
	return config.GitHubConfig{Repo: "Automattic/wp-calypso"},
		config.ReportConfig{
			BotLogin:      "sizebot",
			Watermark:     "c52822",
			TrunkBranches: []string{"master", "trunk"},
		}
}

func featurePush() *models.Push {
	return &models.Push{
		Sha:      "abc123f",
		Ancestor: "def456a",
		Branch:   "my-feature",
		Message:  "Improve the reader stream (#1234)",
	}
}

func testDelta() *models.Delta {
	return &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{
				Name:         "entry-home",
				FirstChunks:  []string{"vendor"},
				SecondChunks: []string{"vendor", "home-extra"},
				DeltaSizes:   models.SizeMetrics{GzipSize: 200},
			},
		},
		AllChunks: []models.Chunk{
			{Name: "vendor", FirstSizes: models.SizeMetrics{GzipSize: 1000}, SecondSizes: models.SizeMetrics{GzipSize: 1000}},
			{Name: "home-extra", SecondSizes: models.SizeMetrics{GzipSize: 200}},
		},
	}
}

func newTestReporter(pushes *fakePushStore, deltas *fakeDeltaProvider, comments *fakeCommentStore) *Reporter {
	ghCfg, reportCfg := testConfig()
	return New(ghCfg, reportCfg, pushes, deltas, comments, MessagePRResolver{}, logger.Nop())
}

func TestReportOnPushCreatesFirstComment(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	require.Equal(t, 1, comments.createCalls)
	require.Equal(t, 0, comments.updateCalls)
	require.Equal(t, 0, comments.deleteCalls)
	require.Len(t, comments.comments, 1)
	require.Contains(t, comments.comments[0].Body, watermarkLine)
	require.Contains(t, comments.comments[0].Body, "**App Entrypoints** (~200 bytes added 📈")
}

func TestReportOnPushUpdatesExistingComment(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{
		nextID: 10,
		comments: []models.RemoteComment{
			{ID: 7, Author: "sizebot", Body: watermarkLine + "\nstale report"},
		},
	}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	require.Equal(t, 0, comments.createCalls)
	require.Equal(t, 1, comments.updateCalls)
	require.Equal(t, 0, comments.deleteCalls)
	require.Len(t, comments.comments, 1)
	require.NotContains(t, comments.comments[0].Body, "stale report")
}

func TestReportOnPushPrunesDuplicates(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{
		nextID: 100,
		comments: []models.RemoteComment{
			{ID: 1, Author: "sizebot", Body: watermarkLine + "\nfirst"},
			{ID: 2, Author: "someone-else", Body: "unrelated review comment"},
			{ID: 3, Author: "sizebot", Body: watermarkLine + "\nduplicate"},
			{ID: 4, Author: "sizebot", Body: "no watermark, not ours"},
		},
	}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	// The earliest bot comment is updated, the later duplicate deleted,
	// and comments not matching owner+watermark are left alone.
	require.Equal(t, 1, comments.updateCalls)
	require.Equal(t, 1, comments.deleteCalls)
	require.Len(t, comments.comments, 3)

	var ids []int64
	for _, c := range comments.comments {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []int64{1, 2, 4}, ids)
}

func TestReportOnPushIsIdempotent(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	// N passes converge to exactly one bot comment; after the first pass
	// the prune step finds nothing to remove.
	require.Len(t, comments.comments, 1)
	require.Equal(t, 1, comments.createCalls)
	require.Equal(t, 2, comments.updateCalls)
	require.Equal(t, 0, comments.deleteCalls)
}

func TestReportOnPushSkipsTrunkBranches(t *testing.T) {
	for _, branch := range []string{"master", "trunk"} {
		push := featurePush()
		push.Branch = branch

		pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": push}}
		deltas := &fakeDeltaProvider{delta: testDelta()}
		comments := &fakeCommentStore{}

		rep := newTestReporter(pushes, deltas, comments)
		require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

		require.Zero(t, comments.totalCalls(), "branch %s must not touch the comment store", branch)
		require.Zero(t, deltas.calls)
	}
}

func TestReportOnPushSkipsWithoutAncestor(t *testing.T) {
	push := featurePush()
	push.Ancestor = ""

	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": push}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	require.Zero(t, comments.totalCalls())
}

func TestReportOnPushSkipsUnknownPush(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "deadbee"))

	require.Zero(t, comments.totalCalls())
}

func TestReportOnPushPropagatesCommentStoreFailure(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{failWith: errors.NetworkError(fmt.Errorf("connection reset"))}

	rep := newTestReporter(pushes, deltas, comments)
	err := rep.ReportOnPush(context.Background(), "abc123f")

	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeNetworkError))
}

func TestReportOnPushPropagatesDeltaFailure(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{err: errors.NotFound("no build data for sha: def456a")}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	err := rep.ReportOnPush(context.Background(), "abc123f")

	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	require.Equal(t, 0, comments.createCalls)
}

func TestReportOnPushContinuesWithoutPRNumber(t *testing.T) {
	push := featurePush()
	push.Message = "no pull request reference here"

	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": push}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	// The degraded path still runs the full pass against a zero PR target.
	require.Equal(t, 1, comments.listCalls)
	require.Equal(t, 1, comments.createCalls)
}

func TestRenderedCommentEmbedsWatermarkOnce(t *testing.T) {
	pushes := &fakePushStore{pushes: map[string]*models.Push{"abc123f": featurePush()}}
	deltas := &fakeDeltaProvider{delta: testDelta()}
	comments := &fakeCommentStore{}

	rep := newTestReporter(pushes, deltas, comments)
	require.NoError(t, rep.ReportOnPush(context.Background(), "abc123f"))

	body := comments.comments[0].Body
	require.Equal(t, 1, strings.Count(body, "sizebot-watermark:"))
}
