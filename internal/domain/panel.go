package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

const (
	MsgLoadFailed         = "Failed to load blogs. Please try again later."
	MsgDeleteFailed       = "Failed to delete blog. Please try again later."
	MsgClearReportsFailed = "Failed to remove reports. Please try again later."
)

var (
	ErrFetch    = errors.New("fetching panel data")
	ErrMutation = errors.New("moderation action failed")
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "loading"
}

// PanelState is an immutable snapshot of what the panel currently shows.
type PanelState struct {
	Phase   Phase
	Mode    ViewMode
	Posts   []models.Post
	Reports []models.Report
	Error   string
	Loaded  bool
}

// Panel orchestrates fetching, annotating and sorting the moderation list
// and dispatches moderation actions to the content API. One Panel exists
// per operator session.
type Panel struct {
	api   ContentAPI
	audit Auditor
	log   zerolog.Logger
	now   func() time.Time

	mu          sync.Mutex
	seq         uint64
	tempSeq     int
	state       PanelState
	allPosts    map[int]models.Post
	threads     map[int]*CommentThread
	mutationErr string
	lastUsed    time.Time
}

func NewPanel(api ContentAPI, audit Auditor, log zerolog.Logger) *Panel {
	if audit == nil {
		audit = NopAuditor
	}
	return &Panel{
		api:      api,
		audit:    audit,
		log:      log,
		now:      time.Now,
		state:    PanelState{Phase: PhaseLoading, Mode: ViewAll},
		allPosts: map[int]models.Post{},
		threads:  map[int]*CommentThread{},
	}
}

func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Panel) Mode() ViewMode {
	return p.State().Mode
}

// TakeMutationError returns the last moderation action failure and clears it.
func (p *Panel) TakeMutationError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := p.mutationErr
	p.mutationErr = ""
	return msg
}

func (p *Panel) setMutationError(msg string) {
	p.mu.Lock()
	p.mutationErr = msg
	p.mu.Unlock()
}

func (p *Panel) fetch(ctx context.Context) ([]models.Post, []models.Report, error) {
	var posts []models.Post
	var reports []models.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = p.api.ListPosts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = p.api.ListReports(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return posts, reports, nil
}

// Refresh re-fetches everything for mode. Only the most recently issued
// refresh is applied; results of older ones are dropped. A refresh whose
// ctx ends early leaves the panel as it was.
func (p *Panel) Refresh(ctx context.Context, mode ViewMode) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	prev := p.state
	p.state.Phase = PhaseLoading
	p.state.Mode = mode
	p.mu.Unlock()

	posts, reports, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		p.log.Debug().Uint64("seq", seq).Uint64("latest", p.seq).Msg("Dropping stale refresh")
		return nil
	}
	if err != nil && ctx.Err() != nil {
		p.state = prev
		p.log.Debug().Err(err).Str("mode", string(mode)).Msg("Refresh abandoned")
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if err != nil {
		p.state.Phase = PhaseError
		p.state.Error = MsgLoadFailed
		p.log.Error().Err(err).Str("mode", string(mode)).Msg("Error fetching blogs")
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	p.allPosts = make(map[int]models.Post, len(posts))
	for _, post := range posts {
		p.allPosts[post.ID] = post
	}
	for id, thread := range p.threads {
		thread.sync(p.allPosts[id].Comments)
	}
	p.state = PanelState{
		Phase:   PhaseReady,
		Mode:    mode,
		Posts:   BuildView(posts, reports, mode),
		Reports: reports,
		Loaded:  true,
	}
	return nil
}

// EnsureMode refreshes when nothing was loaded yet or the view mode changes.
// Search and category narrowing never come through here.
func (p *Panel) EnsureMode(ctx context.Context, mode ViewMode) error {
	st := p.State()
	if st.Loaded && st.Mode == mode {
		return nil
	}
	return p.Refresh(ctx, mode)
}

func (p *Panel) record(ctx context.Context, kind models.AuditKind, postID int, session models.Session) {
	entry := models.AuditEntry{
		Kind:     kind,
		PostID:   postID,
		Operator: models.AuthorOr(session.Nickname, "operator"),
		At:       p.now(),
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		p.log.Warn().Err(err).Str("kind", string(kind)).Int("post_id", postID).Msg("Error recording audit entry")
	}
}

// DeletePost removes a post upstream, then refreshes in the current mode.
// The held list is only replaced by that refresh.
func (p *Panel) DeletePost(ctx context.Context, session models.Session, postID int) error {
	p.log.Info().Int("post_id", postID).Msg("Deleting blog")
	if err := p.api.DeletePost(ctx, postID); err != nil {
		p.setMutationError(MsgDeleteFailed)
		p.log.Error().Err(err).Int("post_id", postID).Msg("Error deleting blog")
		return fmt.Errorf("%w: delete post %d: %v", ErrMutation, postID, err)
	}
	p.record(ctx, models.AuditDeletePost, postID, session)
	return p.Refresh(ctx, p.Mode())
}

// ClearReports removes every report of a post in one upstream call.
func (p *Panel) ClearReports(ctx context.Context, session models.Session, postID int) error {
	p.log.Info().Int("post_id", postID).Msg("Removing reports")
	if err := p.api.ClearReports(ctx, postID); err != nil {
		p.setMutationError(MsgClearReportsFailed)
		p.log.Error().Err(err).Int("post_id", postID).Msg("Error removing reports")
		return fmt.Errorf("%w: clear reports %d: %v", ErrMutation, postID, err)
	}
	p.record(ctx, models.AuditClearReports, postID, session)
	return p.Refresh(ctx, p.Mode())
}

// CreatePost submits an already validated post and refreshes the panel.
func (p *Panel) CreatePost(ctx context.Context, session models.Session, post models.NewPost) (*models.Post, error) {
	post.Nickname = models.AuthorOr(post.Nickname, "user")
	created, err := p.api.CreatePost(ctx, post)
	if err != nil {
		p.log.Error().Err(err).Msg("Error creating post")
		return nil, err
	}
	postID := 0
	if created != nil {
		postID = created.ID
	}
	p.record(ctx, models.AuditCreatePost, postID, session)
	if err := p.Refresh(ctx, p.Mode()); err != nil {
		p.log.Warn().Err(err).Msg("Error refreshing after post creation")
	}
	return created, nil
}

// SubmitReport files a report against a post. The panel isn't refreshed.
func (p *Panel) SubmitReport(ctx context.Context, report models.NewReport) error {
	if err := p.api.SubmitReport(ctx, report); err != nil {
		p.log.Error().Err(err).Int("post_id", report.PostID).Msg("Error submitting report")
		return err
	}
	return nil
}

// Post looks a post up in the last fetched list, regardless of view mode.
func (p *Panel) Post(postID int) (models.Post, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	post, ok := p.allPosts[postID]
	return post, ok
}

func (p *Panel) ReportsFor(postID int) []models.Report {
	return UnresolvedFor(p.State().Reports, postID)
}

func (p *Panel) Thread(postID int) *CommentThread {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.threads[postID]; ok {
		return t
	}
	t := newCommentThread(postID, p.allPosts[postID].Comments)
	p.threads[postID] = t
	return t
}

func (p *Panel) nextTempID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tempSeq++
	return -p.tempSeq
}

// SubmitComment shows the comment right away and sends it upstream. The
// local copy is withdrawn when the content API rejects it; on success the
// panel is re-fetched so the thread carries server ids.
func (p *Panel) SubmitComment(ctx context.Context, session models.Session, postID int, form models.CommentForm) error {
	author := form.Author
	if session.HasNickname() {
		author = session.Nickname
	}
	author = models.AuthorOr(author, "Anonymous")

	thread := p.Thread(postID)
	temp := models.Comment{
		ID:      p.nextTempID(),
		Content: form.Content,
		Author:  author,
		Date:    models.NewTimestamp(p.now()),
		PostID:  postID,
	}
	thread.insert(temp)

	created, err := p.api.SubmitComment(ctx, models.NewComment{
		PostID:  postID,
		Author:  author,
		Content: form.Content,
	})
	thread.remove(temp.ID)
	if err != nil {
		p.log.Error().Err(err).Int("post_id", postID).Msg("Error posting comment")
		return err
	}
	if created != nil {
		thread.insert(*created)
	}
	if err := p.Refresh(ctx, p.Mode()); err != nil {
		p.log.Warn().Err(err).Msg("Error refreshing comments")
	}
	return nil
}

func (p *Panel) touch(now time.Time) {
	p.mu.Lock()
	p.lastUsed = now
	p.mu.Unlock()
}

func (p *Panel) idleSince(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return now.Sub(p.lastUsed)
}
