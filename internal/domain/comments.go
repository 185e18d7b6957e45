package domain

import (
	"sync"

	"gitlab.com/ranfdev/blogmod/internal/models"
)

// CommentThread holds the comments shown for one post, including comments
// inserted optimistically while their submission is in flight.
type CommentThread struct {
	mu       sync.Mutex
	postID   int
	comments []models.Comment
}

func newCommentThread(postID int, comments []models.Comment) *CommentThread {
	t := &CommentThread{postID: postID}
	t.sync(comments)
	return t
}

func (t *CommentThread) PostID() int {
	return t.postID
}

// Comments returns a snapshot, newest insertions first.
func (t *CommentThread) Comments() []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Comment{}, t.comments...)
}

func (t *CommentThread) insert(c models.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.comments = append([]models.Comment{c}, t.comments...)
}

func (t *CommentThread) remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := make([]models.Comment, 0, len(t.comments))
	for _, c := range t.comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	t.comments = kept
}

// sync replaces confirmed comments with the server's list. Pending comments
// stay on top until their own submission settles.
func (t *CommentThread) sync(server []models.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := []models.Comment{}
	for _, c := range t.comments {
		if c.Pending() {
			next = append(next, c)
		}
	}
	t.comments = append(next, server...)
}
