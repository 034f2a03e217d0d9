package database

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

// Comment is one entry of a row's comment map, keyed by its own ID for
// O(1) lookup; replies are flat, linked via ParentCommentID rather than
// nested.
type Comment struct {
	ID              string `json:"id"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Content         string `json:"content"`
	AuthorID        int64  `json:"author_id"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
	IsResolved      bool   `json:"is_resolved,omitempty"`
	ResolvedBy      int64  `json:"resolved_by,omitempty"`
	ResolvedAt      int64  `json:"resolved_at,omitempty"`
	Reactions       string `json:"reactions,omitempty"`
	Attachments     string `json:"attachments,omitempty"`
}

// AddComment creates a new comment under the row, minting an id if one
// isn't set.
func (r *Row) AddComment(clock collab.Clock, c Comment) (Comment, error) {
	if c.ID == "" {
		c.ID = idgen.New()
	}
	now := clock.NowMillis()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	err := r.obj.Transact(func(txn *collab.WriteTxn) error {
		setComment(txn, r.comment, c)
		return nil
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// GetComment looks up a comment by id.
func (r *Row) GetComment(commentID string) (Comment, bool) {
	m, ok := r.comment.GetMap(commentID)
	if !ok {
		return Comment{}, false
	}
	return commentFromMap(m), true
}

// UpdateCommentContent edits an existing comment's content and bumps
// updated_at.
func (r *Row) UpdateCommentContent(clock collab.Clock, commentID, content string) error {
	c, ok := r.GetComment(commentID)
	if !ok {
		return collab.MissingRequiredData("comment:" + commentID)
	}
	c.Content = content
	c.UpdatedAt = clock.NowMillis()
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		setComment(txn, r.comment, c)
		return nil
	})
}

// ResolveComment marks commentID resolved by uid.
func (r *Row) ResolveComment(clock collab.Clock, commentID string, uid int64) error {
	c, ok := r.GetComment(commentID)
	if !ok {
		return collab.MissingRequiredData("comment:" + commentID)
	}
	c.IsResolved = true
	c.ResolvedBy = uid
	c.ResolvedAt = clock.NowMillis()
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		setComment(txn, r.comment, c)
		return nil
	})
}

// ReopenComment clears a comment's resolved state.
func (r *Row) ReopenComment(commentID string) error {
	c, ok := r.GetComment(commentID)
	if !ok {
		return collab.MissingRequiredData("comment:" + commentID)
	}
	c.IsResolved = false
	c.ResolvedBy = 0
	c.ResolvedAt = 0
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		setComment(txn, r.comment, c)
		return nil
	})
}

// ToggleReaction flips commentID's reactions JSON through toggle, which
// receives the current (possibly empty) reactions string and returns the
// next one. The caller owns the reaction-set encoding; this just wires
// the read/write/bump cycle.
func (r *Row) ToggleReaction(clock collab.Clock, commentID string, toggle func(current string) string) error {
	c, ok := r.GetComment(commentID)
	if !ok {
		return collab.MissingRequiredData("comment:" + commentID)
	}
	c.Reactions = toggle(c.Reactions)
	c.UpdatedAt = clock.NowMillis()
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		setComment(txn, r.comment, c)
		return nil
	})
}

// ToggleRowReaction is ToggleReaction's row-level counterpart, stored at
// meta.row_reactions rather than per-comment.
func (r *Row) ToggleRowReaction(toggle func(current string) string) error {
	current := schema.Ext(r.meta.Map).GetString("row_reactions")
	next := toggle(current)
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		r.meta.Set(txn.Inner(), "row_reactions", next)
		return nil
	})
}

func setComment(txn *collab.WriteTxn, comments *crdt.Map, c Comment) {
	m := comments.SetMap(txn.Inner(), c.ID)
	m.Set(txn.Inner(), "id", c.ID)
	m.Set(txn.Inner(), "parent_comment_id", c.ParentCommentID)
	m.Set(txn.Inner(), "content", c.Content)
	m.Set(txn.Inner(), "author_id", c.AuthorID)
	m.Set(txn.Inner(), "created_at", c.CreatedAt)
	m.Set(txn.Inner(), "updated_at", c.UpdatedAt)
	m.Set(txn.Inner(), "is_resolved", c.IsResolved)
	m.Set(txn.Inner(), "resolved_by", c.ResolvedBy)
	m.Set(txn.Inner(), "resolved_at", c.ResolvedAt)
	m.Set(txn.Inner(), "reactions", c.Reactions)
	m.Set(txn.Inner(), "attachments", c.Attachments)
}

func commentFromMap(m *crdt.Map) Comment {
	e := schema.Ext(m)
	return Comment{
		ID:              e.GetString("id"),
		ParentCommentID: e.GetString("parent_comment_id"),
		Content:         e.GetString("content"),
		AuthorID:        e.GetInt64("author_id"),
		CreatedAt:       e.GetInt64("created_at"),
		UpdatedAt:       e.GetInt64("updated_at"),
		IsResolved:      e.GetBool("is_resolved"),
		ResolvedBy:      e.GetInt64("resolved_by"),
		ResolvedAt:      e.GetInt64("resolved_at"),
		Reactions:       e.GetString("reactions"),
		Attachments:     e.GetString("attachments"),
	}
}
