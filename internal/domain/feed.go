package domain

import "time"

// PostType categorizes a care-team feed post.
type PostType string

const (
	PostNote      PostType = "note"
	PostUpdate    PostType = "update"
	PostAlert     PostType = "alert"
	PostMilestone PostType = "milestone"
)

// Valid reports whether t is a recognized post type.
func (t PostType) Valid() bool {
	switch t {
	case PostNote, PostUpdate, PostAlert, PostMilestone:
		return true
	}
	return false
}

// FeedPost is a message on a patient's shared care-team feed.
type FeedPost struct {
	PostID    string    `json:"post_id"`
	PatientID string    `json:"patient_id"`
	AuthorID  string    `json:"author_id"`
	Type      PostType  `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
