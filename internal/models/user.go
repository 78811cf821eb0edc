package models

import "time"

// User is a community member who submits and votes on deals.
type User struct {
	ID              string    `firestore:"-" json:"id"`
	Username        string    `firestore:"username" json:"username"`
	Reputation      int       `firestore:"reputation" json:"reputation"`
	Badges          []string  `firestore:"badges,omitempty" json:"badges,omitempty"`
	SubmissionCount int       `firestore:"submissionCount" json:"submissionCount"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
}

// Comment belongs to one deal. Replies point at their parent through ParentID
// and are assembled into a tree on read.
type Comment struct {
	ID         string     `firestore:"-" json:"id"`
	DealID     string     `firestore:"dealId" json:"dealId"`
	AuthorID   string     `firestore:"authorId" json:"authorId"`
	AuthorName string     `firestore:"authorName" json:"authorName"`
	Body       string     `firestore:"body" json:"body"`
	ParentID   string     `firestore:"parentId,omitempty" json:"parentId,omitempty"`
	CreatedAt  time.Time  `firestore:"createdAt" json:"createdAt"`
	Replies    []*Comment `firestore:"-" json:"replies,omitempty"`
}
