package models

// Thread links flat comments into reply trees and returns the roots in their
// original order. Comments whose parent is missing are promoted to roots so
// nothing is silently dropped.
func Thread(comments []Comment) []*Comment {
	nodes := make(map[string]*Comment, len(comments))
	ordered := make([]*Comment, 0, len(comments))
	for i := range comments {
		c := comments[i]
		c.Replies = nil
		n := &c
		nodes[n.ID] = n
		ordered = append(ordered, n)
	}

	var roots []*Comment
	for _, n := range ordered {
		parent, ok := nodes[n.ParentID]
		if n.ParentID == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
	}
	return roots
}
