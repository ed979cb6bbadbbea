// Package tree walks a todo's descendant set without materializing the
// whole tree ahead of time. Traversal is depth-first and pre-order: the
// parent is visited before its children, and siblings are visited in the
// order they appear on the node, so re-traversing an unchanged tree yields
// the same order.
package tree

import "github.com/branchline/todotree/internal/models"

// Apply invokes op on root and then, recursively, on every descendant.
// Used for cascading mutations such as checking a whole subtree.
func Apply(root *models.Todo, op func(*models.Todo)) {
	if root == nil {
		return
	}
	op(root)
	for _, child := range root.Children {
		Apply(child, op)
	}
}

// Exists reports whether pred holds for root or any of its descendants,
// short-circuiting on the first match. A node trivially exists in its own
// subtree, so cycle detection must call Exists on the prospective child:
// if the candidate parent is found among the child's descendants, the
// attachment would close a cycle.
func Exists(root *models.Todo, pred func(*models.Todo) bool) bool {
	if root == nil {
		return false
	}
	if pred(root) {
		return true
	}
	for _, child := range root.Children {
		if Exists(child, pred) {
			return true
		}
	}
	return false
}

// Matches returns a predicate that matches exactly the given node, compared
// by identity of its id.
func Matches(target *models.Todo) func(*models.Todo) bool {
	return func(t *models.Todo) bool {
		return t != nil && target != nil && t.ID == target.ID
	}
}

// CollectIDs returns the ids of root and every descendant, in traversal
// order. Used to scope a single bulk delete or check to a whole subtree.
func CollectIDs(root *models.Todo) []int64 {
	var ids []int64
	Apply(root, func(t *models.Todo) {
		ids = append(ids, t.ID)
	})
	return ids
}
