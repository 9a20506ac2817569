// Package normalize turns a fetched post into the flat, typed content that the
// embed composer renders.
package normalize

import (
	"fmt"

	"github.com/iconidentify/tumblrembed/internal/domain"
)

// TrailOrder decides where reblog-trail content sits relative to the post's
// own content. The order matters because the first image or video in the
// flattened sequence drives the card type and the default media.
type TrailOrder string

const (
	// TrailOrderPostFirst emits the post's own blocks, then every trail entry in order.
	TrailOrderPostFirst TrailOrder = "post_first"
	// TrailOrderRootFirst emits the trail root, then the post's own blocks,
	// then the remaining trail entries.
	TrailOrderRootFirst TrailOrder = "root_first"
)

// ParseTrailOrder validates a configured trail order. Empty means post_first.
func ParseTrailOrder(s string) (TrailOrder, error) {
	switch TrailOrder(s) {
	case "", TrailOrderPostFirst:
		return TrailOrderPostFirst, nil
	case TrailOrderRootFirst:
		return TrailOrderRootFirst, nil
	default:
		return "", fmt.Errorf("unknown trail order %q (want %q or %q)", s, TrailOrderPostFirst, TrailOrderRootFirst)
	}
}

// Flatten merges the post's blocks with its trail's blocks into one sequence.
func Flatten(post *domain.Post, order TrailOrder) []domain.ContentBlock {
	size := len(post.Content)
	for _, item := range post.Trail {
		size += len(item.Content)
	}
	blocks := make([]domain.ContentBlock, 0, size)

	if order == TrailOrderRootFirst && len(post.Trail) > 0 {
		blocks = append(blocks, post.Trail[0].Content...)
		blocks = append(blocks, post.Content...)
		for _, item := range post.Trail[1:] {
			blocks = append(blocks, item.Content...)
		}
		return blocks
	}

	blocks = append(blocks, post.Content...)
	for _, item := range post.Trail {
		blocks = append(blocks, item.Content...)
	}
	return blocks
}
