package board

import (
	"context"
	"fmt"
	"strings"

	"messageboard/pkg/codec"
	"messageboard/pkg/models"
	"messageboard/pkg/state/metrics"
	"messageboard/pkg/store/keys"
)

func (b *Board) friendsOf(x models.Identity) ([]models.Identity, error) {
	out := []models.Identity{}
	err := b.db.Scan(keys.GenFriendPrefix(x), func(k, _ []byte) error {
		parts, err := keys.ParseFriendKey(string(k))
		if err != nil {
			return fmt.Errorf("friend index: %w", err)
		}
		out = append(out, parts.Friend)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Friends returns the friend set of x as a blob. Friends come back in
// canonical order; an identity with no threads has an empty set.
func (b *Board) Friends(ctx context.Context, x models.Identity) (codec.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.Reads.WithLabelValues("friends").Inc()
	ids, err := b.friendsOf(x)
	if err != nil {
		return nil, err
	}
	return codec.EncodeFriends(ids)
}

// FriendsString renders the friend set of x separated by single spaces.
func (b *Board) FriendsString(ctx context.Context, x models.Identity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	metrics.Reads.WithLabelValues("friends_string").Inc()
	ids, err := b.friendsOf(x)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " "), nil
}
