package board

import (
	"context"
	"strings"

	"messageboard/pkg/models"
	"messageboard/pkg/store/keys"
)

// Stats counts broadcasts, threads, private records and friend edges on a
// single snapshot.
func (b *Board) Stats(ctx context.Context) (models.Stats, error) {
	if err := ctx.Err(); err != nil {
		return models.Stats{}, err
	}
	view, err := b.db.NewView()
	if err != nil {
		return models.Stats{}, err
	}
	defer view.Close()

	st := models.Stats{CharLimit: b.charLimit}
	if st.Broadcasts, err = readCount(view, keys.GenBroadcastCountKey()); err != nil {
		return models.Stats{}, err
	}

	err = view.Scan(keys.ThreadPrefix, func(k, v []byte) error {
		if !strings.HasSuffix(string(k), ":count") {
			return nil
		}
		if _, err := keys.ParseThreadCountKey(string(k)); err != nil {
			return err
		}
		n, err := keys.ParseCount(v)
		if err != nil {
			return err
		}
		st.Threads++
		st.Private += n
		return nil
	})
	if err != nil {
		return models.Stats{}, err
	}

	err = view.Scan(keys.FriendsRoot, func(_, _ []byte) error {
		st.FriendEdges++
		return nil
	})
	if err != nil {
		return models.Stats{}, err
	}
	return st, nil
}
