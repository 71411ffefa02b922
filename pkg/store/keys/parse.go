package keys

import (
	"fmt"
	"strconv"
	"strings"

	"messageboard/pkg/models"
)

type ThreadCountParts struct {
	Lo models.Identity
	Hi models.Identity
}

type MessageKeyParts struct {
	// Lo and Hi are empty for broadcast records.
	Lo  models.Identity
	Hi  models.Identity
	Seq uint64
}

type FriendKeyParts struct {
	Identity models.Identity
	Friend   models.Identity
}

func parsePaddedUint(s string, width int) (uint64, error) {
	if len(s) == 0 || len(s) > width {
		return 0, fmt.Errorf("length invalid: %s", s)
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseUint(trimmed, 10, 64)
}

func parseIdentities(raw ...string) ([]models.Identity, error) {
	out := make([]models.Identity, 0, len(raw))
	for _, r := range raw {
		id, err := models.ParseIdentity(r)
		if err != nil || id.String() != r {
			return nil, fmt.Errorf("non canonical identity segment: %q", r)
		}
		out = append(out, id)
	}
	return out, nil
}

func ParseBroadcastMessageKey(key string) (*MessageKeyParts, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "b" || parts[1] != "m" {
		return nil, fmt.Errorf("invalid broadcast message key: %s", key)
	}
	seq, err := parsePaddedUint(parts[2], SeqPadWidth)
	if err != nil {
		return nil, fmt.Errorf("invalid broadcast message key: %s: %w", key, err)
	}
	return &MessageKeyParts{Seq: seq}, nil
}

func ParseThreadMessageKey(key string) (*MessageKeyParts, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 5 || parts[0] != "p" || parts[3] != "m" {
		return nil, fmt.Errorf("invalid thread message key: %s", key)
	}
	ids, err := parseIdentities(parts[1], parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid thread message key: %s: %w", key, err)
	}
	seq, err := parsePaddedUint(parts[4], SeqPadWidth)
	if err != nil {
		return nil, fmt.Errorf("invalid thread message key: %s: %w", key, err)
	}
	return &MessageKeyParts{Lo: ids[0], Hi: ids[1], Seq: seq}, nil
}

func ParseThreadCountKey(key string) (*ThreadCountParts, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != "p" || parts[3] != "count" {
		return nil, fmt.Errorf("invalid thread count key: %s", key)
	}
	ids, err := parseIdentities(parts[1], parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid thread count key: %s: %w", key, err)
	}
	if ids[0] > ids[1] {
		return nil, fmt.Errorf("thread count key not ordered: %s", key)
	}
	return &ThreadCountParts{Lo: ids[0], Hi: ids[1]}, nil
}

func ParseFriendKey(key string) (*FriendKeyParts, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "f" {
		return nil, fmt.Errorf("invalid friend key: %s", key)
	}
	ids, err := parseIdentities(parts[1], parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid friend key: %s: %w", key, err)
	}
	return &FriendKeyParts{Identity: ids[0], Friend: ids[1]}, nil
}

// ParseCount decodes a stored partition counter.
func ParseCount(v []byte) (uint64, error) {
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter value %q: %w", v, err)
	}
	return n, nil
}

// FormatCount encodes a partition counter.
func FormatCount(n uint64) []byte {
	return []byte(strconv.FormatUint(n, 10))
}
