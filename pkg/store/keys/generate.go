package keys

import (
	"fmt"

	"messageboard/pkg/models"
)

// broadcast feed
func GenBroadcastCountKey() string {
	return BroadcastCount
}

func GenBroadcastMessageKey(seq uint64) string {
	return fmt.Sprintf(BroadcastMessage, PadSeq(seq))
}

// threads
func GenThreadCountKey(a, b models.Identity) string {
	lo, hi := models.Pair(a, b)
	return fmt.Sprintf(ThreadCount, lo, hi)
}

func GenThreadMessageKey(a, b models.Identity, seq uint64) string {
	lo, hi := models.Pair(a, b)
	return fmt.Sprintf(ThreadMessage, lo, hi, PadSeq(seq))
}

func GenThreadMessagePrefix(a, b models.Identity) string {
	lo, hi := models.Pair(a, b)
	return fmt.Sprintf(ThreadMessagePrefix, lo, hi)
}

// GenThreadLockKey names the lock guarding sequence assignment for a thread.
func GenThreadLockKey(a, b models.Identity) string {
	return GenThreadCountKey(a, b)
}

// friends
func GenFriendKey(me, friend models.Identity) string {
	return fmt.Sprintf(Friend, me, friend)
}

func GenFriendPrefix(me models.Identity) string {
	return fmt.Sprintf(FriendPrefix, me)
}

// helpers
func PadSeq(seq uint64) string {
	return fmt.Sprintf("%0*d", SeqPadWidth, seq)
}

// PrefixUpperBound returns the smallest key greater than every key with the given prefix.
func PrefixUpperBound(prefix string) []byte {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
