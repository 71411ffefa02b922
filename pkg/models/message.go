package models

// Message is a stored board record. Broadcast records leave Recipient empty.
type Message struct {
	Sender    Identity `json:"sender"`
	Recipient Identity `json:"recipient,omitempty"`
	Message   string   `json:"message"`
	// Seq is the zero-based position of the record inside its feed or thread.
	Seq uint64 `json:"seq"`
	TS  int64  `json:"ts"`
}

// Private reports whether the record belongs to a conversation thread.
func (m Message) Private() bool {
	return m.Recipient != ""
}

// Friends is the wire shape of a friend set.
type Friends struct {
	Friends []Identity `json:"friends"`
}

// Stats summarizes the board contents for admin tooling.
type Stats struct {
	Broadcasts  uint64 `json:"broadcasts"`
	Threads     uint64 `json:"threads"`
	Private     uint64 `json:"private_messages"`
	FriendEdges uint64 `json:"friend_edges"`
	CharLimit   int    `json:"char_limit"`
}

// BackupResult describes one completed checkpoint.
type BackupResult struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Bytes     uint64 `json:"bytes"`
	Size      string `json:"size"`
	StartedAt int64  `json:"started_at"`
	TookMS    int64  `json:"took_ms"`
	Pruned    int    `json:"pruned"`
}
