package keys

const (
	// notation dictionary for key formats:
	// b     = broadcast feed
	// p     = private thread, keyed by the ordered identity pair
	// m     = message record
	// f     = friend index edge
	// count = number of records in a partition
	// All keys are lowercase; segments are separated by ":"
	// <...> = variable segment (e.g. <seq>, <lo>, <hi>)

	// broadcast feed
	BroadcastCount   = "b:count" // b:count
	BroadcastMessage = "b:m:%s"  // b:m:<seq>
	BroadcastPrefix  = "b:m:"

	// private threads
	ThreadCount         = "p:%s:%s:count"  // p:<lo>:<hi>:count
	ThreadMessage       = "p:%s:%s:m:%s"   // p:<lo>:<hi>:m:<seq>
	ThreadMessagePrefix = "p:%s:%s:m:"     // p:<lo>:<hi>:m:
	ThreadPrefix        = "p:"

	// friend index
	Friend       = "f:%s:%s" // f:<identity>:<friend>
	FriendPrefix = "f:%s:"   // f:<identity>:
	FriendsRoot  = "f:"

	// padding width (fixed for lexicographic ordering)
	SeqPadWidth = 20 // e.g. %020d

	// system keys
	CharLimitKey     = "meta:char_limit"
	SystemVersionKey = "system:version"
	SystemVersion    = "1"
)
