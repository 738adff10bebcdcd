package state

// MatchmakingOptions is the (password, level) tuple clients are grouped by.
// Password nil and password "" are distinct values: an absent password is
// not the same group as an explicit empty one.
type MatchmakingOptions struct {
	Password *string
	Level    string
}

// key renders the options as a value usable as a Go map key: pointers can't
// be compared by value, so a nil/non-nil password is folded into the key
// alongside its content.
func (o MatchmakingOptions) key() matchmakingKey {
	if o.Password == nil {
		return matchmakingKey{hasPassword: false, level: o.Level}
	}
	return matchmakingKey{hasPassword: true, password: *o.Password, level: o.Level}
}

type matchmakingKey struct {
	hasPassword bool
	password    string
	level       string
}

// Equal reports whether two options are the same group, per spec: both
// fields must match, and password None vs Some("") are distinct.
func (o MatchmakingOptions) Equal(other MatchmakingOptions) bool {
	return o.key() == other.key()
}
