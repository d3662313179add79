package conversation

// Profile is the state kept for one user for the lifetime of the process.
// DisplayName and SummonerHandle are the authoritative inputs of the
// conversation rules; Stage mirrors them.
type Profile struct {
	UserID         string
	DisplayName    string
	PendingName    string // free text awaiting the yes/no confirmation
	SummonerHandle string
	Stage          Stage
}

// NewProfile returns the initial profile of an unseen user.
func NewProfile(userID string) Profile {
	return Profile{UserID: userID, Stage: StageAwaitingName}
}

// HasName reports whether a display name has been recorded.
func (p Profile) HasName() bool { return p.DisplayName != "" }

// HasSummoner reports whether a summoner handle has been confirmed.
func (p Profile) HasSummoner() bool { return p.SummonerHandle != "" }
