package models

// FlairState is what the platform shows for a user on one subject.
type FlairState struct {
	Text     string `json:"flair_text"`
	CSSClass string `json:"flair_css_class"`
}

type User struct {
	Name              string                `json:"name"`
	IsMod             bool                  `json:"isMod"`
	Banned            bool                  `json:"banned"`
	Flair             map[string]FlairState `json:"flair"`
	LoggedFriendCodes []string              `json:"loggedFriendCodes"`
}

// FlairFor returns the stored flair for subject and whether one exists.
func (u *User) FlairFor(subject string) (FlairState, bool) {
	if u == nil || u.Flair == nil {
		return FlairState{}, false
	}
	st, ok := u.Flair[subject]
	return st, ok
}

func (u *User) SetFlair(subject string, st FlairState) {
	if u.Flair == nil {
		u.Flair = make(map[string]FlairState)
	}
	u.Flair[subject] = st
}

// BannedUser is a banned account together with the friend codes it used.
type BannedUser struct {
	Name        string   `json:"name"`
	FriendCodes []string `json:"friendCodes"`
}
