package models

// Credential authorizes outbound platform calls on behalf of an account.
type Credential struct {
	RefreshToken string
}

// Usernote is a moderator note attached to a user on a subject.
type Usernote struct {
	Mod      string
	Subject  string
	User     string
	Note     string
	Category string
	Link     string
}
