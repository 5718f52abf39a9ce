package structures

import "net/http"

// Access is the minimum session a route requires.
type Access int

const (
	AccessPublic Access = iota
	AccessUser
	AccessModerator
)

func (a Access) String() string {
	switch a {
	case AccessUser:
		return "user"
	case AccessModerator:
		return "moderator"
	default:
		return "public"
	}
}

type Route struct {
	Method  string
	Url     string
	Access  Access
	Handler http.Handler
}
