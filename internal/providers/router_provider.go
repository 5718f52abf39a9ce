package providers

import (
	"flairhq/internal/structures"
	"net/http"
)

type RouterProviderInterface interface {
	Get(url string, access structures.Access, handler http.HandlerFunc)
	Post(url string, access structures.Access, handler http.HandlerFunc)
	GetRoutes() []structures.Route
}

// RouterProvider collects API routes and wraps each handler in the
// authentication its access level asks for. Method matching is left to the mux.
type RouterProvider struct {
	auth   AuthProviderInterface
	routes []structures.Route
}

func (rp *RouterProvider) Get(url string, access structures.Access, handler http.HandlerFunc) {
	rp.add(http.MethodGet, url, access, handler)
}

func (rp *RouterProvider) Post(url string, access structures.Access, handler http.HandlerFunc) {
	rp.add(http.MethodPost, url, access, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func (rp *RouterProvider) add(method, url string, access structures.Access, handler http.HandlerFunc) {
	rp.routes = append(rp.routes, structures.Route{
		Method:  method,
		Url:     url,
		Access:  access,
		Handler: rp.guard(access, handler),
	})
}

func (rp *RouterProvider) guard(access structures.Access, handler http.Handler) http.Handler {
	switch access {
	case structures.AccessModerator:
		return rp.auth.Authenticate(rp.auth.RequireModerator(handler))
	case structures.AccessUser:
		return rp.auth.Authenticate(handler)
	default:
		return handler
	}
}

func NewRouterProvider(auth AuthProviderInterface) RouterProviderInterface {
	return &RouterProvider{auth: auth}
}
