package controllers

import (
	"errors"
	"flairhq/internal/flair"
	"flairhq/internal/providers"
	"flairhq/internal/services"
	"flairhq/internal/storage"
	json "github.com/goccy/go-json"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gookit/validate"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const flairsCacheKey = "api:flairs"

type ApiController struct {
	logger  providers.Logger
	service services.FlairServiceInterface
	flairs  storage.FlairStoreInterface
	cache   providers.CacheProviderInterface
	auth    providers.AuthProviderInterface
}

func NewApiController(logger providers.Logger, service services.FlairServiceInterface, flairs storage.FlairStoreInterface, cache providers.CacheProviderInterface, auth providers.AuthProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		flairs:  flairs,
		cache:   cache,
		auth:    auth,
	}
}

type applyRequest struct {
	Flair   string `json:"flair" validate:"required|maxLen:64"`
	Subject string `json:"sub" validate:"required|maxLen:64"`
}

type textRequest struct {
	Trades   string `json:"ptrades" validate:"required|maxLen:512"`
	Exchange string `json:"svex" validate:"required|maxLen:512"`
}

type approveRequest struct {
	Badge string `json:"badge" validate:"maxLen:64"`
}

type claimResponse struct {
	Token string          `json:"token"`
	Claim *services.Claim `json:"claim"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (ac *ApiController) ListFlairs(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, flairsCacheKey, func() (any, error) {
		return ac.flairs.ListFlairs(r.Context())
	})
}

func (ac *ApiController) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !ac.decode(w, r, &req, false) {
		return
	}
	app, err := ac.service.Apply(r.Context(), callerFrom(r), req.Flair, req.Subject)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.logger.Infof(providers.TypePost, "/u/%s applied for %s on /r/%s", app.User, app.Flair, app.Subject)
	writeJSON(w, http.StatusCreated, app)
}

func (ac *ApiController) SetText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !ac.decode(w, r, &req, false) {
		return
	}
	res, err := ac.service.SetText(r.Context(), callerFrom(r), req.Trades, req.Exchange)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (ac *ApiController) RefreshClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := ac.service.RefreshClaim(r.Context(), callerFrom(r))
	if err != nil {
		ac.writeError(w, err)
		return
	}
	token, err := ac.auth.Issue(claim.User, claim.IsMod, claim.Flairs)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Token: token, Claim: claim})
}

func (ac *ApiController) GetApps(w http.ResponseWriter, r *http.Request) {
	apps, err := ac.service.GetApps(r.Context())
	if err != nil {
		ac.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (ac *ApiController) ApproveApp(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !ac.decode(w, r, &req, true) {
		return
	}
	caller := callerFrom(r)
	app, err := ac.service.ApproveApp(r.Context(), caller, chi.URLParam(r, "id"), req.Badge)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.logger.Infof(providers.TypePost, "/u/%s approved %s for /u/%s", caller.Name, app.Flair, app.User)
	writeJSON(w, http.StatusOK, app)
}

func (ac *ApiController) DenyApp(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	app, err := ac.service.DenyApp(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.logger.Infof(providers.TypePost, "/u/%s denied %s for /u/%s", caller.Name, app.Flair, app.User)
	writeJSON(w, http.StatusOK, app)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "compute %s: %s", cacheKey, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// decode reads and validates a JSON body. An empty body is accepted only when optional is set.
func (ac *ApiController) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request"})
		return false
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: v.Errors.One()})
		return false
	}
	return true
}

func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	var (
		formatErr *flair.FormatError
		depErr    *services.DependencyError
	)
	switch {
	case errors.As(err, &formatErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: formatErr.Error()})
	case errors.Is(err, services.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrDuplicateApplication),
		errors.Is(err, services.ErrIneligibleUser),
		errors.Is(err, services.ErrUnexpectedBadge):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &depErr):
		ac.logger.Errorf(providers.TypeApp, "Dependency failure: %s", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream failure: " + depErr.Op})
	default:
		ac.logger.Errorf(providers.TypeApp, "Unhandled error: %s", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func callerFrom(r *http.Request) services.Caller {
	caller := services.Caller{IP: clientIP(r)}
	if claims, ok := providers.ClaimsFromContext(r.Context()); ok {
		caller.Name = claims.Name
		caller.IsMod = claims.IsMod
	}
	return caller
}

// clientIP reads the socket address only. Forwarded headers are resolved
// upstream by providers.RealIPMiddleware for trusted proxies.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
