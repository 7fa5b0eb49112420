package routes

import (
	"context"
	"errors"
	"mime"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/token"
)

const maxFormMemory = 1 << 20

// Engine is the part of *goSession.Engine the routes drive.
type Engine[U any] interface {
	Login(ctx context.Context, username, password string) (token.Token, error)
	CurrentUser(ctx context.Context, accessToken string) (U, error)
	Logout(ctx context.Context, accessToken string) error
	Config() goSession.Config
}

// Presenter turns a principal into the /me response body.
type Presenter[U any] func(U) any

type Option[U any] func(*Routes[U])

// WithCurrentUser enables the current-user route and renders principals with
// present. Without it the route is not registered.
func WithCurrentUser[U any](present Presenter[U]) Option[U] {
	return func(rt *Routes[U]) {
		rt.present = present
	}
}

// LoginStatus maps every login failure to 400.
var LoginStatus = []middleware.StatusRule{
	{Err: goSession.ErrAuthenticationFailed, Status: http.StatusBadRequest},
	{Err: goSession.ErrSessionCreationFailed, Status: http.StatusBadRequest},
	{Err: goSession.ErrEngineNotReady, Status: http.StatusBadRequest},
}

// LogoutStatus maps every logout failure to 400 with a Bearer challenge.
var LogoutStatus = []middleware.StatusRule{
	{Err: goSession.ErrTokenInvalid, Status: http.StatusBadRequest, Detail: middleware.DetailInvalidCredentials, Challenge: true},
	{Err: goSession.ErrSessionNotFound, Status: http.StatusBadRequest, Detail: middleware.DetailInvalidCredentials, Challenge: true},
	{Err: goSession.ErrSessionInvalidationFailed, Status: http.StatusBadRequest, Detail: middleware.DetailInvalidCredentials, Challenge: true},
	{Err: goSession.ErrEngineNotReady, Status: http.StatusBadRequest, Detail: middleware.DetailInvalidCredentials, Challenge: true},
}

// Routes holds the HTTP handlers for one engine.
type Routes[U any] struct {
	engine  Engine[U]
	paths   goSession.RoutesConfig
	tokens  goSession.TokenConfig
	present Presenter[U]
}

func New[U any](engine Engine[U], opts ...Option[U]) *Routes[U] {
	cfg := engine.Config()
	rt := &Routes[U]{
		engine: engine,
		paths:  cfg.Routes,
		tokens: cfg.Token,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Register installs the routes on mux using the configured paths.
func (rt *Routes[U]) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+rt.paths.LoginPath, rt.Login)
	mux.HandleFunc("DELETE "+rt.paths.LogoutPath, rt.Logout)
	if rt.present != nil && rt.paths.CurrentUserPath != "" {
		mux.Handle("GET "+rt.paths.CurrentUserPath, rt.CurrentUser())
	}
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Login handles the credential form and issues a token.
func (rt *Routes[U]) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		middleware.WriteDetail(w, http.StatusBadRequest, "There was an error parsing the body", false)
		return
	}

	var missing []fieldError
	for _, field := range []string{"username", "password"} {
		if _, ok := r.PostForm[field]; !ok {
			missing = append(missing, fieldError{
				Loc:  []string{"body", field},
				Msg:  "field required",
				Type: "value_error.missing",
			})
		}
	}
	if len(missing) > 0 {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, missing, false)
		return
	}

	tok, err := rt.engine.Login(middleware.RequestContext(r), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		rule := middleware.MatchStatus(LoginStatus, err)
		if rule.Err == nil {
			rule.Status = http.StatusBadRequest
		}
		middleware.WriteDetail(w, rule.Status, []string{err.Error()}, false)
		return
	}

	if tok.TokenType == token.TypeCookie {
		setSessionCookie(w, r, rt.tokens.CookieName, tok.AccessToken)
	}
	middleware.WriteJSON(w, http.StatusCreated, tok)
}

// CurrentUser returns the guarded handler that renders the caller's principal.
func (rt *Routes[U]) CurrentUser() http.Handler {
	guard := middleware.Guard[U](rt.engine, middleware.CookieName(rt.tokens))
	return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext[U](r.Context())
		if !ok {
			middleware.WriteDetail(w, http.StatusUnauthorized, middleware.DetailNotAuthenticated, true)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, rt.present(user))
	}))
}

// Logout ends the caller's session.
func (rt *Routes[U]) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := middleware.TokenFromRequest(r, middleware.CookieName(rt.tokens))
	if !ok {
		middleware.WriteDetail(w, http.StatusUnauthorized, middleware.DetailNotAuthenticated, true)
		return
	}

	if err := rt.engine.Logout(middleware.RequestContext(r), accessToken); err != nil {
		rule := middleware.MatchStatus(LogoutStatus, err)
		if rule.Err == nil {
			rule = LogoutStatus[0]
		}
		middleware.WriteDetail(w, rule.Status, rule.Detail, rule.Challenge)
		return
	}

	if rt.tokens.Type == token.TypeCookie {
		clearSessionCookie(w, r, rt.tokens.CookieName)
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseForm(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		err := r.ParseMultipartForm(maxFormMemory)
		if errors.Is(err, http.ErrNotMultipart) {
			return r.ParseForm()
		}
		return err
	}
	return r.ParseForm()
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
