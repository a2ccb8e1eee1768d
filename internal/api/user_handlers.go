package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/user/signup",
		Summary:     "Create account",
		Description: "Creates a new user account. Emails are unique, case-insensitively.",
		Tags:        []string{"Users"},
		Middlewares: append(s.authOptional(), s.rateLimited),
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/user/login",
		Summary:     "Log in",
		Description: "Checks credentials and sets the token cookie.",
		Tags:        []string{"Users"},
		Middlewares: append(s.authOptional(), s.rateLimited),
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/user/logout",
		Summary:     "Log out",
		Description: "Clears the token cookie. Tokens already issued stay valid until they expire.",
		Tags:        []string{"Users"},
		Middlewares: s.authOptional(),
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/user/me",
		Summary:     "Current user",
		Description: "Returns the identity carried by the caller's token.",
		Tags:        []string{"Users"},
		Security:    authSecurity,
		Middlewares: s.authRequired(),
	}, s.handleMe)
}

// === DTOs ===

// SignupBody is the request body for signup. Fields are checked by the
// service so missing ones get the same message as empty ones.
type SignupBody struct {
	Name     string `json:"name,omitempty" doc:"Display name"`
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
	Role     string `json:"role,omitempty" doc:"Accepted and ignored"`
}

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body SignupBody
}

// LoginBody is the request body for login.
type LoginBody struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginBody
}

// SuccessResponse is the body of signup and login.
type SuccessResponse struct {
	Success string `json:"success" doc:"Outcome"`
}

// SignupOutput wraps the signup response for Huma.
type SignupOutput struct {
	Body SuccessResponse
}

// LoginOutput sets the token cookie.
type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      SuccessResponse
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Message string `json:"message" doc:"Outcome"`
}

// LogoutOutput clears the token cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// MeOutput wraps the current identity for Huma.
type MeOutput struct {
	Body auth.Identity
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
	_, err := s.services.Auth.Signup(ctx, service.SignupRequest{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Role:     input.Body.Role,
	})
	if err != nil {
		return nil, err
	}
	return &SignupOutput{Body: SuccessResponse{Success: "User created successfully"}}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		SetCookie: s.tokenCookie(resp.Token.Value, s.services.Auth.TokenDuration()),
		Body:      SuccessResponse{Success: "User logged in successfully!"},
	}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{
		SetCookie: s.tokenCookie("", 0),
		Body:      MessageResponse{Message: "Logged out"},
	}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	ident, _ := IdentityFrom(ctx)
	return &MeOutput{Body: ident}, nil
}

// tokenCookie builds the auth cookie. A zero ttl expires it immediately.
func (s *Server) tokenCookie(value string, ttl time.Duration) http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl <= 0 {
		maxAge = -1
	}
	return http.Cookie{
		Name:     tokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
