package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	h "eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
)

// CredentialsRequest carries a username and password. Register accepts it as
// query parameters, form fields or a JSON body; Token reads urlencoded or
// multipart form fields only.
type CredentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"`
}

// maxFormMemory caps the in-memory part of a parsed multipart credentials form.
const maxFormMemory = 1 << 20

// MessageSuccessResponse is the success envelope of GET /protected/.
type MessageSuccessResponse struct {
	Data  h.MessageResponse `json:"data"`
	Error *h.APIError       `json:"error"`
}

// TokenResponse is the OAuth2 password-flow response body for POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register a user
// @Description Creates a user. Credentials may be sent as query parameters, form fields or a JSON body.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param username query string false "Username"
// @Param password query string false "Password"
// @Success 200 {object} helpers.MessageResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error or conflict"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Router /register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(r)
	if err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		return
	}
	if !h.Validate(w, &req) {
		return
	}
	if _, err := c.Service.Register(r.Context(), req.Username, req.Password); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, h.MessageResponse{Message: "User registered successfully"})
}

// Token godoc
// @Summary Issue an access token
// @Description OAuth2 password flow. Returns a bearer token for valid credentials.
// @Tags auth
// @Accept x-www-form-urlencoded,mpfd
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} controllers.TokenResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Router /token [post]
func (c *AuthController) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid form body")
		return
	}
	req := CredentialsRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if !h.Validate(w, &req) {
		return
	}
	token, err := c.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Protected godoc
// @Summary Greet the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MessageSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /protected/ [get]
func (c *AuthController) Protected(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "Not authenticated")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.MessageResponse{
		Message: fmt.Sprintf("Hello, %s! You have access to this protected route.", username),
	})
}

// readCredentials merges credentials from the query string and the body.
// Body values win over query values.
func readCredentials(r *http.Request) (CredentialsRequest, error) {
	q := r.URL.Query()
	req := CredentialsRequest{Username: q.Get("username"), Password: q.Get("password")}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		merge(&req, body)
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, fmt.Errorf("invalid form body: %w", err)
		}
		merge(&req, CredentialsRequest{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")})
	}
	return req, nil
}

func merge(dst *CredentialsRequest, src CredentialsRequest) {
	if src.Username != "" {
		dst.Username = src.Username
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
}
