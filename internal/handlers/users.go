package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/videos"
)

// passwordCost is the bcrypt work factor applied to stored password hashes.
const passwordCost = 10

// CookieSettings controls how the session token cookie is written.
type CookieSettings struct {
	Name   string
	Secure bool
}

// UserHandler implements account endpoints.
type UserHandler struct {
	Users          UserStore
	Sessions       SessionCodec
	Media          MediaGateway
	Cookie         CookieSettings
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type userResponse struct {
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	User    models.PublicUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /api/v1/user/signup. The body is multipart with the
// channel details and a logo image.
func (h UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "user.signup")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Media == nil {
		logger.Error("signup dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		logger.Warn("invalid signup payload", "error", err, "tooLarge", isBodyTooLarge(err))
		rejectBody(ctx, w, err, "All fields are required")
		return
	}
	defer cleanupMultipart(r)

	channelName := formValue(r, "channelName")
	email := strings.ToLower(formValue(r, "email"))
	phone := formValue(r, "phone")
	password := r.PostFormValue("password")

	if channelName == "" || email == "" || phone == "" || password == "" {
		logger.Warn("signup missing fields", "email", email)
		respondMessage(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("signup invalid email", "email", email, "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "Invalid email address")
		return
	}

	logo, ok := formFile(r, "logoUrl", "logo")
	if !ok {
		logger.Warn("signup missing logo", "email", email)
		respondMessage(ctx, w, http.StatusBadRequest, "Please upload a channel logo")
		return
	}

	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		logger.Warn("signup existing account", "email", email)
		respondMessage(ctx, w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup user lookup failed", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	file, err := logo.Open()
	if err != nil {
		logger.Error("signup failed to open logo", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}
	defer file.Close()

	asset, err := h.Media.Upload(ctx, videos.NamespaceLogos, logo.Filename, fileContentType(logo), file)
	if err != nil {
		logger.Error("signup failed to upload logo", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	now := h.now()
	user := models.User{
		ID:                 uuid.NewString(),
		ChannelName:        channelName,
		Email:              email,
		Phone:              phone,
		Password:           string(hashed),
		LogoURL:            asset.URL,
		LogoID:             asset.Handle,
		Videos:             []string{},
		Subscribers:        []string{},
		SubscribedChannels: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup conflict", "email", email)
			respondMessage(ctx, w, http.StatusBadRequest, "User already exists")
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	span.Annotate("userId", user.ID)
	logger.Info("user signed up", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, userResponse{Message: "User created successfully", User: user.Public()})
}

// Login handles POST /api/v1/user/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("login dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		rejectBody(ctx, w, err, "Email and password are required")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		respondMessage(ctx, w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondMessage(ctx, w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error("login user lookup failed", "email", req.Email, "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondMessage(ctx, w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := h.Sessions.Issue(user)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, expiresAt))
	respondJSON(ctx, w, http.StatusOK, userResponse{Message: "Login successful", Token: token, User: user.Public()})
}

// Logout handles POST /api/v1/user/logout. Tokens are stateless, so logging
// out only expires the client's cookie.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	respondMessage(r.Context(), w, http.StatusOK, "Logged out successfully")
}

// Profile handles GET /api/v1/user/profile and returns the current principal.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, userResponse{User: user.Public()})
}

func (h UserHandler) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	name := h.Cookie.Name
	if name == "" {
		name = "token"
	}
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	}
	if value != "" {
		cookie.MaxAge = int(expiresAt.Sub(h.now()).Seconds())
	}
	return cookie
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
