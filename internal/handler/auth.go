package handler

import (
    "context"  // provides context with cancellation for DB calls
    "errors"   // sentinel comparisons against repository errors
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/airplane-seat-booking/internal/config"     // app configuration
    "github.com/iliyamo/airplane-seat-booking/internal/logging"    // structured logger
    "github.com/iliyamo/airplane-seat-booking/internal/repository" // DB repositories
    "github.com/iliyamo/airplane-seat-booking/internal/utils"      // token issuing and hashing
)

// AuthHandler bundles dependencies for account and session endpoints.  It
// only resolves who the caller is; booking code receives the user ID.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Name     string `json:"name"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Name  string `json:"name"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// Register: POST /api/users.  Creates the account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "bad_request", "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Name, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return fail(c, http.StatusConflict, "email_exists", "email already exists")
        }
        logging.L().Errorw("create user failed", "error", err)
        return fail(c, http.StatusInternalServerError, "internal", "create user failed")
    }
    resp, err := h.issue(ctx, userPart{ID: uid, Email: req.Email, Name: strings.TrimSpace(req.Name)})
    if err != nil {
        return fail(c, http.StatusInternalServerError, "internal", err.Error())
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: POST /api/sessions.  Verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "bad_request", "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
        }
        return fail(c, http.StatusServiceUnavailable, "storage_error", "query failed")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
    }
    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Name: u.Name})
    if err != nil {
        return fail(c, http.StatusInternalServerError, "internal", err.Error())
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: POST /api/sessions/refresh.  Validates by hash, revokes the old
// refresh token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, "bad_request", "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return fail(c, http.StatusServiceUnavailable, "storage_error", "revoke failed")
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
        }
        return fail(c, http.StatusServiceUnavailable, "storage_error", "load user failed")
    }
    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Name: u.Name})
    if err != nil {
        return fail(c, http.StatusInternalServerError, "internal", err.Error())
    }
    return c.JSON(http.StatusOK, resp)
}

// Current: GET /api/sessions/current (protected).
func (h *AuthHandler) Current(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "unauthorized", "user no longer exists")
        }
        return fail(c, http.StatusServiceUnavailable, "storage_error", "load user failed")
    }
    return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Name: u.Name})
}

// Logout: DELETE /api/sessions/current (protected).  With a refresh_token in
// the body only that session is revoked; otherwise every refresh token of
// the caller is.
func (h *AuthHandler) Logout(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
    }
    var req refreshReq
    _ = c.Bind(&req) // an empty or missing body means "all sessions"
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw == "" {
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return fail(c, http.StatusServiceUnavailable, "storage_error", "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    }

    hash := utils.HashRefreshRaw(raw)
    owner, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil || owner != uid {
        return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh token")
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return fail(c, http.StatusServiceUnavailable, "storage_error", "logout failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, errors.New("issue access failed")
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, errors.New("issue refresh failed")
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, errors.New("save refresh failed")
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}
