package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "stempel_session"
	sessionLifetime   = 7 * 24 * time.Hour
)

// mintSessionToken signs a bearer-of-cookie session claim. The backend has a
// single user, so the token carries only its validity window.
func mintSessionToken(secret []byte, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionLifetime)),
	})
	return token.SignedString(secret)
}

func validSessionToken(secret []byte, raw string) bool {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	return err == nil && token.Valid
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// requireSession guards the API behind a valid session cookie.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || !validSessionToken(h.sessionSecret, cookie.Value) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := h.auth.Login(r.Context(), clientIP(r), req.Password, time.Now()); err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := mintSessionToken(h.sessionSecret, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	http.SetCookie(w, h.sessionCookie(token, int(sessionLifetime.Seconds())))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		authenticated = validSessionToken(h.sessionSecret, cookie.Value)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}
