package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendwise-app/spendwise-api/models"
	"github.com/spendwise-app/spendwise-api/utils"
)

const (
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 3
)

type AuthHandler struct {
	DB *sql.DB
}

// Register creates an unverified account and emails a one-time passcode.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exists bool
	err := h.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", req.Email).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	_, err = h.DB.Exec(`
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
	`, req.Email, passwordHash, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if err := h.issueOTP(req.Email, req.Name); err != nil {
		// Account exists; the code can be re-requested via resend-otp.
		log.Printf("⚠️ Failed to send OTP to %s: %v", req.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Check your email for the verification code.",
		"email":   req.Email,
	})
}

// VerifyOTP checks the emailed code, marks the account verified, and issues a
// token. Codes expire after 10 minutes and allow 3 attempts.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tokenID, code string
	var expiresAt time.Time
	var attempts int
	err := h.DB.QueryRow(`
		SELECT id, code, expires_at, attempts
		FROM otp_tokens
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, req.Email).Scan(&tokenID, &code, &expiresAt, &attempts)

	if err == sql.ErrNoRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if time.Now().After(expiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}
	if attempts >= otpMaxAttempts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many attempts. Request a new code"})
		return
	}

	if code != req.Code {
		h.DB.Exec("UPDATE otp_tokens SET attempts = attempts + 1 WHERE id = $1", tokenID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}

	if _, err := h.DB.Exec("UPDATE users SET verified = TRUE, updated_at = NOW() WHERE email = $1", req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}
	h.DB.Exec("DELETE FROM otp_tokens WHERE email = $1", req.Email)

	user, err := h.loadUser(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{User: *user, Token: token})
}

// Login authenticates a verified account, requiring a TOTP code when 2FA is
// enabled.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.loadUser(req.Email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.Verified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
		return
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "2FA code required", "requires_2fa": true})
			return
		}
		if !utils.VerifyTOTP(user.TOTPSecret, req.TOTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
			return
		}
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{User: *user, Token: token})
}

// ResendOTP reissues a verification code for an unverified account.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req models.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.loadUser(req.Email)
	if err == sql.ErrNoRows {
		// Same response as success so account existence never leaks.
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a new code was sent"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if user.Verified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account already verified"})
		return
	}

	if err := h.issueOTP(user.Email, user.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a new code was sent"})
}

func (h *AuthHandler) issueOTP(email, name string) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}

	if _, err := h.DB.Exec("DELETE FROM otp_tokens WHERE email = $1", email); err != nil {
		return err
	}
	if _, err := h.DB.Exec(`
		INSERT INTO otp_tokens (email, code, expires_at)
		VALUES ($1, $2, $3)
	`, email, code, time.Now().Add(otpTTL)); err != nil {
		return err
	}

	return utils.SendOTPEmail(email, name, code)
}

func (h *AuthHandler) loadUser(email string) (*models.User, error) {
	var user models.User
	var totpSecret sql.NullString

	err := h.DB.QueryRow(`
		SELECT id, email, password_hash, name, totp_secret, totp_enabled, verified, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &totpSecret,
		&user.TOTPEnabled, &user.Verified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.TOTPSecret = totpSecret.String
	return &user, nil
}
