package public

import (
	"time"

	"github.com/shopcore-next/internal/constants"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	DisplayName    string                              `json:"display_name"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// sessionResponse 会话签发响应
type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newSessionResponse(user *models.User, session *service.IssuedSession) sessionResponse {
	return sessionResponse{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}
}

// Register 用户注册，成功后直接签发会话
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneRegister, req.CaptchaPayload) {
		return
	}

	user, session, err := h.UserAuthService.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		GuestCartKey: c.GetHeader(handlershared.CartKeyHeader),
		Client:       handlershared.ClientMeta(c),
	})
	if err != nil {
		respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, newSessionResponse(user, session))
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneLogin, req.CaptchaPayload) {
		return
	}

	user, session, err := h.UserAuthService.Login(c.Request.Context(), service.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		GuestCartKey: c.GetHeader(handlershared.CartKeyHeader),
		Client:       handlershared.ClientMeta(c),
	})
	if err != nil {
		respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, newSessionResponse(user, session))
}

// Logout 注销当前会话
func (h *Handler) Logout(c *gin.Context) {
	if err := h.UserAuthService.Logout(c.Request.Context(), handlershared.CurrentSessionToken(c)); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// GetMe 当前用户信息
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新昵称
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	user, err := h.UserAuthService.UpdateProfile(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改密码，旧会话全部失效并返回新会话
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	session, err := h.UserAuthService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword, handlershared.ClientMeta(c))
	if err != nil {
		respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, session)
}
