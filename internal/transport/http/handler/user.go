package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicoceron/nimble-backend/internal/app"
	"github.com/nicoceron/nimble-backend/internal/transport/http/middleware"
	"github.com/nicoceron/nimble-backend/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(c, err, "register failed")
		return
	}

	response.OK(c, user.View())
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.userService.LoginUser(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(c, err, "login failed")
		return
	}
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "invalid username or password")
		return
	}

	token, err := h.userService.IssueToken(user)
	if err != nil {
		writeServiceError(c, err, "login failed")
		return
	}

	response.OK(c, gin.H{
		"token": token,
		"user":  user.View(),
	})
}

func (h *UserHandler) GetByID(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	user, err := h.userService.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "fetch user failed")
		return
	}
	if user == nil {
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, "user not found")
		return
	}

	response.OK(c, user.View())
}

func (h *UserHandler) Me(c *gin.Context) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	userID, ok := userIDAny.(uint)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	user, err := h.userService.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "fetch current user failed")
		return
	}
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found")
		return
	}

	response.OK(c, user.View())
}
