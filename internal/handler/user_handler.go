package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/model"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
	"github.com/xxxsen/issuetracker/internal/service"
)

type UserHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewUserHandler(auth *service.AuthService, users *service.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

type signupRequest struct {
	FirstName    string `json:"firstName" form:"firstName"`
	LastName     string `json:"lastName" form:"lastName"`
	Email        string `json:"email" form:"email"`
	Password     string `json:"password" form:"password"`
	MobileNumber string `json:"mobileNumber" form:"mobileNumber"`
	Country      string `json:"country" form:"country"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type emailRequest struct {
	Email string `json:"email" form:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" form:"token"`
	Password    string `json:"password" form:"password"`
	ResetToken  string `json:"resetToken" form:"resetToken"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

type editUserRequest struct {
	FirstName    *string `json:"firstName" form:"firstName"`
	LastName     *string `json:"lastName" form:"lastName"`
	MobileNumber *string `json:"mobileNumber" form:"mobileNumber"`
	Country      *string `json:"country" form:"country"`
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	details, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		MobileNumber: req.MobileNumber,
		Country:      req.Country,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "User created", details)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Login Successful", result)
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), getUserID(c))
	response.Success(c, "Logged Out Successfully", nil)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "User email address is missing")
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Mail sent Successfully", "Mail sent successfully")
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.Token == "" {
		req.Token = req.ResetToken
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Password == "" {
		req.Password = req.NewPassword
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Password updated successfully", "Password reset successful")
}

func (h *UserHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "User email address is missing")
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Mail sent Successfully", "Mail sent successfully")
}

func (h *UserHandler) VerifyUser(c *gin.Context) {
	userID := c.Param("userId")
	if err := h.auth.VerifyUser(c.Request.Context(), userID, c.Query("token")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "user found & verified", "User Verified Successfully")
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "All User Details Found", users)
}

func (h *UserHandler) Details(c *gin.Context) {
	details, err := h.users.Details(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "User Details Found", details)
}

func (h *UserHandler) Edit(c *gin.Context) {
	var req editUserRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	result, err := h.users.Edit(c.Request.Context(), getActor(c), c.Param("userId"), model.UserProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		Country:      req.Country,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "User details edited", result)
}

func (h *UserHandler) Delete(c *gin.Context) {
	result, err := h.users.Delete(c.Request.Context(), getActor(c), c.Param("userId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Deleted the user successfully", result)
}
