package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/middleware"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
)

type RouterDeps struct {
	Users        *UserHandler
	Issues       *IssueHandler
	Comments     *CommentHandler
	Files        *FileHandler
	Health       *HealthHandler
	Tokens       *jwt.Issuer
	LoginLimiter limiter.Limiter
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Health.Check)

	users := api.Group("/users")
	users.POST("/signup", deps.Users.Signup)
	users.POST("/login", middleware.RateLimit(deps.LoginLimiter), deps.Users.Login)
	users.POST("/forgotPassword", deps.Users.ForgotPassword)
	users.POST("/resetPassword", deps.Users.ResetPassword)
	users.POST("/resendVerification", deps.Users.ResendVerification)
	users.GET("/:userId/verifyUser", deps.Users.VerifyUser)

	gate := middleware.Auth(deps.Tokens)

	authUsers := users.Group("", gate)
	authUsers.POST("/logout", deps.Users.Logout)
	authUsers.GET("/view/allUsers", deps.Users.List)
	authUsers.GET("/:userId/userDetails", deps.Users.Details)
	authUsers.PUT("/:userId/edit", deps.Users.Edit)
	authUsers.PUT("/:userId/deleteUser", deps.Users.Delete)

	issues := api.Group("/issues", gate)
	issues.POST("/registerIssue", deps.Issues.Register)
	issues.GET("/allIssues", deps.Issues.List)
	issues.GET("/:issueId/getIssue", deps.Issues.Get)
	issues.PUT("/:issueId/editIssue", deps.Issues.Edit)
	issues.PUT("/:issueId/deleteIssue", deps.Issues.Delete)
	issues.PUT("/:issueId/watch", deps.Issues.Watch)
	issues.POST("/uploadAttachment", deps.Files.Upload)

	comments := api.Group("/comments", gate)
	comments.POST("/addComment", deps.Comments.Add)
	comments.GET("/:issueId/getCommentsOnIssue", deps.Comments.ListByIssue)

	api.GET("/files/:key", deps.Files.Get)
}
