package members

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type MemberController struct {
	memberService *MemberService
}

func NewMemberController(memberService *MemberService) *MemberController {
	return &MemberController{memberService: memberService}
}

func (c *MemberController) RegisterRoutes(router *gin.RouterGroup) {
	memberRoutes := router.Group("/members")

	memberRoutes.GET("/project/:projectId", c.GetProjectMembers)
	memberRoutes.POST("/project/:projectId", c.AddMember)
	memberRoutes.GET("/project/:projectId/assignable", c.GetAssignableUsers)
	memberRoutes.PUT("/project/:projectId/user/:userId", c.UpdateMemberRole)
	memberRoutes.DELETE("/project/:projectId/user/:userId", c.RemoveMember)
	memberRoutes.GET("/user/:userId", c.GetUserProjects)
}

// GetProjectMembers
// @Summary List project members
// @Description Get project members joined with user details
// @Tags members
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} MemberResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/project/{projectId} [get]
func (c *MemberController) GetProjectMembers(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	members, err := c.memberService.ListProjectMembers(ctx.Request.Context(), projectID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve project members")
		return
	}

	ctx.JSON(http.StatusOK, members)
}

// AddMember
// @Summary Add project member
// @Tags members
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body AddMemberRequest true "Member data"
// @Success 201 {object} MemberResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/project/{projectId} [post]
func (c *MemberController) AddMember(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	var request AddMemberRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	member, err := c.memberService.AddMember(ctx.Request.Context(), projectID, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to add member")
		return
	}

	ctx.JSON(http.StatusCreated, member)
}

// GetAssignableUsers
// @Summary List assignable users
// @Description Users with a role that can be assigned tasks in the project
// @Tags members
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.User
// @Failure 404 {object} map[string]string
// @Router /members/project/{projectId}/assignable [get]
func (c *MemberController) GetAssignableUsers(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	users, err := c.memberService.ListAssignableUsers(ctx.Request.Context(), projectID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve assignable users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// UpdateMemberRole
// @Summary Change member role
// @Tags members
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param userId path string true "User ID"
// @Param request body UpdateMemberRoleRequest true "New role"
// @Success 200 {object} models.ProjectMember
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/project/{projectId}/user/{userId} [put]
func (c *MemberController) UpdateMemberRole(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	userID, ok := http_utils.ParseIDParam(ctx, "userId", "user")
	if !ok {
		return
	}

	var request UpdateMemberRoleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	member, err := c.memberService.UpdateMemberRole(ctx.Request.Context(), projectID, userID, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update member role")
		return
	}

	ctx.JSON(http.StatusOK, member)
}

// RemoveMember
// @Summary Remove project member
// @Tags members
// @Param projectId path string true "Project ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/project/{projectId}/user/{userId} [delete]
func (c *MemberController) RemoveMember(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	userID, ok := http_utils.ParseIDParam(ctx, "userId", "user")
	if !ok {
		return
	}

	if err := c.memberService.RemoveMember(ctx.Request.Context(), projectID, userID); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to remove member")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetUserProjects
// @Summary List projects of a user
// @Tags members
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} UserProjectResponse
// @Failure 404 {object} map[string]string
// @Router /members/user/{userId} [get]
func (c *MemberController) GetUserProjects(ctx *gin.Context) {
	userID, ok := http_utils.ParseIDParam(ctx, "userId", "user")
	if !ok {
		return
	}

	projects, err := c.memberService.ListUserProjects(ctx.Request.Context(), userID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve user projects")
		return
	}

	ctx.JSON(http.StatusOK, projects)
}
