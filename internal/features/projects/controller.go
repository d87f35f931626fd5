package projects

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type ProjectController struct {
	projectService *ProjectService
}

func NewProjectController(projectService *ProjectService) *ProjectController {
	return &ProjectController{projectService: projectService}
}

func (c *ProjectController) RegisterRoutes(router *gin.RouterGroup) {
	projectRoutes := router.Group("/projects")

	projectRoutes.GET("", c.GetProjects)
	projectRoutes.POST("", c.CreateProject)
	projectRoutes.GET("/:id", c.GetProject)
	projectRoutes.PUT("/:id", c.UpdateProject)
	projectRoutes.DELETE("/:id", c.DeleteProject)
}

// GetProjects
// @Summary List projects
// @Description Get all projects, newest first
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 500 {object} map[string]string
// @Router /projects [get]
func (c *ProjectController) GetProjects(ctx *gin.Context) {
	projects, err := c.projectService.ListProjects(ctx.Request.Context())
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve projects")
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

// CreateProject
// @Summary Create a new project
// @Description Create a project. When owner_id is set the user becomes its owner
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project creation data"
// @Success 201 {object} models.Project
// @Failure 400 {object} map[string]string
// @Router /projects [post]
func (c *ProjectController) CreateProject(ctx *gin.Context) {
	var request CreateProjectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	project, err := c.projectService.CreateProject(ctx.Request.Context(), &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to create project")
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

// GetProject
// @Summary Get project details
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [get]
func (c *ProjectController) GetProject(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "project")
	if !ok {
		return
	}

	project, err := c.projectService.GetProject(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve project")
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// UpdateProject
// @Summary Update project
// @Description Partial update, an empty description clears it
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body UpdateProjectRequest true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [put]
func (c *ProjectController) UpdateProject(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "project")
	if !ok {
		return
	}

	var request UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	project, err := c.projectService.UpdateProject(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update project")
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// DeleteProject
// @Summary Delete project
// @Description Deletes memberships, boards, columns and tasks of the project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} cascade.Report
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [delete]
func (c *ProjectController) DeleteProject(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "project")
	if !ok {
		return
	}

	report, err := c.projectService.DeleteProject(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to delete project")
		return
	}

	ctx.JSON(http.StatusOK, report)
}
