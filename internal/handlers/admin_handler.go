package handlers

import (
	"net/http"

	"messaging_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the administrative chat routes. Access is decided by
// the role authorizer in the request pipeline.
type AdminHandler struct {
	*BaseHandler
	adminService services.AdminService
	userService  services.UserService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService, userService services.UserService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
		userService:  userService,
	}
}

// RegisterRoutes mounts on the /chats group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/stats", h.GetStats)
		admin.DELETE("/users/:userId", h.DeleteUser)
	}
}

// GetStats godoc
// @Summary      Row counts across the messaging tables
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.StatsResponse
// @Failure      401 {object} apperrors.ErrorResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Router       /chats/admin/stats [get]
// @Router       /api/admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GetStats(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteUser godoc
// @Summary      Delete a user and everything attached to it
// @Tags         admin
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Success      204
// @Failure      401 {object} apperrors.ErrorResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /chats/admin/users/{userId} [delete]
// @Router       /api/admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUserByID(c.Request.Context(), h.GetDB(c), actor, c.Param("userId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
