package handlers

import (
	"net/http"

	"messaging_backend/internal/middleware"
	"messaging_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	me := r.Group("/users/me")
	me.Use(middleware.RequireAuth())
	{
		me.GET("", h.Me)
		me.DELETE("", h.DeleteMe)
		me.POST("/delete", h.DeleteMe)
	}
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.UserResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe godoc
// @Summary      Delete own account with everything attached to it
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /api/users/me [delete]
// @Router       /api/users/me/delete [post]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
