package handler

import (
	"net/http"

	userRepo "failboard.id/failboard/internal/modules/user/repository"
	"failboard.id/failboard/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler covers the user-management surface. Badge and integrity
// administration live in their own modules.
type AdminHandler struct {
	userRepo userRepo.UserRepository
}

func NewAdminHandler(users userRepo.UserRepository) *AdminHandler {
	return &AdminHandler{userRepo: users}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.FindAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.userRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	// Deleting your own admin account is a foot-gun.
	if selfID, err := response.GetUserID(c); err == nil && selfID.String() == c.Param("id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.userRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
