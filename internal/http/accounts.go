package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinein/internal/domain"
	"dinein/internal/service"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.Session
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]any "requires_password_setup"
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type setupPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// @Summary Complete staff invitation
// @Tags auth
// @Accept json
// @Produce json
// @Param input body setupPasswordReq true "Setup token and new password"
// @Success 200 {object} service.Session
// @Failure 400 {object} map[string]string
// @Router /auth/setup-password [post]
func (s *Server) setupPassword(c *gin.Context) {
	var req setupPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.svc.Auth.SetupPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type createRestaurantReq struct {
	Name          string `json:"name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerName     string `json:"owner_name"`
	OwnerPassword string `json:"owner_password"`
}

// @Summary Register restaurant with its admin
// @Tags restaurants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createRestaurantReq true "Restaurant"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /restaurants [post]
func (s *Server) createRestaurant(c *gin.Context) {
	var req createRestaurantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rest, owner, err := s.svc.Restaurants.Register(c.Request.Context(), principal(c), service.RegisterRestaurantInput{
		Name:          req.Name,
		OwnerEmail:    req.OwnerEmail,
		OwnerName:     req.OwnerName,
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": rest, "owner": owner})
}

// @Summary Get restaurant
// @Tags restaurants
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} domain.Restaurant
// @Failure 404 {object} map[string]string
// @Router /restaurants/{id} [get]
func (s *Server) getRestaurant(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	rest, err := s.svc.Restaurants.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rest)
}

type gatewayReq struct {
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
}

// @Summary Configure the restaurant's own payment gateway
// @Tags restaurants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param input body gatewayReq true "Gateway keys; empty values switch back to platform payments"
// @Success 200 {object} domain.Restaurant
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /restaurants/{id}/gateway [put]
func (s *Server) configureGateway(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req gatewayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rest, err := s.svc.Restaurants.ConfigureGateway(c.Request.Context(), principal(c), id, req.KeyID, req.KeySecret)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rest)
}

func parseTabs(names []string) (domain.CapabilitySet, error) {
	tabs, ok := domain.ParseCapabilitySet(names)
	if !ok {
		return 0, fmt.Errorf("%w: unknown tab in %v", service.ErrInvalidInput, names)
	}
	return tabs, nil
}

type inviteStaffReq struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Tabs  []string `json:"tabs"`
}

// @Summary Invite staff member
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param input body inviteStaffReq true "Invitation"
// @Success 201 {object} service.Invitation
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /restaurants/{id}/staff [post]
func (s *Server) inviteStaff(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req inviteStaffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tabs, err := parseTabs(req.Tabs)
	if err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.svc.Auth.InviteStaff(c.Request.Context(), principal(c), id, service.InviteStaffInput{
		Email: req.Email,
		Name:  req.Name,
		Tabs:  tabs,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

type staffPermissionsReq struct {
	Tabs   []string `json:"tabs"`
	Active *bool    `json:"active"`
}

// @Summary Replace staff tabs
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param staffId path int true "Staff user ID"
// @Param input body staffPermissionsReq true "Tabs"
// @Success 200 {object} domain.StaffPermission
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /restaurants/{id}/staff/{staffId}/permissions [put]
func (s *Server) updateStaffPermissions(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	staffID, err := parseID(c.Param("staffId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}
	var req staffPermissionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tabs, err := parseTabs(req.Tabs)
	if err != nil {
		s.fail(c, err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	perm, err := s.svc.Auth.UpdatePermissions(c.Request.Context(), principal(c), id, staffID, tabs, active)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, perm)
}

// @Summary Revoke staff access
// @Tags staff
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param staffId path int true "Staff user ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /restaurants/{id}/staff/{staffId} [delete]
func (s *Server) revokeStaff(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	staffID, err := parseID(c.Param("staffId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}
	if err := s.svc.Auth.RevokeStaff(c.Request.Context(), principal(c), id, staffID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
