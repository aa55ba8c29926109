package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"dinein/internal/domain"
)

type createDishReq struct {
	RestaurantID int64           `json:"restaurant_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Available    *bool           `json:"available"`
}

// @Summary Add dish to the menu
// @Tags dishes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createDishReq true "Dish"
// @Success 201 {object} domain.Dish
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /dishes [post]
func (s *Server) createDish(c *gin.Context) {
	var req createDishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	d, err := s.svc.Menu.Create(c.Request.Context(), principal(c), domain.Dish{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Price:        req.Price,
		Available:    available,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// @Summary Get dish by id
// @Tags dishes
// @Produce json
// @Param id path int true "Dish ID"
// @Success 200 {object} domain.Dish
// @Failure 404 {object} map[string]string
// @Router /dishes/{id} [get]
func (s *Server) getDish(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	d, err := s.svc.Menu.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Restaurant menu
// @Tags dishes
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {array} domain.Dish
// @Router /restaurants/{id}/dishes [get]
func (s *Server) listDishes(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	list, err := s.svc.Menu.ListByRestaurant(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type updatePriceReq struct {
	Price     decimal.Decimal `json:"price"`
	Available *bool           `json:"available"`
}

// @Summary Change dish price
// @Description Existing orders keep the price captured at checkout.
// @Tags dishes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dish ID"
// @Param input body updatePriceReq true "Price"
// @Success 200 {object} domain.Dish
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /dishes/{id}/price [put]
func (s *Server) updateDishPrice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updatePriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := s.svc.Menu.UpdatePrice(c.Request.Context(), principal(c), id, req.Price, req.Available)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
