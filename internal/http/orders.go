package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dinein/internal/domain"
	"dinein/internal/repository"
	"dinein/internal/service"
)

type createOrderReq struct {
	RestaurantID        int64               `json:"restaurant_id"`
	Items               []service.ItemInput `json:"items"`
	CustomerName        string              `json:"customer_name"`
	CustomerPhone       string              `json:"customer_phone"`
	TableNumber         string              `json:"table_number"`
	SpecialInstructions string              `json:"special_instructions"`
	PaymentMethod       string              `json:"payment_method"`
}

func (r createOrderReq) input() service.CreateOrderInput {
	// unknown values fall through to the service, which rejects them
	method, _ := domain.ParsePaymentMethod(r.PaymentMethod)
	return service.CreateOrderInput{
		RestaurantID:        r.RestaurantID,
		Items:               r.Items,
		CustomerName:        r.CustomerName,
		CustomerPhone:       r.CustomerPhone,
		TableNumber:         r.TableNumber,
		SpecialInstructions: r.SpecialInstructions,
		PaymentMethod:       method,
	}
}

// @Summary Create order (cash, card or UPI)
// @Tags orders
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Orders.CreateOrder(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Track order by order number
// @Tags orders
// @Produce json
// @Param id path string true "Order number (ORD-...)"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	// публичный маршрут: :id здесь номер заказа, не последовательный id
	o, err := s.svc.Orders.GetOrderByNumber(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func orderFilterFromQuery(c *gin.Context) (repository.OrderFilter, error) {
	status, _ := domain.ParseOrderStatus(c.Query("status"))
	f := repository.OrderFilter{Status: status, Search: c.Query("search")}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: invalid page", service.ErrInvalidInput)
		}
		f.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: invalid limit", service.ErrInvalidInput)
		}
		f.Limit = n
	}
	return f, nil
}

// @Summary Orders of the caller's restaurant
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Param search query string false "Order number, customer name or phone"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} service.OrderPage
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /orders/restaurant/my-orders [get]
func (s *Server) listRestaurantOrders(c *gin.Context) {
	f, err := orderFilterFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.svc.Orders.ListRestaurantOrders(c.Request.Context(), principal(c), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Export restaurant orders to Excel
// @Tags orders
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "Order status"
// @Param search query string false "Order number, customer name or phone"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Router /orders/restaurant/export [get]
func (s *Server) exportRestaurantOrders(c *gin.Context) {
	f, err := orderFilterFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	p := principal(c)
	file, err := s.svc.Reports.ExportOrders(c.Request.Context(), p, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	name := fmt.Sprintf("orders-%d-%s.xlsx", p.RestaurantID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := file.Write(c.Writer); err != nil {
		s.logger.Error("write export", "restaurant_id", p.RestaurantID, "error", err)
	}
}

type updateStatusReq struct {
	Status        string `json:"status"`
	EstimatedTime *int   `json:"estimated_time"`
}

// @Summary Set order status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body updateStatusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, _ := domain.ParseOrderStatus(req.Status)
	o, err := s.svc.Orders.AdvanceStatus(c.Request.Context(), principal(c), id, status, req.EstimatedTime)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order (customer)
// @Tags orders
// @Produce json
// @Param id path string true "Order number (ORD-...)"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/cancel [put]
func (s *Server) cancelOrder(c *gin.Context) {
	o, err := s.svc.Orders.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updatePaymentStatusReq struct {
	PaymentStatus string `json:"payment_status"`
}

// @Summary Set payment status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body updatePaymentStatusReq true "Payment status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/payment-status [put]
func (s *Server) updatePaymentStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updatePaymentStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, _ := domain.ParsePaymentStatus(req.PaymentStatus)
	o, err := s.svc.Orders.UpdatePaymentStatus(c.Request.Context(), principal(c), id, status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
