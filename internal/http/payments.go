package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinein/internal/service"
)

// verifyPaymentReq поля callback'а Razorpay Checkout
type verifyPaymentReq struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (r verifyPaymentReq) input() service.VerifyInput {
	return service.VerifyInput{GatewayOrderID: r.OrderID, GatewayPaymentID: r.PaymentID, Signature: r.Signature}
}

// @Summary Start platform-collected online payment
// @Tags payments
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order draft"
// @Success 201 {object} service.Checkout
// @Failure 400 {object} map[string]string
// @Router /orders/create-payment [post]
func (s *Server) createPlatformPayment(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	co, err := s.svc.Payments.CreatePlatformPayment(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

// @Summary Verify platform payment and place the order
// @Tags payments
// @Accept json
// @Produce json
// @Param input body verifyPaymentReq true "Gateway callback"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/verify-payment [post]
func (s *Server) verifyPlatformPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Payments.VerifyPlatformPayment(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Start payment through the restaurant's own gateway
// @Tags payments
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order draft"
// @Success 201 {object} service.Checkout
// @Failure 400 {object} map[string]string
// @Router /orders/create-restaurant-payment [post]
func (s *Server) createRestaurantPayment(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	co, err := s.svc.Payments.CreateRestaurantPayment(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

// @Summary Verify restaurant gateway payment and place the order
// @Tags payments
// @Accept json
// @Produce json
// @Param input body verifyPaymentReq true "Gateway callback"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/verify-restaurant-payment [post]
func (s *Server) verifyRestaurantPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Payments.VerifyRestaurantPayment(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
