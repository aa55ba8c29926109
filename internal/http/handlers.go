package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"dinein/internal/access"
	"dinein/internal/auth"
	"dinein/internal/payment"
	"dinein/internal/repository"
	"dinein/internal/service"
)

const principalCtxKey = "principal"

// Services всё, что нужно HTTP-слою
type Services struct {
	Orders      *service.OrderService
	Payments    *service.PaymentService
	Menu        *service.MenuService
	Restaurants *service.RestaurantService
	Auth        *service.AuthService
	Reports     *service.ReportService
}

type Options struct {
	Tokens      *auth.Tokens
	Realtime    http.Handler
	CORSOrigins []string
	Logger      *slog.Logger
}

type Server struct {
	engine *gin.Engine
	svc    Services
	tokens *auth.Tokens
	logger *slog.Logger
}

func NewServer(svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(requestLogger(opts.Logger), gin.Recovery(), cors.New(corsConfig(opts.CORSOrigins)))
	s := &Server{engine: r, svc: svc, tokens: opts.Tokens, logger: opts.Logger}
	s.registerRoutes(opts.Realtime)
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes(realtime http.Handler) {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if realtime != nil {
		s.engine.GET("/ws", gin.WrapH(realtime))
	}

	v1 := s.engine.Group("/api/v1")
	{
		authg := v1.Group("/auth")
		authg.POST("/login", s.login)
		authg.POST("/setup-password", s.setupPassword)

		restaurants := v1.Group("/restaurants")
		restaurants.POST("", s.authRequired(), s.createRestaurant)
		restaurants.GET("/:id", s.getRestaurant)
		restaurants.GET("/:id/dishes", s.listDishes)
		restaurants.PUT("/:id/gateway", s.authRequired(), s.configureGateway)
		restaurants.POST("/:id/staff", s.authRequired(), s.inviteStaff)
		restaurants.PUT("/:id/staff/:staffId/permissions", s.authRequired(), s.updateStaffPermissions)
		restaurants.DELETE("/:id/staff/:staffId", s.authRequired(), s.revokeStaff)

		dishes := v1.Group("/dishes")
		dishes.POST("", s.authRequired(), s.createDish)
		dishes.GET("/:id", s.getDish)
		dishes.PUT("/:id/price", s.authRequired(), s.updateDishPrice)

		orders := v1.Group("/orders")
		orders.POST("", s.createOrder)
		orders.POST("/create-payment", s.createPlatformPayment)
		orders.POST("/verify-payment", s.verifyPlatformPayment)
		orders.POST("/create-restaurant-payment", s.createRestaurantPayment)
		orders.POST("/verify-restaurant-payment", s.verifyRestaurantPayment)
		orders.GET("/restaurant/my-orders", s.authRequired(), s.listRestaurantOrders)
		orders.GET("/restaurant/export", s.authRequired(), s.exportRestaurantOrders)
		orders.GET("/:id", s.getOrder)
		orders.PUT("/:id/status", s.authRequired(), s.updateOrderStatus)
		orders.PUT("/:id/cancel", s.cancelOrder)
		orders.PUT("/:id/payment-status", s.authRequired(), s.updatePaymentStatus)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// authRequired разбирает Bearer-токен и кладёт Principal в контекст запроса
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is missing"})
			return
		}
		p, err := s.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalCtxKey, p)
		c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func principal(c *gin.Context) access.Principal {
	if v, ok := c.Get(principalCtxKey); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.Principal{}
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	body := gin.H{"error": err.Error()}
	if errors.Is(err, service.ErrRequiresPasswordSetup) {
		body["requires_password_setup"] = true
	}
	c.JSON(status, body)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, payment.ErrSignatureInvalid),
		errors.Is(err, payment.ErrNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden),
		errors.Is(err, service.ErrRequiresPasswordSetup):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
