// Package server is the HTTP boundary: merchant metadata for wallet
// display, the transaction-fetch endpoint wallets resolve payment URLs
// into, and payment-request creation for the storefront.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/request"
	"github.com/vitwit/solpay/types"
)

// PaymentService is the surface the boundary needs from the core.
type PaymentService interface {
	BuildTransaction(ctx context.Context, req *types.PaymentRequest) (*types.BuildResult, error)
	NewPaymentRequest(amount string) (*request.PaymentRequest, error)
	MerchantInfo() types.MerchantInfo
}

type Server struct {
	engine *gin.Engine
	svc    PaymentService
	cfg    *types.Config
	log    logger.Logger
}

// New builds the router. Wallets fetch transactions cross-origin, so CORS
// is open for the payment routes.
func New(svc PaymentService, cfg *types.Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.NoopLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	s := &Server{
		engine: engine,
		svc:    svc,
		cfg:    cfg,
		log:    log,
	}

	engine.GET("/healthz", s.handleHealth)
	if cfg.EnableMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := engine.Group("/api")
	{
		api.GET("/pay", s.handleMerchantInfo)
		api.POST("/pay", s.handleMakeTransaction)
		api.GET("/pay/new", s.handleNewPayment)
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("http server started", map[string]any{"addr": s.cfg.ListenAddr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleMerchantInfo serves the wallet display descriptor. Read-only, no
// side effects.
func (s *Server) handleMerchantInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.MerchantInfo())
}

type makeTransactionBody struct {
	Account string `json:"account"`
}

// handleMakeTransaction is the transaction-fetch query: amount and
// reference arrive as query parameters (so the call is reproducible from
// the encoded URL), the payer account in the body.
func (s *Server) handleMakeTransaction(c *gin.Context) {
	var body makeTransactionBody
	// A missing or malformed body surfaces as a missing account below.
	_ = c.ShouldBindJSON(&body)

	req := &types.PaymentRequest{
		Amount:    c.Query("amount"),
		Reference: c.Query("reference"),
		Account:   body.Account,
	}

	result, err := s.svc.BuildTransaction(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleNewPayment creates a payment attempt: reference, solana: URL and
// QR code.
func (s *Server) handleNewPayment(c *gin.Context) {
	pr, err := s.svc.NewPaymentRequest(c.Query("amount"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderError maps the error taxonomy onto HTTP statuses. Caller faults
// carry their reason verbatim; everything else is opaque so internals
// never leak.
func (s *Server) renderError(c *gin.Context, err error) {
	var typed *types.Error
	if errors.As(err, &typed) {
		switch {
		case typed.CallerFault():
			c.JSON(http.StatusBadRequest, gin.H{"error": typed.Message})
			return
		case typed.Retryable():
			s.log.Warn("transient failure building transaction", map[string]any{"error": typed.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "error creating transaction"})
			return
		}
	}
	s.log.Error("failed to build transaction", map[string]any{"error": err.Error()})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating transaction"})
}
