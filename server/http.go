// Package server exposes the service operations as a JSON-over-HTTP
// API. List results are written as JSON arrays element by element, so
// large result sets reach the client incrementally and a dropped
// client stops the work behind it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herrhippopotamus/trading-rustix/service"
)

type Server struct {
	log    *zap.Logger
	svc    *service.Service
	router *gin.Engine
	http   *http.Server
}

func New(log *zap.Logger, svc *service.Service, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log, true))

	s := &Server{log: log, svc: svc, router: router}
	s.routes()
	s.http = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *Server) routes() {
	r := s.router

	r.POST("/get_ticker_details", s.tickerDetails)
	r.POST("/get_tickers", s.tickers)
	r.POST("/get_security_data", s.securityData)
	r.POST("/get_latest_security_data_date", s.latestSecurityDataDate)

	r.POST("/get_single_security_data", s.movement(false))
	r.POST("/get_avg_security_data", s.movement(true))
	r.POST("/get_ranked_security_data", s.movements(false))
	r.POST("/get_avg_ranked_security_data", s.movements(true))

	r.POST("/get_security_correlation", s.correlations)
	r.POST("/get_mutual_security_correlation", s.mutualCorrelations)
	r.POST("/get_correlating_tickers", s.correlatingTickers)

	r.POST("/get_stock_splits", s.stockSplits)

	r.POST("/create_portfolio", s.createPortfolio)
	r.POST("/delete_portfolio", s.deletePortfolio)
	r.POST("/get_portfolio", s.portfolio)
	r.POST("/get_portfolios", s.portfolios)
	r.POST("/buy_security", s.buySecurity)
	r.POST("/sell_security", s.sellSecurity)
	r.POST("/delete_security", s.deleteSecurity)
	r.POST("/get_portfolio_securities", s.portfolioSecurities)
	r.POST("/get_portfolio_profits", s.portfolioProfits)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// bind decodes the JSON body; an empty body leaves the request at its
// zero value so endpoints with all-optional fields work without one.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": service.ErrInternal.Error()})
	}
}

// streamArray writes items as a JSON array one element at a time,
// flushing after each element and stopping when the client goes away.
func streamArray[T any](s *Server, c *gin.Context, items []T) {
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	w := c.Writer
	io.WriteString(w, "[")
	for i, item := range items {
		if c.Request.Context().Err() != nil {
			return
		}
		if i > 0 {
			io.WriteString(w, ",")
		}
		b, err := json.Marshal(item)
		if err != nil {
			s.log.Error("stream encode", zap.Error(err))
			return
		}
		w.Write(b)
		w.Flush()
	}
	io.WriteString(w, "]")
	w.Flush()
}

// --- catalog ---

func (s *Server) tickerDetails(c *gin.Context) {
	var req service.TickerRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.TickerDetails(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) tickers(c *gin.Context) {
	var req service.TickersRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.Tickers(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

// --- series ---

func (s *Server) securityData(c *gin.Context) {
	var req service.SecurityDataRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.SecurityData(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

func (s *Server) latestSecurityDataDate(c *gin.Context) {
	var req service.LatestDateRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.LatestSecurityDataDate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- movement ---

func (s *Server) movement(average bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.MovementRequest
		if !bind(c, &req) {
			return
		}
		var resp service.MovementResponse
		var err error
		if average {
			resp, err = s.svc.AvgMovement(c.Request.Context(), req)
		} else {
			resp, err = s.svc.Movement(c.Request.Context(), req)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) movements(average bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RankedMovementsRequest
		if !bind(c, &req) {
			return
		}
		var resp []service.MovementResponse
		var err error
		if average {
			resp, err = s.svc.AvgMovements(c.Request.Context(), req)
		} else {
			resp, err = s.svc.Movements(c.Request.Context(), req)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		streamArray(s, c, resp)
	}
}

// --- correlation ---

func (s *Server) correlations(c *gin.Context) {
	var req service.CorrelationsRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.Correlations(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

func (s *Server) mutualCorrelations(c *gin.Context) {
	var req service.CorrelationsRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.MutualCorrelations(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

func (s *Server) correlatingTickers(c *gin.Context) {
	var req service.CorrelatingTickersRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	items, errs, err := s.svc.CorrelatingTickers(ctx, req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	w := c.Writer
	opened := false
	for item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			s.log.Error("stream encode", zap.Error(err))
			return
		}
		if !opened {
			io.WriteString(w, "[")
			opened = true
		} else {
			io.WriteString(w, ",")
		}
		w.Write(b)
		w.Flush()
	}
	if err := <-errs; err != nil {
		if !opened {
			s.fail(c, err)
			return
		}
		// The array is already on the wire; it ends truncated.
		s.log.Error("correlating tickers stream", zap.Error(err))
		return
	}
	if !opened {
		io.WriteString(w, "[")
	}
	io.WriteString(w, "]")
	w.Flush()
}

// --- splits ---

func (s *Server) stockSplits(c *gin.Context) {
	var req service.SplitsRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.StockSplits(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

// --- portfolio ---

type idRequest struct {
	ID string `json:"id"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

func (s *Server) createPortfolio(c *gin.Context) {
	var req service.CreatePortfolioRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.CreatePortfolio(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deletePortfolio(c *gin.Context) {
	var req idRequest
	if !bind(c, &req) {
		return
	}
	if err := s.svc.DeletePortfolio(c.Request.Context(), req.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) portfolio(c *gin.Context) {
	var req idRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.Portfolio(c.Request.Context(), req.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) portfolios(c *gin.Context) {
	var req filterRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.Portfolios(c.Request.Context(), req.Filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

func (s *Server) buySecurity(c *gin.Context) {
	var req service.BuySecurityRequest
	if !bind(c, &req) {
		return
	}
	if err := s.svc.BuySecurity(c.Request.Context(), req); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sellSecurity(c *gin.Context) {
	var req service.SellSecurityRequest
	if !bind(c, &req) {
		return
	}
	if err := s.svc.SellSecurity(c.Request.Context(), req); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteSecurity(c *gin.Context) {
	var req service.DeleteSecurityRequest
	if !bind(c, &req) {
		return
	}
	if err := s.svc.DeleteSecurity(c.Request.Context(), req); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) portfolioSecurities(c *gin.Context) {
	var req idRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.PortfolioSecurities(c.Request.Context(), req.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}

func (s *Server) portfolioProfits(c *gin.Context) {
	var req service.PortfolioProfitsRequest
	if !bind(c, &req) {
		return
	}
	resp, err := s.svc.PortfolioProfits(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	streamArray(s, c, resp)
}
