// Package server exposes a trained artifact over HTTP.
package server

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

//go:embed templates/index.html
var indexHTML []byte

// HouseFeatures is the /predict request body. Every field is required; a zero
// value is a valid input, so the fields are pointers.
type HouseFeatures struct {
	YearBuilt    *int     `json:"YearBuilt" binding:"required"`
	OverallQual  *int     `json:"OverallQual" binding:"required"`
	TotalBsmtSF  *float64 `json:"TotalBsmtSF" binding:"required"`
	GrLivArea    *float64 `json:"GrLivArea" binding:"required"`
	FullBath     *int     `json:"FullBath" binding:"required"`
	HalfBath     *int     `json:"HalfBath" binding:"required"`
	GarageCars   *int     `json:"GarageCars" binding:"required"`
	GarageArea   *float64 `json:"GarageArea" binding:"required"`
	TotRmsAbvGrd *int     `json:"TotRmsAbvGrd" binding:"required"`
	Fireplaces   *int     `json:"Fireplaces" binding:"required"`
}

func (h *HouseFeatures) byName() map[string]float64 {
	return map[string]float64{
		"YearBuilt":    float64(*h.YearBuilt),
		"OverallQual":  float64(*h.OverallQual),
		"TotalBsmtSF":  *h.TotalBsmtSF,
		"GrLivArea":    *h.GrLivArea,
		"FullBath":     float64(*h.FullBath),
		"HalfBath":     float64(*h.HalfBath),
		"GarageCars":   float64(*h.GarageCars),
		"GarageArea":   *h.GarageArea,
		"TotRmsAbvGrd": float64(*h.TotRmsAbvGrd),
		"Fireplaces":   float64(*h.Fireplaces),
	}
}

// Vector orders the request values the way the artifact expects them.
func (h *HouseFeatures) Vector(features []string) ([]float64, error) {
	values := h.byName()
	out := make([]float64, len(features))
	for i, f := range features {
		v, ok := values[f]
		if !ok {
			return nil, errors.NewMissingColumnError("HouseFeatures.Vector", f)
		}
		out[i] = v
	}
	return out, nil
}

// PredictResponse is the /predict success body.
type PredictResponse struct {
	PredictedPrice float64 `json:"PredictedPrice"`
}

// Server serves predictions from one loaded artifact.
type Server struct {
	artifact *artifact.Artifact
	logger   *slog.Logger
	router   *gin.Engine
}

// New builds the router. A nil logger uses slog.Default().
func New(a *artifact.Artifact, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{artifact: a, logger: logger.With("component", "server")}
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.GET("/", s.handleIndex)
	router.POST("/predict", s.handlePredict)
	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving predictions", "addr", addr, "model.name", s.artifact.ModelName, "run_id", s.artifact.ID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request handled",
			log.PhaseKey, log.PhaseInference,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handlePredict(c *gin.Context) {
	var req HouseFeatures
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Invalid prediction request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	values, err := req.Vector(s.artifact.Features)
	if err != nil {
		s.logger.Error("Artifact expects a feature the request cannot supply", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}
	price, err := s.artifact.PredictOne(values)
	if err != nil {
		s.logger.Error("Prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}
	c.JSON(http.StatusOK, PredictResponse{PredictedPrice: price})
}
