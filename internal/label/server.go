// Package label serves the ground-truth labeling UI: one comic at a
// time with its candidate explanations, a selection form, and progress
// tracking.
package label

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/store"
)

type Server struct {
	e            *echo.Echo
	explanations store.Store[domain.ComicExplanations]
	groundTruth  store.Store[domain.GroundTruthLabel]
	imageDir     string
	logger       *zap.Logger

	// Comic IDs in store order; fixed for the server's lifetime.
	order []string
}

func NewServer(explanations store.Store[domain.ComicExplanations], groundTruth store.Store[domain.GroundTruthLabel], imageDir string, logger *zap.Logger) (*Server, error) {
	order, err := explanations.Keys()
	if err != nil {
		return nil, fmt.Errorf("load explanations: %w", err)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no explanations to label: run generate first")
	}

	s := &Server{
		e:            echo.New(),
		explanations: explanations,
		groundTruth:  groundTruth,
		imageDir:     imageDir,
		logger:       logger,
		order:        order,
	}
	s.e.HideBanner = true
	s.e.Use(middleware.Recover())
	s.bind()
	return s, nil
}

func (s *Server) bind() {
	s.e.GET("/", s.handleIndex)
	s.e.POST("/api/labels", s.handleSaveLabel)
	s.e.GET("/api/progress", s.handleProgress)
	s.e.GET("/images/:filename", s.handleImage)
}

// Start blocks serving HTTP until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(addr)
	}()
	s.logger.Info("labeling server started", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		// Bounded so a hung connection cannot stall the signal path.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.e.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	comicID := c.QueryParam("comic_id")
	if comicID == "" {
		comicID = s.nextUnlabeled("")
	}
	if comicID == "" {
		progress, err := s.progress()
		if err != nil {
			return err
		}
		return c.HTML(http.StatusOK, renderComplete(progress))
	}

	record, ok, err := s.explanations.Get(comicID)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "comic not found")
	}

	existing, _, err := s.groundTruth.Get(comicID)
	if err != nil {
		return err
	}
	progress, err := s.progress()
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, renderLabeling(comicID, &record, &existing, progress, s.indexOf(comicID)+1, len(s.order)))
}

type saveLabelRequest struct {
	ComicID           string `json:"comic_id"`
	Selected          string `json:"selected"`
	CustomExplanation string `json:"custom_explanation"`
}

func (s *Server) handleSaveLabel(c echo.Context) error {
	var req saveLabelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.ComicID == "" || req.Selected == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comic_id and selected are required")
	}

	record, ok, err := s.explanations.Get(req.ComicID)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "comic not found")
	}

	var text string
	if req.Selected == domain.SelectionCustom {
		text = strings.TrimSpace(req.CustomExplanation)
		if text == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "custom selection requires explanation text")
		}
	} else {
		candidate, ok := record.Explanations[req.Selected]
		if !ok || domain.IsErrorEntry(candidate) {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("no usable explanation from model %s", req.Selected))
		}
		text = candidate
	}

	label := domain.NewGroundTruthLabel(req.Selected, text)
	if err := s.groundTruth.Put(req.ComicID, *label); err != nil {
		return err
	}
	s.logger.Info("label saved",
		zap.String("comic", req.ComicID),
		zap.String("selected", req.Selected),
		zap.Bool("custom", label.IsCustom))

	progress, err := s.progress()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"next_comic": s.nextUnlabeled(req.ComicID),
		"progress":   progress,
	})
}

func (s *Server) handleProgress(c echo.Context) error {
	progress, err := s.progress()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, progress)
}

// handleImage serves a comic image, trying the sibling gif/png extension
// when the requested file is missing.
func (s *Server) handleImage(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))

	candidates := []string{filename}
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".gif"):
		candidates = append(candidates, filename[:len(filename)-4]+".png")
	case strings.HasSuffix(lower, ".png"):
		candidates = append(candidates, filename[:len(filename)-4]+".gif")
	}

	for _, name := range candidates {
		path := filepath.Join(s.imageDir, name)
		if _, err := os.Stat(path); err == nil {
			return c.File(path)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "image not found")
}

type Progress struct {
	Total      int     `json:"total"`
	Labeled    int     `json:"labeled"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) progress() (Progress, error) {
	labels, err := s.groundTruth.All()
	if err != nil {
		return Progress{}, err
	}

	labeled := 0
	for _, id := range s.order {
		if _, ok := labels[id]; ok {
			labeled++
		}
	}
	p := Progress{
		Total:     len(s.order),
		Labeled:   labeled,
		Remaining: len(s.order) - labeled,
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Labeled) / float64(p.Total) * 100
	}
	return p, nil
}

// nextUnlabeled returns the first unlabeled comic after the given one,
// wrapping around to the start. Empty when everything is labeled.
func (s *Server) nextUnlabeled(afterID string) string {
	labels, err := s.groundTruth.All()
	if err != nil {
		s.logger.Error("ground truth unreadable", zap.Error(err))
		return ""
	}

	start := 0
	if afterID != "" {
		if i := s.indexOf(afterID); i >= 0 {
			start = i + 1
		}
	}

	for offset := 0; offset < len(s.order); offset++ {
		id := s.order[(start+offset)%len(s.order)]
		if _, ok := labels[id]; !ok {
			return id
		}
	}
	return ""
}

func (s *Server) indexOf(comicID string) int {
	for i, id := range s.order {
		if id == comicID {
			return i
		}
	}
	return -1
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}
