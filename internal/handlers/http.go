package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/models"
	"github.com/talha7k/qrcode-magic/internal/services"
)

// HTTPHandler exposes the session controller as a local JSON API
type HTTPHandler struct {
	controller *services.SessionController
	logger     *logrus.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(controller *services.SessionController, logger *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{
		controller: controller,
		logger:     logger,
	}
}

// NewRouter builds the gin engine with logging and recovery middleware
func NewRouter(controller *services.SessionController, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	NewHTTPHandler(controller, logger).Register(r)
	return r
}

// Register mounts the API routes
func (h *HTTPHandler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/types", h.listTypes)
	api.GET("/state", h.getState)
	api.PUT("/type", h.switchType)
	api.PUT("/form", h.replaceForm)
	api.PATCH("/form", h.setField)
	api.PUT("/settings", h.updateSettings)
	api.POST("/generate", h.generate)
	api.PUT("/panel", h.setPanel)
	api.DELETE("/storage", h.reset)

	qr := api.Group("/qr")
	qr.GET("/download", h.download)
	qr.GET("/clipboard", h.clipboard)

	entries := api.Group("/entries")
	entries.GET("", h.listEntries)
	entries.POST("", h.saveEntry)
	entries.PATCH("/:id", h.updateEntry)
	entries.DELETE("/:id", h.deleteEntry)
	entries.POST("/:id/load", h.loadEntry)
}

type typeInfo struct {
	Type        models.QRType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
}

type switchTypeRequest struct {
	Type string `json:"type" binding:"required"`
}

type formRequest struct {
	Type string          `json:"type" binding:"required"`
	Data json.RawMessage `json:"data"`
}

type fieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type panelRequest struct {
	Open bool `json:"open"`
}

type saveEntryRequest struct {
	Name string `json:"name" binding:"required"`
}

type updateEntryRequest struct {
	Name *string         `json:"name"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *HTTPHandler) listTypes(c *gin.Context) {
	types := models.AllTypes()
	out := make([]typeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, typeInfo{Type: t, Title: t.Title(), Description: t.Description()})
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

func (h *HTTPHandler) switchType(c *gin.Context) {
	var req switchTypeRequest
	if !h.bind(c, &req) {
		return
	}

	t, err := models.ParseQRType(req.Type)
	if err != nil {
		h.writeError(c, &apperrors.ValidationError{Field: "type", Message: err.Error()})
		return
	}
	if err := h.controller.SwitchType(t); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

func (h *HTTPHandler) replaceForm(c *gin.Context) {
	var req formRequest
	if !h.bind(c, &req) {
		return
	}

	form, err := decodeForm(req.Type, req.Data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.controller.UpdateForm(form); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.controller.State())
}

func (h *HTTPHandler) setField(c *gin.Context) {
	var req fieldRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.controller.SetField(req.Field, req.Value); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.controller.State())
}

func (h *HTTPHandler) updateSettings(c *gin.Context) {
	var settings models.RenderSettings
	if !h.bind(c, &settings) {
		return
	}
	c.JSON(http.StatusOK, h.controller.UpdateSettings(settings))
}

func (h *HTTPHandler) generate(c *gin.Context) {
	if err := h.controller.Generate(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

func (h *HTTPHandler) setPanel(c *gin.Context) {
	var req panelRequest
	if !h.bind(c, &req) {
		return
	}
	h.controller.SetSavedPanelOpen(req.Open)
	c.JSON(http.StatusOK, gin.H{"savedPanelOpen": req.Open})
}

func (h *HTTPHandler) reset(c *gin.Context) {
	if err := h.controller.Reset(); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) download(c *gin.Context) {
	export := h.controller.ExportPNG
	mime := constants.PNGMimeType
	if c.Query("format") == "bmp" {
		export = h.controller.ExportBMP
		mime = constants.BMPMimeType
	}

	name, data, err := export()
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, mime, data)
}

func (h *HTTPHandler) clipboard(c *gin.Context) {
	mime, data, err := h.controller.ClipboardImage()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, mime, data)
}

func (h *HTTPHandler) listEntries(c *gin.Context) {
	var t models.QRType
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParseQRType(raw)
		if err != nil {
			h.writeError(c, &apperrors.ValidationError{Field: "type", Message: err.Error()})
			return
		}
		t = parsed
	}
	c.JSON(http.StatusOK, h.controller.EntriesOf(t))
}

func (h *HTTPHandler) saveEntry(c *gin.Context) {
	var req saveEntryRequest
	if !h.bind(c, &req) {
		return
	}

	entry, err := h.controller.SaveEntry(req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *HTTPHandler) updateEntry(c *gin.Context) {
	var req updateEntryRequest
	if !h.bind(c, &req) {
		return
	}

	update := models.EntryUpdate{Name: req.Name}
	if len(req.Data) > 0 {
		form, err := decodeForm(req.Type, req.Data)
		if err != nil {
			h.writeError(c, err)
			return
		}
		update.Data = form
	}

	entry, err := h.controller.UpdateEntry(c.Param("id"), update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *HTTPHandler) deleteEntry(c *gin.Context) {
	if !h.controller.DeleteEntry(c.Param("id")) {
		h.writeError(c, services.ErrEntryNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) loadEntry(c *gin.Context) {
	if _, err := h.controller.LoadEntry(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

// bind decodes the JSON body and writes a 400 on failure
func (h *HTTPHandler) bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.writeError(c, &apperrors.ValidationError{Field: "body", Message: err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP responses
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var (
		verr *apperrors.ValidationError
		eerr *apperrors.ExportError
		rerr *apperrors.RenderError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, services.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &eerr):
		c.JSON(http.StatusConflict, gin.H{"error": eerr.Error(), "suggestion": eerr.Suggestion()})
	case errors.Is(err, services.ErrNothingToRender):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &rerr):
		h.logger.Errorf("Render failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": rerr.Error()})
	default:
		h.logger.Errorf("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func decodeForm(rawType string, data json.RawMessage) (models.FormState, error) {
	t, err := models.ParseQRType(rawType)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "type", Message: err.Error()}
	}
	form, err := models.DecodeForm(t, data)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "data", Message: err.Error()}
	}
	return form, nil
}

// requestLogger logs each request through logrus
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
