package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/middleware"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

var ErrInvalidIndex = errors.New("invalid patient index")

// Handler serves the dashboard for a record list fetched once at startup.
// The list is never modified afterwards, so handlers share it without locking.
type Handler struct {
	records      []patient.Record
	loaded       bool
	auditService audit.Service
	logger       *zap.Logger
	defaultImage string
	templates    *template.Template
}

// NewHandler builds a handler. loaded reports whether the startup fetch
// succeeded; when it is false the dashboard shows its empty state.
func NewHandler(
	records []patient.Record,
	loaded bool,
	auditService audit.Service,
	logger *zap.Logger,
	defaultImage string,
) (*Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if defaultImage == "" {
		defaultImage = dashboard.DefaultImage
	}
	return &Handler{
		records:      records,
		loaded:       loaded,
		auditService: auditService,
		logger:       logger,
		defaultImage: defaultImage,
		templates:    templates,
	}, nil
}

// Index shows the first patient, or the empty dashboard when there is none.
func (h *Handler) Index(c *gin.Context) {
	if len(h.records) == 0 {
		page := newPage(nil, h.loaded, -1)
		h.renderTemplate(c, http.StatusOK, "dashboard.html", page)
		return
	}
	h.renderPatient(c, 0)
}

// PatientPage shows the patient at the :index path parameter.
func (h *Handler) PatientPage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.notFound(c, "No patient exists at that position.")
		return
	}
	h.renderPatient(c, index)
}

func (h *Handler) renderPatient(c *gin.Context, index int) {
	page := newPage(dashboard.BuildRoster(h.records, h.defaultImage), h.loaded, index)
	renderer := dashboard.NewRenderer(page, page, dashboard.WithDefaultImage(h.defaultImage))
	defer func() {
		if err := renderer.Close(); err != nil {
			h.logger.Warn("Failed to release chart", zap.Error(err))
		}
	}()

	view, err := renderer.Render(h.records, index)
	switch {
	case errors.Is(err, dashboard.ErrIndexOutOfRange):
		h.notFound(c, "No patient exists at that position.")
		return
	case errors.Is(err, dashboard.ErrEmptyHistory):
		page.Message = "This patient has no diagnosis history yet."
		h.renderTemplate(c, http.StatusUnprocessableEntity, "dashboard.html", page)
		return
	case err != nil:
		h.logger.Error("Failed to render patient", zap.Int("index", index), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	h.recordView(c, view, "web")
	page.Title = view.Name + " | Patient Dashboard"
	h.renderTemplate(c, http.StatusOK, "dashboard.html", page)
}

// APIRoster returns the patient list.
func (h *Handler) APIRoster(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":   dashboard.BuildRoster(h.records, h.defaultImage),
		"loaded": h.loaded,
	})
}

// APIPatient returns the profile view of one patient.
func (h *Handler) APIPatient(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidIndex.Error()})
		return
	}

	view, err := dashboard.BuildView(h.records, index, h.defaultImage)
	switch {
	case errors.Is(err, dashboard.ErrIndexOutOfRange):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, dashboard.ErrEmptyHistory):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build patient view"})
		return
	}

	h.recordView(c, view, "api")
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"patients": len(h.records),
		"loaded":   h.loaded,
	})
}

// NoRoute answers unknown API paths with JSON and everything else with the
// not found page.
func (h *Handler) NoRoute(c *gin.Context) {
	if isAPIPath(c.Request.URL.Path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
		return
	}
	h.notFound(c, "The page you requested does not exist.")
}

func (h *Handler) notFound(c *gin.Context, message string) {
	h.renderTemplate(c, http.StatusNotFound, "not_found.html", gin.H{
		"Title":   "Page Not Found",
		"Message": message,
	})
}

// recordView writes the PHI access event. A failed write is logged and the
// response goes out regardless.
func (h *Handler) recordView(c *gin.Context, view *dashboard.ProfileView, surface string) {
	event := &audit.Event{
		EventType:  audit.EventAccess,
		Actor:      c.ClientIP(),
		Action:     "VIEW",
		Resource:   "patient",
		ResourceID: strconv.Itoa(view.Index),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		RequestID:  c.GetString(middleware.RequestIDKey),
		Status:     "success",
		Details: audit.Details(map[string]string{
			"name":    view.Name,
			"surface": surface,
		}),
	}
	if err := h.auditService.LogEvent(context.WithoutCancel(c.Request.Context()), event); err != nil {
		h.logger.Error("Failed to record audit event",
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
	}
}

// renderTemplate executes into a buffer so a template error never leaves a
// half-written page on the wire.
func (h *Handler) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
