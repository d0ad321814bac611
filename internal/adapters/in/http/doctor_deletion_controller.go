package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/in"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

type DoctorDeletionController struct {
	useCase  in.DoctorDeletionService
	cfg      *config.Config
	gatherer prometheus.Gatherer
	logger   out.LoggerPort
}

func NewDoctorDeletionController(
	useCase in.DoctorDeletionService,
	cfg *config.Config,
	gatherer prometheus.Gatherer,
	logger out.LoggerPort,
) *DoctorDeletionController {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DoctorDeletionController{
		useCase:  useCase,
		cfg:      cfg,
		gatherer: gatherer,
		logger:   logger,
	}
}

func (c *DoctorDeletionController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	api.Use(c.basicAuth())
	{
		api.DELETE("/:resource/:id", c.deleteResource)
		api.GET("/deletions/:resource/:id", c.getReport)
	}
}

type DeletionResponse struct {
	Report domain.DeletionReport `json:"report"`
	Error  string                `json:"error,omitempty"`
}

func (c *DoctorDeletionController) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "version": c.cfg.App.Version})
}

// DELETE /api/v1/doctors/:id выполняет каскад, остальные ресурсы удаляются одной записью
func (c *DoctorDeletionController) deleteResource(ctx *gin.Context) {
	resource, id, ok := c.parseTarget(ctx)
	if !ok {
		return
	}

	// Разрыв соединения клиентом не должен обрывать каскад на середине
	report, err := c.useCase.DeleteResource(context.WithoutCancel(ctx.Request.Context()), resource, id)
	if err != nil {
		c.logger.Warn("http.deletion.failed", out.LogFields{
			"resource": resource,
			"id":       id,
			"error":    err.Error(),
		})
		ctx.JSON(statusForError(err), DeletionResponse{Report: report, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, DeletionResponse{Report: report})
}

func (c *DoctorDeletionController) getReport(ctx *gin.Context) {
	resource, id, ok := c.parseTarget(ctx)
	if !ok {
		return
	}

	report, exists := c.useCase.LastReport(ctx.Request.Context(), resource, id)
	if !exists {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No deletion report for this record"})
		return
	}

	ctx.JSON(http.StatusOK, DeletionResponse{Report: report})
}

func (c *DoctorDeletionController) parseTarget(ctx *gin.Context) (domain.ResourceType, int, bool) {
	resource, err := domain.ParseResourceType(ctx.Param("resource"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", 0, false
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format"})
		return "", 0, false
	}

	return resource, id, true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrDeletionInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownResource):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrListFailed),
		errors.Is(err, domain.ErrDependentDeleteFailed),
		errors.Is(err, domain.ErrDoctorDeleteFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (c *DoctorDeletionController) basicAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth || !c.validClient(username, password) {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Next()
	}
}

func (c *DoctorDeletionController) validClient(username, password string) bool {
	valid := false
	for _, client := range c.cfg.Auth.BasicClients {
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1
		if userOK && passOK {
			valid = true
		}
	}
	return valid
}
