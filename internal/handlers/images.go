// Package handlers provides the HTTP API handlers for the picrelay server.
package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"net/http"

	// Register decoders for the accepted image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/labstack/echo/v4"

	"github.com/picrelay/picrelay/internal/auth"
	"github.com/picrelay/picrelay/internal/images"
	"github.com/picrelay/picrelay/internal/imagestore"
)

// imageContextKey is the echo context key the attached image record is stored
// under. The record is looked up once per request, by attachImage.
const imageContextKey = "image"

// ImagesHandler serves the /api/v1/images routes.
type ImagesHandler struct {
	service *images.Service
	logger  *slog.Logger
}

// NewImagesHandler creates the images handler.
func NewImagesHandler(log *slog.Logger, service *images.Service) *ImagesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ImagesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "images")),
	}
}

// Register mounts the image routes. Per route the chain is fixed:
// payload validation (when the route accepts a body), then the capability
// gate, then the handler; :id routes resolve the record first.
func (h *ImagesHandler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/images")
	g.GET("", h.List, auth.RequirePermission(auth.PermissionRead))
	g.POST("", h.Create, h.validatePayload, auth.RequirePermission(auth.PermissionCreate))

	item := g.Group("/:id", h.attachImage)
	item.GET("", h.Get, auth.RequirePermission(auth.PermissionRead))
	item.PUT("", h.Replace, h.validatePayload, auth.RequirePermission(auth.PermissionUpdate))
	item.PATCH("", h.Patch, h.validatePayload, auth.RequirePermission(auth.PermissionUpdate))
	item.DELETE("", h.Delete, auth.RequirePermission(auth.PermissionDelete))
}

// attachImage resolves the :id path segment into a loaded record before the
// rest of the chain runs. Every lookup failure is a 404.
func (h *ImagesHandler) attachImage(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		img, err := h.service.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found")
		}
		c.Set(imageContextKey, img)
		return next(c)
	}
}

// validatePayload checks that a base64 data field, when present, decodes to a
// parseable image. A body without a data field passes through; the handler
// enforces whether the payload is required.
func (h *ImagesHandler) validatePayload(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unable to read request body")
		}
		c.Request().Body = io.NopCloser(bytes.NewReader(body))

		var probe struct {
			Data *string `json:"data"`
		}
		if err := json.Unmarshal(body, &probe); err != nil || probe.Data == nil || *probe.Data == "" {
			// No payload to validate; malformed JSON is rejected by Bind later.
			return next(c)
		}

		raw, err := base64.StdEncoding.DecodeString(*probe.Data)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "data is not valid base64").SetInternal(err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "data is not a valid image").SetInternal(err)
		}
		h.logger.Debug("payload validated",
			slog.String("format", format),
			slog.Int("width", cfg.Width),
			slog.Int("height", cfg.Height),
		)
		return next(c)
	}
}

// List godoc
// @Summary List images
// @Description List all image metadata records
// @Tags images
// @Success 200 {array} images.Image
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/images [get]
func (h *ImagesHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to list images").SetInternal(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Upload an image
// @Description Upload a base64 payload to the image store and record its metadata
// @Tags images
// @Param payload body images.CreateRequest true "Image payload"
// @Success 201 {object} images.Image
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/images [post]
func (h *ImagesHandler) Create(c echo.Context) error {
	claims, err := auth.ClaimsFromContext(c)
	if err != nil {
		return err
	}
	var req images.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	img, err := h.service.Create(c.Request().Context(), claims.Subject, req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, img)
}

// Get godoc
// @Summary Get one image
// @Tags images
// @Success 200 {object} images.Image
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/images/{id} [get]
func (h *ImagesHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, attachedImage(c))
}

// Replace godoc
// @Summary Replace an image
// @Description Full update; all of location, description, contentType and data are required
// @Tags images
// @Param payload body images.UpdateRequest true "Image payload"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/images/{id} [put]
func (h *ImagesHandler) Replace(c echo.Context) error {
	var req images.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := h.service.Replace(c.Request().Context(), attachedImage(c), req); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Patch godoc
// @Summary Partially update an image
// @Description Partial update; at least one mutable field must be supplied
// @Tags images
// @Param payload body images.UpdateRequest true "Image payload"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/images/{id} [patch]
func (h *ImagesHandler) Patch(c echo.Context) error {
	var req images.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := h.service.Patch(c.Request().Context(), attachedImage(c), req); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete an image
// @Description Delete the remote image and, after remote confirmation, the local record
// @Tags images
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/images/{id} [delete]
func (h *ImagesHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), attachedImage(c)); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func attachedImage(c echo.Context) images.Image {
	img, _ := c.Get(imageContextKey).(images.Image)
	return img
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, images.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, imagestore.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadRequest, "image store rejected the request").SetInternal(err)
	case errors.Is(err, images.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, "image already exists").SetInternal(err)
	case errors.Is(err, images.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Image not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected error").SetInternal(err)
	}
}
