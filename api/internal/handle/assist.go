package handle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"visual-assist/api/internal/assist"
	"visual-assist/api/internal/logger"
	"visual-assist/api/internal/util"
)

type AssistResponse struct {
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// Assist handles POST /api/assist: a multipart form with an "image" file
// and a "mode" field.
func (h *Handle) Assist(c echo.Context) error {
	fh, err := c.FormFile("image")
	rawMode := c.FormValue("mode")
	if err != nil || strings.TrimSpace(rawMode) == "" {
		return NewBadRequestError(MissingInputMessage, err)
	}

	f, err := fh.Open()
	if err != nil {
		return NewInternalError(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	img, err := io.ReadAll(f)
	if err != nil {
		return NewInternalError(fmt.Errorf("read upload: %w", err))
	}
	if len(img) == 0 {
		return NewBadRequestError(EmptyImageMessage, nil)
	}

	mode, known := assist.ParseMode(rawMode)
	logger.L().Debug("assist request",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"mode", mode,
		"known_mode", known,
		"bytes", len(img),
		"mime", util.SniffImageMIME(img, fh.Header.Get(echo.HeaderContentType)),
	)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	desc, err := h.assistant.Describe(ctx, img, mode)
	if err != nil {
		return NewInternalError(err)
	}

	return c.JSON(http.StatusOK, AssistResponse{
		Status:      StatusSuccess,
		Mode:        rawMode,
		Description: desc,
	})
}
