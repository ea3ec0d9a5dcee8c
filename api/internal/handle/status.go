package handle

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const ServiceName = "VisualAssist Backend"

type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *Handle) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "active", Service: ServiceName})
}
