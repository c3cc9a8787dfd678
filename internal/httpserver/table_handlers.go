package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
)

type (
	PutRowsReqBody struct {
		Rows []RowBody `validate:"required,min=1,dive"`
	}

	RowBody struct {
		Key   string     `validate:"required"`
		Cells []CellBody `validate:"required,min=1,dive"`
	}

	CellBody struct {
		Family    string `validate:"required"`
		Qualifier string `validate:"required"`
		Timestamp int64  `validate:"gte=0"`
		Value     string
	}

	PutRowsResponse struct {
		Rows  int
		Cells int
	}

	ScanResponse struct {
		Rows []*data.Tuple
	}
)

func (s *HTTPServer) ListTables(c *CustomContext) error {
	return c.JSON(http.StatusOK, s.backend.Tables())
}

func (s *HTTPServer) TableStats(c *CustomContext) error {
	stats, err := s.backend.Stats(c.Param("table"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *HTTPServer) PutRows(c *CustomContext) error {
	var reqBody PutRowsReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}

	table := c.Param("table")
	resp := PutRowsResponse{}
	for _, r := range reqBody.Rows {
		cells := make([]data.Cell, 0, len(r.Cells))
		for _, cb := range r.Cells {
			cells = append(cells, data.Cell{
				Family:    []byte(cb.Family),
				Qualifier: []byte(cb.Qualifier),
				Timestamp: cb.Timestamp,
				Value:     []byte(cb.Value),
			})
		}
		if err := s.backend.Put(table, []byte(r.Key), cells...); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		resp.Rows++
		resp.Cells += len(cells)
	}
	return c.JSON(http.StatusOK, resp)
}

// Scan runs one scan request against the backend. Aggregate scans apply
// their mutations exactly like scans arriving over the region protocol.
func (s *HTTPServer) Scan(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	var req scan.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Table == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scan request without table")
	}

	stream, err := s.backend.Scan(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer stream.Close()

	resp := ScanResponse{Rows: []*data.Tuple{}}
	for {
		row, err := stream.Next(ctx)
		if err != nil {
			return c.InternalError(err, "error reading scan")
		}
		if row == nil {
			break
		}
		resp.Rows = append(resp.Rows, row)
	}
	return c.JSON(http.StatusOK, resp)
}
