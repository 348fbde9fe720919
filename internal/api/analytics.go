package api

import (
	"net/http"
	"time"

	"rehearse-backend/internal/database"
	"rehearse-backend/pkg/api"
)

const (
	reportDateLayout      = "2006-01-02"
	reportTimestampLayout = "2006-01-02 15:04:05"
)

func (s *BackendService) ProductUserwiseReport(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ProductUserwiseParams](r)
	if err != nil {
		return nil, err
	}

	var start, end *time.Time
	if params.StartDate != "" && params.EndDate != "" {
		startDate, err := time.Parse(reportDateLayout, params.StartDate)
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		}
		endDate, err := time.Parse(reportDateLayout, params.EndDate)
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		}
		start, end = &startDate, &endDate
	}

	rows, err := database.ProductUserwiseReport(r.Context(), s.db, start, end)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error generating report")
	}

	return convertReportRows(rows), nil
}
