// Package dedupe exposes the duplicate scan and merge operations to the
// backoffice UI.
package dedupe

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/matching"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/merging"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/metrics"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

var validate = validator.New()

// Register registers dedupe routes
func Register(g *echo.Group) {
	g.GET("/duplicates", ScanDuplicates)
	g.POST("/merge", MergeProviders)
	g.POST("/quick-merge", QuickMerge)
}

// MergeRequest is the interactive merge payload. Record A survives.
type MergeRequest struct {
	RecordAID uuid.UUID             `json:"record_a_id" validate:"required"`
	RecordBID uuid.UUID             `json:"record_b_id" validate:"required"`
	Fields    models.FieldSelection `json:"fields" validate:"required"`
}

// ScanDuplicates runs a full registry scan and returns the duplicate groups.
// Scanning is read-only and needs no acting user.
func ScanDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupe_handler.ScanDuplicates")
	defer span.End()

	ctx, scanner, err := ectoinject.GetContext[*matching.Scanner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get scanner")
	}

	start := time.Now()
	result, err := scanner.Scan(ctx)
	if err != nil {
		metrics.RecordScan("failure", time.Since(start).Seconds())
		return err
	}
	metrics.RecordScan("success", time.Since(start).Seconds())
	for _, group := range result.Groups {
		metrics.DuplicateGroupsFound.WithLabelValues(string(group.MatchType)).Inc()
	}

	return c.JSON(http.StatusOK, result)
}

// MergeProviders performs a reviewed merge of two records.
func MergeProviders(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupe_handler.MergeProviders")
	defer span.End()

	var req MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RecordAID == req.RecordBID {
		return httperror.NewHTTPError(http.StatusBadRequest, "cannot merge a record with itself")
	}

	ctx, executor, err := ectoinject.GetContext[*merging.Executor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get executor")
	}

	result, err := executor.Merge(ctx, req.RecordAID, req.RecordBID, req.Fields)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// QuickMerge automatically merges every exact-match duplicate group.
func QuickMerge(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupe_handler.QuickMerge")
	defer span.End()

	ctx, executor, err := ectoinject.GetContext[*merging.Executor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get executor")
	}

	result, err := executor.QuickMergeExactDuplicates(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
