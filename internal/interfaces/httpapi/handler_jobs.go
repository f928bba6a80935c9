package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/usecase"
)

const maxJobRequestBytes = 1 << 20

func (h *Handler) decodeJobRequest(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJobRequestBytes))
	if err != nil {
		return fmt.Errorf("%w: unable to read request body", usecase.ErrInvalidInput)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed json body", usecase.ErrInvalidInput)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type syncSeasonRequest struct {
	Competition string `json:"competition" validate:"required"`
}

// RunSyncSeasonJob is the scheduler entrypoint for a full season
// reconciliation pass. The response body is the per-record batch report.
func (h *Handler) RunSyncSeasonJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncSeasonJob")
	defer span.End()

	var req syncSeasonRequest
	if err := h.decodeJobRequest(r, &req); err != nil {
		mapError(ctx, w, err)
		return
	}

	report, err := h.syncService.SyncCurrentSeason(ctx, req.Competition)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync season job failed", "competition", req.Competition, "error", err)
		mapError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

type syncMatchWeekRequest struct {
	SeasonID string `json:"seasonId" validate:"required"`
	Week     int    `json:"week" validate:"gte=0"`
}

func (h *Handler) RunSyncMatchWeekJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncMatchWeekJob")
	defer span.End()

	var req syncMatchWeekRequest
	if err := h.decodeJobRequest(r, &req); err != nil {
		mapError(ctx, w, err)
		return
	}

	report, err := h.syncService.SyncMatchWeek(ctx, req.SeasonID, req.Week)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync match week job failed", "season_id", req.SeasonID, "week", req.Week, "error", err)
		mapError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
