package simhandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simnotify "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/notify"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// SimHandlers implements the Handlers interface.
type SimHandlers struct {
	service    simservice.Service
	dispatcher Dispatcher
	exporter   Exporter
	updates    message.Subscriber
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewSimHandlers creates a new SimHandlers instance. A nil dispatcher makes every play
// request synchronous; a nil updates subscriber disables the stream.
func NewSimHandlers(
	service simservice.Service,
	dispatcher Dispatcher,
	exporter Exporter,
	updates message.Subscriber,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &SimHandlers{
		service:    service,
		dispatcher: dispatcher,
		exporter:   exporter,
		updates:    updates,
		logger:     logger,
		tracer:     tracer,
	}
}

// PlayRequest is the body of POST /sim/play.
type PlayRequest struct {
	NumDays    int  `json:"numDays"`
	LiveGameID *int `json:"liveGameId,omitempty"`
	// Wait runs the days inside the request instead of queueing them.
	Wait bool `json:"wait"`
}

// ForcedWinnerRequest is the body of PUT /sim/games/{gid}/forced-winner. A null tid clears it.
type ForcedWinnerRequest struct {
	TID *int `json:"tid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *SimHandlers) HandlePlay(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandlePlay")
	defer span.End()

	var body PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.NumDays < 1 {
		http.Error(w, "numDays must be at least 1", http.StatusBadRequest)
		return
	}

	req := simservice.PlayRequest{
		NumDays:    body.NumDays,
		Start:      true,
		LiveGameID: body.LiveGameID,
		Source:     "api",
	}

	if h.dispatcher != nil && !body.Wait {
		runID, err := h.dispatcher.EnqueuePlayDays(ctx, req)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to enqueue play request", slog.String("error", err.Error()))
			http.Error(w, "failed to queue run", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID})
		return
	}

	result, err := h.service.Play(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "Play request failed", slog.String("error", err.Error()))
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		writeJSON(w, failureStatus(failure), errorResponse{Error: failure.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func (h *SimHandlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandleStop")
	defer span.End()

	if err := h.service.Stop(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Stop request failed", slog.String("error", err.Error()))
		http.Error(w, "failed to stop", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (h *SimHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandleStatus")
	defer span.End()

	report, err := h.service.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Status request failed", slog.String("error", err.Error()))
		http.Error(w, "failed to read status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *SimHandlers) HandleSetForcedWinner(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandleSetForcedWinner")
	defer span.End()

	gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	var body ForcedWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.SetForcedWinner(ctx, gid, body.TID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Forced winner update failed",
			slog.Int("gid", gid),
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to set forced winner", http.StatusInternalServerError)
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		writeJSON(w, failureStatus(failure), errorResponse{Error: failure.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func (h *SimHandlers) HandleExportStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandleExportStats")
	defer span.End()

	season, ok := h.season(w, r)
	if !ok {
		return
	}
	playoffs := r.URL.Query().Get("playoffs") == "true"

	data, err := h.exporter.SeasonStatsXLSX(ctx, season, playoffs)
	if err != nil {
		h.logger.ErrorContext(ctx, "Stats export failed", slog.Int("season", season), slog.String("error", err.Error()))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stats-%d.xlsx"`, season))
	_, _ = w.Write(data)
}

func (h *SimHandlers) HandleExportStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SimHandlers.HandleExportStandings")
	defer span.End()

	season, ok := h.season(w, r)
	if !ok {
		return
	}
	data, err := h.exporter.StandingsPNG(ctx, season)
	if err != nil {
		h.logger.ErrorContext(ctx, "Standings chart failed", slog.Int("season", season), slog.String("error", err.Error()))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// HandleUpdates streams realtime updates as server-sent events until the client leaves.
func (h *SimHandlers) HandleUpdates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.updates == nil {
		http.Error(w, "updates are not available", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	messages, err := h.updates.Subscribe(ctx, simnotify.TopicRealtime)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to subscribe to updates", slog.String("error", err.Error()))
		http.Error(w, "failed to subscribe", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-messages:
			if !open {
				return
			}
			_, err := fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			msg.Ack()
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// season reads ?season=, defaulting to the league's current season.
func (h *SimHandlers) season(w http.ResponseWriter, r *http.Request) (int, bool) {
	if raw := r.URL.Query().Get("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid season", http.StatusBadRequest)
			return 0, false
		}
		return season, true
	}
	report, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to resolve current season", slog.String("error", err.Error()))
		http.Error(w, "failed to read status", http.StatusInternalServerError)
		return 0, false
	}
	return report.Season, true
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, simservice.ErrSimulationLocked):
		return http.StatusConflict
	case errors.Is(err, simservice.ErrGodModeDisabled):
		return http.StatusForbidden
	case errors.Is(err, simservice.ErrGameNotScheduled):
		return http.StatusNotFound
	case errors.Is(err, simservice.ErrInvalidForcedWinner):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
