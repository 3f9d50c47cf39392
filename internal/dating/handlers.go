package dating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/imadgeboyega/campusmatch/internal/auth"
	"github.com/imadgeboyega/campusmatch/internal/common/utils"
)

type Handler struct {
	service Service
	logger  zerolog.Logger
}

func NewHandler(service Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// writeServiceError maps engine errors onto HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidPreferences), errors.Is(err, ErrSelfLike), errors.Is(err, ErrInvalidProfile):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrScoreCardNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateLike):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = l
	}

	candidates, err := h.service.GetCandidates(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get candidates")
		return
	}

	utils.RespondWithData(w, http.StatusOK, candidates)
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || otherID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	report, err := h.service.CalculateCompatibility(r.Context(), userID, otherID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to calculate compatibility")
		return
	}

	utils.RespondWithData(w, http.StatusOK, report)
}

func (h *Handler) RecordLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto LikeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.RecordLike(r.Context(), userID, dto.ReceiverID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to record like")
		return
	}

	status := http.StatusCreated
	if outcome.Status == LikeMatched {
		status = http.StatusOK
	}
	utils.RespondWithData(w, status, outcome)
}

func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	matches, err := h.service.GetMatches(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get matches")
		return
	}

	utils.RespondWithData(w, http.StatusOK, toMatchViews(userID, matches))
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto UpdatePreferencesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), userID, &dto)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update preferences")
		return
	}

	utils.RespondWithData(w, http.StatusOK, prefs)
}

func (h *Handler) UpdatePersonality(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto UpdatePersonalityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	traits, err := h.service.UpdatePersonality(r.Context(), userID, &dto)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update personality")
		return
	}

	utils.RespondWithData(w, http.StatusOK, traits)
}

func (h *Handler) GetScoreCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	card, err := h.service.GetScoreCard(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get score card")
		return
	}

	utils.RespondWithData(w, http.StatusOK, card)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetEngineStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get stats")
		return
	}

	utils.RespondWithData(w, http.StatusOK, stats)
}
