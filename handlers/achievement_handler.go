package handlers

import (
	"context"
	"net/http"
	"time"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/stats"
	"arogyamandiramAPI/services"
)

type AchievementHandler struct {
	userService        *services.UserService
	achievementService *services.AchievementService
}

func NewAchievementHandler(userService *services.UserService, achievementService *services.AchievementService) *AchievementHandler {
	return &AchievementHandler{
		userService:        userService,
		achievementService: achievementService,
	}
}

// GetAchievements recomputes and persists the caller's achievements.
func (h *AchievementHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	res, err := h.achievementService.ComputeAchievements(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *AchievementHandler) PreviewAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	res, err := h.achievementService.Preview(ctx, u.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *AchievementHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	period, err := stats.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "period must be one of week, month, year, all_time")
		return
	}

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	out, err := h.achievementService.Stats(ctx, u.ID, period)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, out)
}

func (h *AchievementHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"badges": achievement.Catalog(),
	})
}
