package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/server/auth"
	"github.com/habitloop/server/habits"
	"github.com/habitloop/server/models"
	"github.com/habitloop/server/store"
)

// Handler serves the habit API.
type Handler struct {
	Store  *store.Store
	Secret []byte
}

type createHabitRequest struct {
	Title string `json:"title"`
}

func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var in createHabitRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		errorJSON(w, http.StatusBadRequest, "Title is required")
		return
	}

	habit := &models.Habit{
		UserID: auth.ForContext(r.Context()),
		Title:  in.Title,
	}
	if err := h.Store.CreateHabit(r.Context(), habit); err != nil {
		logrus.WithError(err).Error("handlers: create habit")
		errorJSON(w, http.StatusInternalServerError, "Error creating habit")
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Store.HabitsByUser(r.Context(), auth.ForContext(r.Context()))
	if err != nil {
		logrus.WithError(err).Error("handlers: list habits")
		errorJSON(w, http.StatusInternalServerError, "Error fetching habits")
		return
	}
	if hs == nil {
		hs = []models.Habit{}
	}
	writeJSON(w, http.StatusOK, hs)
}

// CheckIn marks the habit done for today. The read-modify-write is retried
// when the conditional store update loses against a concurrent check-in.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.ForContext(r.Context())

	for attempt := 0; attempt < 3; attempt++ {
		habit, err := h.Store.HabitByID(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Habit not found")
			return
		}
		if err != nil {
			logrus.WithError(err).Error("handlers: check-in load")
			errorJSON(w, http.StatusInternalServerError, "Error updating streak")
			return
		}
		if habit.UserID != userID {
			errorJSON(w, http.StatusForbidden, "Unauthorized access")
			return
		}

		if err := habits.CheckIn(habit, time.Now()); err != nil {
			errorJSON(w, http.StatusBadRequest, "Already marked today")
			return
		}

		err = h.Store.RecordCheckIn(r.Context(), habit)
		if errors.Is(err, store.ErrConflict) {
			// Someone else completed today first; re-read and let the
			// engine reject it.
			continue
		}
		if err != nil {
			logrus.WithError(err).Error("handlers: check-in save")
			errorJSON(w, http.StatusInternalServerError, "Error updating streak")
			return
		}
		writeJSON(w, http.StatusOK, habit)
		return
	}

	errorJSON(w, http.StatusConflict, "Check-in conflicted, try again")
}

func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	habit, err := h.Store.HabitByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(w, http.StatusNotFound, "Habit not found")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("handlers: delete load")
		errorJSON(w, http.StatusInternalServerError, "Error deleting habit")
		return
	}
	if habit.UserID != auth.ForContext(r.Context()) {
		errorJSON(w, http.StatusForbidden, "Unauthorized access")
		return
	}

	if err := h.Store.DeleteHabit(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		logrus.WithError(err).Error("handlers: delete habit")
		errorJSON(w, http.StatusInternalServerError, "Error deleting habit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Store.HabitsByUser(r.Context(), auth.ForContext(r.Context()))
	if err != nil {
		logrus.WithError(err).Error("handlers: stats")
		errorJSON(w, http.StatusInternalServerError, "Error fetching stats")
		return
	}
	writeJSON(w, http.StatusOK, habits.ComputeStats(hs, time.Now()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit tracker API running"})
}
