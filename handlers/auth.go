package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitloop/server/auth"
	"github.com/habitloop/server/models"
	"github.com/habitloop/server/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user account and returns a signed token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Name == "" {
		errorJSON(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		errorJSON(w, http.StatusBadRequest, "Valid email is required")
		return
	}
	if len(in.Password) < 6 {
		errorJSON(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			errorJSON(w, http.StatusConflict, "Email already in use")
			return
		}
		logrus.WithError(err).Error("handlers: create user")
		errorJSON(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	token, err := auth.SignToken(h.Secret, user.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "Error creating user")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login checks credentials and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	user, err := h.Store.UserByEmail(r.Context(), in.Email)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("handlers: login lookup")
		errorJSON(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.SignToken(h.Secret, user.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
