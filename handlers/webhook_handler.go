package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"arogyamandiramAPI/internal/logger"
	"arogyamandiramAPI/internal/user"
	"arogyamandiramAPI/services"
)

const maxWebhookBytes = int64(1 << 20)

type WebhookHandler struct {
	userService *services.UserService
	secret      string
	verifier    *svix.Webhook
}

// NewWebhookHandler takes the Clerk (svix) signing secret. An empty secret skips
// verification, which is only acceptable in development. A secret svix cannot
// parse rejects every delivery.
func NewWebhookHandler(userService *services.UserService, secret string) *WebhookHandler {
	h := &WebhookHandler{
		userService: userService,
		secret:      secret,
	}
	if secret != "" {
		wh, err := svix.NewWebhook(secret)
		if err != nil {
			logger.Error("Invalid CLERK_WEBHOOK_SECRET", "error", err)
		} else {
			h.verifier = wh
		}
	}
	return h
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		logger.Warn("Error reading webhook body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if !h.verifyWebhookSignature(r.Header, body) {
		logger.Warn("Invalid webhook signature")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event user.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("Error parsing webhook", "error", err)
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	logger.Info("Received webhook event", "type", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created":
		err = h.handleUserCreated(ctx, event.Data)
	case "user.updated":
		err = h.handleUserUpdated(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		logger.Debug("Unhandled webhook event type", "type", event.Type)
	}
	if err != nil {
		logger.Error("Error processing webhook", "type", event.Type, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	email, verified := userData.PrimaryEmail()

	username := userData.Username
	if username == "" {
		username = userData.FirstName + userData.LastName
	}

	imageURL := userData.ImageURL
	if imageURL == "" {
		imageURL = userData.ProfileImageURL
	}

	u, err := h.userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:       userData.ID,
		Email:         email,
		Username:      username,
		FirstName:     userData.FirstName,
		LastName:      userData.LastName,
		ImageURL:      imageURL,
		EmailVerified: verified,
	})
	if errors.Is(err, services.ErrUserExists) {
		// svix retries deliveries; a replayed create is not an error
		logger.Info("User already exists", "clerk_id", userData.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create user in database: %w", err)
	}

	logger.Info("Created user", "user_id", u.ID, "clerk_id", u.ClerkID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	imageURL := userData.ImageURL
	if imageURL == "" {
		imageURL = userData.ProfileImageURL
	}

	_, err := h.userService.UpdateProfileByClerkID(ctx, userData.ID, &user.UpdateProfileRequest{
		Username:  userData.Username,
		FirstName: userData.FirstName,
		LastName:  userData.LastName,
		ImageURL:  imageURL,
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	logger.Info("Updated user", "clerk_id", userData.ID)
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.userService.DeleteUserByClerkID(ctx, userData.ID)
	if err != nil && !errors.Is(err, services.ErrUserNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.Info("Deleted user", "clerk_id", userData.ID)
	return nil
}

// verifyWebhookSignature checks the svix-id, svix-timestamp and svix-signature
// headers Clerk sends, including the timestamp tolerance.
func (h *WebhookHandler) verifyWebhookSignature(header http.Header, body []byte) bool {
	if h.secret == "" {
		logger.Warn("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}
	if h.verifier == nil {
		return false
	}

	if err := h.verifier.Verify(body, header); err != nil {
		logger.Debug("Webhook verification failed", "error", err)
		return false
	}
	return true
}
