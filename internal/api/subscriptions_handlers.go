package api

import (
	"net/http"
	"strings"
)

type subscriptionToggleResponse struct {
	Subscribed bool `json:"subscribed"`
}

// ToggleSubscription serves POST /subscriptions/c/{channelId}.
func (h *Handler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	channelID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/subscriptions/c/"), "/")
	if channelID == "" {
		writeError(w, notFound("channel not found"))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	subscribed, err := h.Store.ToggleSubscription(user.ID, channelID)
	if err != nil {
		writeError(w, storeError(err, "channel not found"))
		return
	}
	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	writeData(w, http.StatusOK, message, subscriptionToggleResponse{Subscribed: subscribed})
}

// ChannelSubscribers serves GET /subscriptions/u/{channelId}.
func (h *Handler) ChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	channelID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/subscriptions/u/"), "/")
	if channelID == "" {
		writeError(w, notFound("channel not found"))
		return
	}
	subscribers, err := h.Store.ListSubscribers(channelID)
	if err != nil {
		writeError(w, storeError(err, "channel not found"))
		return
	}
	writeData(w, http.StatusOK, "subscribers", subscribers)
}

// SubscribedChannels serves GET /subscriptions/channels for the
// authenticated user.
func (h *Handler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	channels, err := h.Store.ListSubscribedChannels(user.ID)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "subscribed channels", channels)
}
