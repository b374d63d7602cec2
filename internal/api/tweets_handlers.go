package api

import (
	"net/http"
	"strings"
)

// Tweets serves POST /tweets (create).
func (h *Handler) Tweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	tweet, err := h.Store.CreateTweet(user.ID, req.Content)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusCreated, "tweet created", tweet)
}

// UserTweets serves GET /tweets/user/{userId}.
func (h *Handler) UserTweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tweets/user/"), "/")
	if userID == "" {
		writeError(w, notFound("user not found"))
		return
	}
	tweets, err := h.Store.ListUserTweets(userID, viewerID(r))
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "tweets", tweets)
}

// TweetByID serves PATCH/DELETE /tweets/{id}.
func (h *Handler) TweetByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tweets/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, notFound("tweet not found"))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	tweet, exists := h.Store.GetTweet(id)
	if !exists {
		writeError(w, notFound("tweet not found"))
		return
	}
	if tweet.OwnerID != user.ID {
		writeError(w, forbidden("only the owner can modify this tweet"))
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, badRequest("invalid request body"))
			return
		}
		updated, err := h.Store.UpdateTweet(id, req.Content)
		if err != nil {
			writeError(w, storeError(err, "tweet not found"))
			return
		}
		writeData(w, http.StatusOK, "tweet updated", updated)
	case http.MethodDelete:
		if err := h.Store.DeleteTweet(id); err != nil {
			writeError(w, storeError(err, "tweet not found"))
			return
		}
		writeData(w, http.StatusOK, "tweet deleted", nil)
	default:
		methodNotAllowed(w, "PATCH, DELETE")
	}
}
