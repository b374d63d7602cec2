package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipstream/internal/models"
)

func publishTestVideo(t *testing.T, handler *Handler, owner models.User, title string) models.Video {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"title":       title,
		"description": "about " + title,
		"duration":    "12.5",
	}, map[string]string{
		"videoFile": "clip.mp4",
		"thumbnail": "thumb.png",
	})
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/videos", body), owner)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Videos(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish %s: status %d body %s", title, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var video models.Video
	if err := json.Unmarshal(env.Data, &video); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	return video
}

func TestPublishVideoRequiresFiles(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")

	body, contentType := multipartBody(t, map[string]string{"title": "clip"}, map[string]string{"thumbnail": "t.png"})
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/videos", body), owner)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Videos(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing videoFile: status %d", rec.Code)
	}
}

func TestGetVideoRecordsView(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	viewer := registerTestUser(t, handler, "viewer")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/videos/"+video.ID, nil), viewer)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get video: status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var summary models.VideoSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Views != 1 {
		t.Fatalf("views = %d, want 1", summary.Views)
	}
	if summary.Owner.Username != "creator" {
		t.Fatalf("owner = %q", summary.Owner.Username)
	}

	history, err := handler.Store.WatchHistory(viewer.ID)
	if err != nil {
		t.Fatalf("WatchHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != video.ID {
		t.Fatalf("history = %+v", history)
	}
}

func TestVideoMutationsAreOwnerOnly(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	other := registerTestUser(t, handler, "other")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/videos/"+video.ID, strings.NewReader(`{"title":"Stolen"}`)), other)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign update: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/videos/"+video.ID, nil), other)
	rec = httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodPatch, "/videos/"+video.ID, strings.NewReader(`{"title":"Renamed"}`)), owner)
	rec = httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteVideoRemovesGatewayObjects(t *testing.T) {
	handler, gateway := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/videos/"+video.ID, nil), owner)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}
	if len(gateway.deletes) != 2 {
		t.Fatalf("gateway deletes = %v, want video and thumbnail", gateway.deletes)
	}
}

func TestHiddenVideoIsInvisibleToOthers(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	viewer := registerTestUser(t, handler, "viewer")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/videos/toggle/publish/"+video.ID, nil), owner)
	rec := httptest.NewRecorder()
	handler.TogglePublish(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle publish: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodGet, "/videos/"+video.ID, nil), viewer)
	rec = httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("hidden video visible to viewer: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodGet, "/videos/"+video.ID, nil), owner)
	rec = httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("hidden video invisible to owner: status %d", rec.Code)
	}
}

func TestCommentHandlers(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	commenter := registerTestUser(t, handler, "commenter")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/comments/"+video.ID, strings.NewReader(`{"content":"nice"}`)), commenter)
	rec := httptest.NewRecorder()
	handler.VideoComments(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create comment: status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var comment models.Comment
	if err := json.Unmarshal(env.Data, &comment); err != nil {
		t.Fatalf("decode comment: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/comments/"+video.ID, nil)
	rec = httptest.NewRecorder()
	handler.VideoComments(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list comments: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/comments/c/"+comment.ID, nil), owner)
	rec = httptest.NewRecorder()
	handler.CommentByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign comment delete: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/comments/c/"+comment.ID, nil), commenter)
	rec = httptest.NewRecorder()
	handler.CommentByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("comment delete: status %d", rec.Code)
	}
}

func TestLikeToggleHandlers(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	fan := registerTestUser(t, handler, "fan")
	video := publishTestVideo(t, handler, owner, "First")

	toggle := func() envelope {
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/likes/toggle/v/"+video.ID, nil), fan)
		rec := httptest.NewRecorder()
		handler.ToggleVideoLike(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle like: status %d body %s", rec.Code, rec.Body.String())
		}
		return decodeEnvelope(t, rec)
	}

	var state likeToggleResponse
	env := toggle()
	if err := json.Unmarshal(env.Data, &state); err != nil || !state.Liked {
		t.Fatalf("first toggle: liked=%v err=%v", state.Liked, err)
	}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/likes/videos", nil), fan)
	rec := httptest.NewRecorder()
	handler.LikedVideos(rec, req)
	env = decodeEnvelope(t, rec)
	var liked []models.VideoSummary
	if err := json.Unmarshal(env.Data, &liked); err != nil {
		t.Fatalf("decode liked videos: %v", err)
	}
	if len(liked) != 1 {
		t.Fatalf("liked videos = %d, want 1", len(liked))
	}

	env = toggle()
	if err := json.Unmarshal(env.Data, &state); err != nil || state.Liked {
		t.Fatalf("second toggle: liked=%v err=%v", state.Liked, err)
	}
}

func TestSubscriptionHandlers(t *testing.T) {
	handler, _ := newTestHandler(t)
	channel := registerTestUser(t, handler, "channel")
	fan := registerTestUser(t, handler, "fan")

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/subscriptions/c/"+channel.ID, nil), fan)
	rec := httptest.NewRecorder()
	handler.ToggleSubscription(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe: status %d body %s", rec.Code, rec.Body.String())
	}

	req = authedRequest(httptest.NewRequest(http.MethodPost, "/subscriptions/c/"+fan.ID, nil), fan)
	rec = httptest.NewRecorder()
	handler.ToggleSubscription(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self subscribe: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/subscriptions/u/"+channel.ID, nil)
	rec = httptest.NewRecorder()
	handler.ChannelSubscribers(rec, req)
	env := decodeEnvelope(t, rec)
	var subscribers []models.OwnerSummary
	if err := json.Unmarshal(env.Data, &subscribers); err != nil {
		t.Fatalf("decode subscribers: %v", err)
	}
	if len(subscribers) != 1 || subscribers[0].Username != "fan" {
		t.Fatalf("subscribers = %+v", subscribers)
	}
}

func TestPlaylistHandlers(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/playlists", strings.NewReader(`{"name":"Favorites"}`)), owner)
	rec := httptest.NewRecorder()
	handler.Playlists(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create playlist: status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var playlist models.Playlist
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}

	path := fmt.Sprintf("/playlists/add/%s/%s", video.ID, playlist.ID)
	req = authedRequest(httptest.NewRequest(http.MethodPatch, path, nil), owner)
	rec = httptest.NewRecorder()
	handler.PlaylistVideo(rec, req, "add")
	if rec.Code != http.StatusOK {
		t.Fatalf("add video: status %d body %s", rec.Code, rec.Body.String())
	}
	env = decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	if len(playlist.VideoIDs) != 1 || playlist.VideoIDs[0] != video.ID {
		t.Fatalf("playlist videos = %v", playlist.VideoIDs)
	}
}

func TestDashboardVideosIncludeHidden(t *testing.T) {
	handler, _ := newTestHandler(t)
	owner := registerTestUser(t, handler, "creator")
	video := publishTestVideo(t, handler, owner, "First")

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/videos/toggle/publish/"+video.ID, nil), owner)
	rec := httptest.NewRecorder()
	handler.TogglePublish(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle publish: status %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodGet, "/dashboard/videos", nil), owner)
	rec = httptest.NewRecorder()
	handler.DashboardVideos(rec, req)
	env := decodeEnvelope(t, rec)
	var videos []models.VideoSummary
	if err := json.Unmarshal(env.Data, &videos); err != nil {
		t.Fatalf("decode dashboard videos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("dashboard videos = %d, want 1", len(videos))
	}
}

func TestHealthReportsStorage(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var report healthResponse
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if report.Checks["storage"] != "ok" {
		t.Fatalf("storage check = %q", report.Checks["storage"])
	}
}
