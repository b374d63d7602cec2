// Package api implements the HTTP handlers for the clipstream REST API:
// account registration and JWT auth, videos, tweets, comments, likes,
// subscriptions, playlists, the channel dashboard, and health reporting.
package api
