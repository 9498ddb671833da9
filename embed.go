package sitekit

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// admin-events.js (SSE subscription for the admin dashboard).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
