package web

import "embed"

// TemplatesFS embeds the page templates and the service worker template.
//
//go:embed templates/*.html templates/*.js
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images/manifest).
//
//go:embed static/*
var StaticFS embed.FS
