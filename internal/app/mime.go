package app

import (
	"log/slog"
	"mime"
)

// staticMimeTypes covers the embedded asset extensions that minimal container
// images often lack a system mime table for.
var staticMimeTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".svg":   "image/svg+xml",
	".woff2": "font/woff2",
	".pdf":   "application/pdf",
}

func init() {
	for ext, typ := range staticMimeTypes {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			slog.Default().Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
		}
	}
}
