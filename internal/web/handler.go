package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/* static/*
var content embed.FS

// PageData seeds the form with the server-side defaults
type PageData struct {
	APIURL         string
	BagWeight      int
	AllowOvershoot bool
	OvershootRatio float64
	BottlePenalty  int
	Bottles        []models.BottleRow
}

// Handler handles web UI requests
type Handler struct {
	templates *template.Template
	data      PageData
}

// NewHandler creates a new web handler
func NewHandler(bagWeight int, params algorithm.Params) (*Handler, error) {
	tmpl, err := template.ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		templates: tmpl,
		data: PageData{
			APIURL:         "/api/knapsnack",
			BagWeight:      bagWeight,
			AllowOvershoot: params.AllowOvershoot,
			OvershootRatio: params.OvershootRatio,
			BottlePenalty:  params.BottlePenalty,
			Bottles:        models.Rows(models.GetDefaultBottles()),
		},
	}, nil
}

// SetupRoutes adds web UI routes to the router
func (h *Handler) SetupRoutes(r *chi.Mux) error {
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		return err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", h.HandleIndex)
	return nil
}

// HandleIndex serves the main UI page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", h.data); err != nil {
		logger.Log.Error("Error rendering template", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
