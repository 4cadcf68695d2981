package app

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/export"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/loader"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.New("dashboard.html").ParseFS(templatesFS, "templates/dashboard.html"))

// pageView adds what only the HTML page needs.
type pageView struct {
	Page
	MapJSON template.JS
}

// Routes registers every endpoint of the dashboard.
func (d *Dashboard) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", d.HandlePage)
	mux.HandleFunc("GET /api/dashboard", d.HandleData)
	mux.HandleFunc("GET /download", d.HandleDownload)
	mux.HandleFunc("GET /healthz", d.HandleHealth)
	mux.HandleFunc("GET /readyz", d.HandleReady)
	mux.Handle("GET /metrics", d.metrics.Handler())
	return mux
}

func (d *Dashboard) selection(w http.ResponseWriter, r *http.Request) (model.Selection, bool) {
	sel, err := ParseSelection(r.URL.Query(), d.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return sel, false
	}
	return sel, true
}

func (d *Dashboard) HandlePage(w http.ResponseWriter, r *http.Request) {
	sel, ok := d.selection(w, r)
	if !ok {
		return
	}
	page := d.Render(r.Context(), sel)

	view := pageView{Page: page, MapJSON: template.JS("null")}
	if page.Map != nil && page.Map.View != nil {
		b, err := json.Marshal(page.Map.View)
		if err != nil {
			d.log.Error().Err(err).Str("render_id", page.RenderID).Msg("encode map view")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		view.MapJSON = template.JS(b)
	}

	// esegui nel buffer: un errore di template non deve lasciare una pagina a metà
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		d.log.Error().Err(err).Str("render_id", page.RenderID).Msg("execute template")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Render-ID", page.RenderID)
	_, _ = buf.WriteTo(w)
}

func (d *Dashboard) HandleData(w http.ResponseWriter, r *http.Request) {
	sel, ok := d.selection(w, r)
	if !ok {
		return
	}
	page := d.Render(r.Context(), sel)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Render-ID", page.RenderID)
	_ = json.NewEncoder(w).Encode(page)
}

func (d *Dashboard) HandleDownload(w http.ResponseWriter, r *http.Request) {
	sel, ok := d.selection(w, r)
	if !ok {
		return
	}

	set, err := d.loadPredictions()
	switch {
	case errors.Is(err, loader.ErrMissing):
		d.metrics.Downloads.WithLabelValues(outcomeMissing).Inc()
		http.Error(w, DownloadUnavailable, http.StatusNotFound)
		return
	case err != nil:
		d.metrics.Downloads.WithLabelValues(outcomeMalformed).Inc()
		http.Error(w, DownloadUnavailable+" "+parseDetail(err), http.StatusUnprocessableEntity)
		return
	}

	// CSV generato in memoria ad ogni richiesta, mai su disco
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, set); err != nil {
		d.metrics.Downloads.WithLabelValues(outcomeRenderErr).Inc()
		d.log.Error().Err(err).Msg("write csv")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	name := export.FileName(sel.Date)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		d.log.Debug().Err(err).Msg("client gone during download")
		return
	}
	// spedisci subito il file: la notifica MQTT non deve trattenerlo nel buffer
	if err := http.NewResponseController(w).Flush(); err != nil {
		d.log.Debug().Err(err).Msg("flush download")
	}
	d.metrics.Downloads.WithLabelValues(outcomeOK).Inc()

	if d.exports != nil {
		evt := model.ExportEvent{
			ID:        uuid.NewString(),
			Date:      sel.ISODate(),
			Region:    string(sel.Region),
			FileName:  name,
			Rows:      set.Len(),
			Timestamp: d.cfg.Now().UTC(),
		}
		// il file è già partito: la notifica non dipende dalla richiesta del client
		ctx := context.WithoutCancel(r.Context())
		_ = d.expGuard.run(ctx, "export", func(ctx context.Context) error {
			return d.exports.NotifyExport(ctx, evt)
		})
	}
	d.log.Info().
		Str("date", sel.ISODate()).
		Str("region", string(sel.Region)).
		Int("rows", set.Len()).
		Str("file", name).
		Msg("csv download")
}

// ===== Health =====

type SourceStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

func (d *Dashboard) Sources() []SourceStatus {
	return []SourceStatus{
		{Name: d.cfg.PredictionFile, Path: d.cfg.PredictionPath(), Present: loader.Exists(d.cfg.PredictionPath())},
		{Name: d.cfg.ComparisonFile, Path: d.cfg.ComparisonPath(), Present: loader.Exists(d.cfg.ComparisonPath())},
	}
}

// Ready is true when both source files exist.
func (d *Dashboard) Ready() bool {
	for _, s := range d.Sources() {
		if !s.Present {
			return false
		}
	}
	return true
}

func (d *Dashboard) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status   string            `json:"status"`
		Sources  []SourceStatus    `json:"sources"`
		Breakers map[string]string `json:"breakers"`
		Time     string            `json:"time"`
	}
	st := status{
		Sources: d.Sources(),
		Breakers: map[string]string{
			"influx": d.snapGuard.State(),
			"mqtt":   d.expGuard.State(),
		},
		Time: d.cfg.Now().UTC().Format(time.RFC3339),
	}
	// il processo è vivo anche senza file: "degraded", mai errore
	st.Status = "ok"
	for _, s := range st.Sources {
		if !s.Present {
			st.Status = "degraded"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 solo se entrambi i file sono presenti.
func (d *Dashboard) HandleReady(w http.ResponseWriter, _ *http.Request) {
	ready := d.Ready()
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
