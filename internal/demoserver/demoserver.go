package demoserver

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/avelter/qrscan/internal/logging"
)

// DemoServer serves a small landing page that behaves like the targets QR
// codes usually point at: it echoes UTM parameters and carries a known
// campaign text, so a scan against it exercises every validation dimension.
type Config struct {
	Addr string

	// CampaignText is the phrase content validation can search for.
	CampaignText string
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8090",
		CampaignText: "Summer Campaign 2026",
	}
}

type DemoServer struct {
	cfg    Config
	logger logging.Logger
	mux    *http.ServeMux
}

func New(cfg Config, logger logging.Logger) *DemoServer {
	if cfg.CampaignText == "" {
		cfg.CampaignText = DefaultConfig().CampaignText
	}
	ds := &DemoServer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "demoserver"}),
		mux:    http.NewServeMux(),
	}
	ds.mux.HandleFunc("/", ds.handleLanding)
	ds.mux.HandleFunc("/redirect", ds.handleRedirect)
	ds.mux.HandleFunc("/missing", http.NotFound)
	return ds
}

func (ds *DemoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ds.logger.Debug("demo request",
		logging.Field{Key: "path", Value: r.URL.Path},
		logging.Field{Key: "query", Value: r.URL.RawQuery})
	ds.mux.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (ds *DemoServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ds.cfg.Addr,
		Handler:      ds,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (ds *DemoServer) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>Welcome to the demo landing page.</p>
<ul>
`, html.EscapeString(ds.cfg.CampaignText), html.EscapeString(ds.cfg.CampaignText))
	for key, values := range r.URL.Query() {
		for _, v := range values {
			fmt.Fprintf(w, "<li>%s = %s</li>\n", html.EscapeString(key), html.EscapeString(v))
		}
	}
	fmt.Fprint(w, "</ul>\n</body>\n</html>\n")
}

// handleRedirect bounces to the landing page, preserving the query, so
// redirect tracking during validation can be demonstrated.
func (ds *DemoServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}
