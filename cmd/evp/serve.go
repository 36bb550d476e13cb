package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/evp/internal/config"
	"github.com/FranksOps/evp/internal/metrics"
	"github.com/FranksOps/evp/internal/pipeline"
	"github.com/FranksOps/evp/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr        string
		metricsPort int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web form",
		Long:  "Start an HTTP server with a form that takes a company name and website and renders the generated EVP with its sources.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, addr, metricsPort)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Port for Prometheus metrics (0 disables)")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, addr string, metricsPort int) error {
	app := &webApp{root: root}
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		root.logger.Info("web form listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if metricsPort > 0 {
		ms := metrics.NewServer(metricsPort)
		g.Go(func() error {
			root.logger.Info("metrics listening", "port", metricsPort)
			return ms.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			return ms.Stop(context.Background())
		})
	}

	return g.Wait()
}

// formData backs the input page. The API key is never echoed back.
type formData struct {
	Company string
	Website string
	BaseURL string
	Model   string
	Error   string
	Notice  string
}

const formTmpl = `<!DOCTYPE html>
<html>
<head>
<title>EVP Builder</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; max-width: 720px; }
  label { display: block; margin-top: 12px; font-weight: bold; }
  input { width: 100%; padding: 6px; }
  button { margin-top: 16px; padding: 8px 16px; }
  .error { padding: 12px; background: #fdecea; border-left: 4px solid #d93025; }
  .notice { padding: 12px; background: #e6f4ea; border-left: 4px solid #188038; }
</style>
</head>
<body>
  <h1>Employee Value Proposition Builder</h1>
  {{- if .Error}}
  <p class="error">{{.Error}}</p>
  {{- end}}
  {{- if .Notice}}
  <p class="notice">{{.Notice}}</p>
  {{- end}}
  <form method="post" action="/generate">
    <label for="company">Company name</label>
    <input id="company" name="company" value="{{.Company}}">
    <label for="website">Company website</label>
    <input id="website" name="website" value="{{.Website}}" placeholder="https://">
    <label for="api_key">API key</label>
    <input id="api_key" name="api_key" type="password" placeholder="defaults to OPENAI_API_KEY">
    <label for="base_url">Base URL</label>
    <input id="base_url" name="base_url" value="{{.BaseURL}}" placeholder="defaults to OPENAI_BASE_URL">
    <label for="model">Model</label>
    <input id="model" name="model" value="{{.Model}}" placeholder="defaults to OPENAI_MODEL">
    <button type="submit">Generate EVP</button>
    <button type="submit" formaction="/check">Check credentials</button>
  </form>
</body>
</html>
`

var formPage = template.Must(template.New("form").Parse(formTmpl))

type webApp struct {
	root *rootOptions
}

func (a *webApp) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleForm)
	mux.HandleFunc("POST /generate", a.handleGenerate)
	mux.HandleFunc("POST /check", a.handleCheck)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (a *webApp) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	a.renderForm(w, http.StatusOK, formData{})
}

// readForm pulls the submitted fields. Each request resolves its own
// overrides; nothing is shared between submissions.
func (a *webApp) readForm(r *http.Request) (formData, config.Overrides, error) {
	if err := r.ParseForm(); err != nil {
		return formData{}, config.Overrides{}, fmt.Errorf("invalid form: %w", err)
	}
	fd := formData{
		Company: strings.TrimSpace(r.PostFormValue("company")),
		Website: strings.TrimSpace(r.PostFormValue("website")),
		BaseURL: strings.TrimSpace(r.PostFormValue("base_url")),
		Model:   strings.TrimSpace(r.PostFormValue("model")),
	}
	o := config.Overrides{
		APIKey:     r.PostFormValue("api_key"),
		BaseURL:    fd.BaseURL,
		Model:      fd.Model,
		ConfigFile: a.root.configFile,
	}
	return fd, o, nil
}

func (a *webApp) handleGenerate(w http.ResponseWriter, r *http.Request) {
	fd, o, err := a.readForm(r)
	if err != nil {
		a.renderForm(w, http.StatusBadRequest, formData{Error: err.Error()})
		return
	}
	if fd.Company == "" || fd.Website == "" {
		fd.Error = "Please provide both the company name and its website."
		a.renderForm(w, http.StatusBadRequest, fd)
		return
	}

	cfg, err := config.Resolve(o)
	if err != nil {
		fd.Error = settingsMessage(err)
		a.renderForm(w, http.StatusBadRequest, fd)
		return
	}
	wf, err := pipeline.New(cfg, pipeline.WithLogger(a.root.logger))
	if err != nil {
		fd.Error = settingsMessage(err)
		a.renderForm(w, http.StatusBadRequest, fd)
		return
	}

	res, err := wf.Run(r.Context(), fd.Company, fd.Website)
	if err != nil {
		a.root.logger.Error("evp generation failed", "company", fd.Company, "err", err)
		fd.Error = "EVP generation failed: " + err.Error()
		a.renderForm(w, http.StatusBadGateway, fd)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, res, "/"); err != nil {
		a.root.logger.Error("failed to render result", "err", err)
	}
}

func (a *webApp) handleCheck(w http.ResponseWriter, r *http.Request) {
	fd, o, err := a.readForm(r)
	if err != nil {
		a.renderForm(w, http.StatusBadRequest, formData{Error: err.Error()})
		return
	}

	cfg, err := checkSettings(r.Context(), o, a.root)
	if err != nil {
		fd.Error = settingsMessage(err)
		a.renderForm(w, http.StatusBadRequest, fd)
		return
	}
	fd.Notice = "Credentials verified with model " + cfg.Settings.Model + "."
	a.renderForm(w, http.StatusOK, fd)
}

func settingsMessage(err error) string {
	if errors.Is(err, config.ErrMissingAPIKey) {
		return "An API key is required. Enter one above or set " + config.EnvAPIKey + "."
	}
	return err.Error()
}

func (a *webApp) renderForm(w http.ResponseWriter, status int, fd formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formPage.Execute(w, fd); err != nil {
		a.root.logger.Error("failed to render form", "err", err)
	}
}
