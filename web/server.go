package web

// This file describes the web server for this project.
//
// Note that modules called by this server should provide self-describing
// errors since these are sent directly to an internal server error func:
//
//	web.ServerError(w, r, err)
//
// Each endpoint handler is a HandlerFunc closure so that only the templates
// needed for a specific endpoint are initialised, allowing endpoint-specific
// template error catching.
//
// The current filter selection is owned here: it is decoded wholesale from
// the URL query on each request and the last selection is remembered in the
// visitor's session, so returning to the dashboard without parameters
// restores the previous view.

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/config"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/format"
)

// pageLen is the number of opportunities to show in a page listing.
const pageLen = 6

// sessionFilterKey names the session entry holding the last filter query.
const sessionFilterKey = "filter-query"

//go:embed static
var StaticEmbeddedFS embed.FS

//go:embed templates
var TemplatesEmbeddedFS embed.FS

// WebApp is the configuration object for the web server.
type WebApp struct {
	log       *log.Logger
	cfg       *config.Config
	engine    *analysis.Engine
	formatter *format.Formatter
	sessions  *scs.SessionManager

	staticFS   fs.FS // the fs holding the static web resources.
	templateFS fs.FS // the fs holding the web templates.

	server *http.Server

	// handler holds the current route set. In development mode it is
	// rebuilt when the template watcher reports a change, re-parsing all
	// endpoint templates.
	handler atomic.Value // http.Handler
}

// New initialises a WebApp. An error type is returned for future use.
func New(
	logger *log.Logger,
	cfg *config.Config,
	engine *analysis.Engine,
	formatter *format.Formatter,
	staticFS fs.FS,
	templateFS fs.FS,
) (*WebApp, error) {
	if engine == nil {
		return nil, errors.New("no analysis engine provided")
	}
	if formatter == nil {
		return nil, errors.New("no formatter provided")
	}

	sessions := scs.New()
	sessions.Lifetime = 12 * time.Hour

	// Add settings for the http server.
	server := &http.Server{
		Addr:              cfg.Web.ListenAddress,
		ReadHeaderTimeout: time.Duration(30 * time.Second),
		WriteTimeout:      time.Duration(30 * time.Second),
		MaxHeaderBytes:    1 << 19, // 100k ish
	}

	webApp := &WebApp{
		log:        logger,
		cfg:        cfg,
		engine:     engine,
		formatter:  formatter,
		sessions:   sessions,
		staticFS:   staticFS,
		templateFS: templateFS,
		server:     server,
	}
	webApp.handler.Store(webApp.routes())
	return webApp, nil
}

// StartServer starts the WebApp, blocking until the context is cancelled or
// the server fails. In development mode a template watcher runs alongside
// the server, rebuilding the routes (and so re-parsing the templates) on
// file changes.
func (web *WebApp) StartServer(ctx context.Context) error {

	// dispatch indirects through the handler so the watcher can swap in
	// freshly-parsed templates; session and logging middleware sit outside
	// the swap.
	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		web.handler.Load().(http.Handler).ServeHTTP(w, r)
	})
	web.server.Handler = handlers.LoggingHandler(os.Stdout, web.sessions.LoadAndSave(dispatch))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		web.log.Info("starting server", "address", web.cfg.Web.ListenAddress)
		err := web.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if web.cfg.Web.DevelopmentMode {
		g.Go(func() error {
			return web.watchTemplates(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return web.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchTemplates watches the development template and static directories,
// swapping in a freshly built route set on change.
func (web *WebApp) watchTemplates(ctx context.Context) error {
	notifier, err := NewFileChangeNotifier([]DirFilesDescriptor{
		{Dir: web.cfg.Web.TemplatesPath, FileSuffixes: []string{"html"}},
		{Dir: web.cfg.Web.StaticPath, FileSuffixes: []string{"css", "js"}},
	})
	if err != nil {
		return fmt.Errorf("template watcher setup error: %w", err)
	}

	go func() {
		for range notifier.Update() {
			web.log.Info("template change detected, reloading")
			web.handler.Store(web.routes())
		}
	}()

	return notifier.Watch(ctx)
}

// routes connects all of the endpoints.
func (web *WebApp) routes() http.Handler {

	r := mux.NewRouter()

	staticServer := http.FileServerFS(web.staticFS)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticServer))

	r.Handle(
		"/",
		web.handleDashboard(),
	)

	// Detail page.
	r.Handle(
		"/opportunity/{id:[A-Za-z0-9_-]+}",
		web.handleOpportunityDetail(),
	)

	// Partial page: HTMX partial re-rendering the opportunity table on
	// filter changes.
	r.Handle(
		"/partials/opportunity-table",
		web.handlePartialOpportunityTable(),
	)

	return r
}

// serviceLink is one entry in the dashboard's service type filter.
type serviceLink struct {
	Name   string
	URL    string
	Active bool
}

// serviceLinks builds a filter link per service type, each keeping the rest
// of the current filter selection.
func serviceLinks(form *FilterForm, serviceTypes []string) []serviceLink {
	links := make([]serviceLink, len(serviceTypes))
	for i, st := range serviceTypes {
		links[i] = serviceLink{
			Name:   st,
			URL:    form.WithServiceType(st),
			Active: st == form.ServiceType,
		}
	}
	return links
}

// tableData is the data needed to render the opportunity table, shared by
// the dashboard and its HTMX partial.
type tableData struct {
	Opportunities      []viewOpportunity
	VarianceIndicators int
	Form               *FilterForm
	Validator          *Validator
	Pagination         *Pagination
}

// buildTableData decodes and validates the filter, evaluates it, and
// paginates the subset. The returned data is renderable even when the form
// is invalid.
func (web *WebApp) buildTableData(r *http.Request) (tableData, *analysis.Result, error) {

	form := NewFilterForm()
	if err := DecodeURLParams(r, form); err != nil {
		return tableData{}, nil, err
	}

	validator := NewValidator()
	form.Validate(validator, web.engine.ServiceTypes())

	data := tableData{
		Form:      form,
		Validator: validator,
	}

	// Initialise pagination for default state.
	data.Pagination, _ = NewPagination(1, 1, r.URL.Query())

	if !validator.Valid() {
		return data, nil, nil
	}

	result := web.engine.Evaluate(form.Filter())

	pagination, err := NewPagination(len(result.Opportunities), form.Page, r.URL.Query())
	if err != nil {
		// An out-of-range page falls back to the first page rather than
		// erroring.
		form.Page = 1
		pagination, err = NewPagination(len(result.Opportunities), form.Page, r.URL.Query())
		if err != nil {
			return data, nil, err
		}
	}
	data.Pagination = pagination

	start := form.Offset()
	if start > len(result.Opportunities) {
		start = len(result.Opportunities)
	}
	end := start + pageLen
	if end > len(result.Opportunities) {
		end = len(result.Opportunities)
	}
	data.Opportunities = newViewOpportunities(result.Opportunities[start:end], web.formatter)
	data.VarianceIndicators = analysis.CountVarianceIndicators(result.Opportunities)

	return data, result, nil
}

// handleDashboard serves the dashboard at "/".
func (web *WebApp) handleDashboard() http.Handler {

	name := "dashboard.html"
	tpls := []string{"base.html", "partial-opportunity-table.html", "dashboard.html"}
	templates := template.Must(template.ParseFS(web.templateFS, tpls...))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		ctx := r.Context()

		// A parameter-less visit restores the session's last filter.
		if r.URL.RawQuery == "" {
			if saved := web.sessions.GetString(ctx, sessionFilterKey); saved != "" {
				http.Redirect(w, r, "/?"+saved, http.StatusSeeOther)
				return
			}
		}

		data, result, err := web.buildTableData(r)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		page := struct {
			PageTitle string
			tableData
			ServiceLinks []serviceLink
			Stats        viewStats
			Insights     []viewInsight
			AllDealsURL  string
			KeyFocusURL  string
		}{
			PageTitle:    "Presales Analysis",
			tableData:    data,
			ServiceLinks: serviceLinks(data.Form, web.engine.ServiceTypes()),
			AllDealsURL:  data.Form.WithKeyFocus(false),
			KeyFocusURL:  data.Form.WithKeyFocus(true),
		}

		// Render with errors and return if the form is invalid.
		if !data.Validator.Valid() {
			web.render(w, r, templates, name, page)
			return
		}

		page.Stats = newViewStats(result.Summary, web.formatter)
		page.Insights = newViewInsights(result.Opportunities, web.formatter)

		// Remember the filter for the next parameter-less visit.
		web.sessions.Put(ctx, sessionFilterKey, data.Form.Query())

		web.render(w, r, templates, name, page)
	})
}

// handleOpportunityDetail serves the detail page at /opportunity/<id>.
func (web *WebApp) handleOpportunityDetail() http.Handler {

	name := "opportunity.html"
	tpls := []string{"base.html", "opportunity.html"}
	templates := template.Must(template.ParseFS(web.templateFS, tpls...))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		// Extract route parameters.
		vars, err := validMuxVars(mux.Vars(r), "id")
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := vars["id"]

		record, ok := web.engine.Opportunity(id)
		if !ok {
			web.notFound(w, r, fmt.Sprintf("Opportunity: %q not found", id))
			return
		}

		data := struct {
			PageTitle string
			Detail    viewDetail
		}{
			PageTitle: fmt.Sprintf("Opportunity %s", id),
			Detail:    newViewDetail(record, web.formatter),
		}

		web.render(w, r, templates, name, data)
	})
}

// handlePartialOpportunityTable is the partial htmx endpoint re-rendering
// the opportunity table for a changed filter.
func (web *WebApp) handlePartialOpportunityTable() http.Handler {

	name := "partial-opportunity-table.html"
	tpls := []string{"partial-opportunity-table.html"}
	templates := template.Must(template.ParseFS(web.templateFS, tpls...))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		data, _, err := web.buildTableData(r)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		if data.Validator.Valid() {
			web.sessions.Put(r.Context(), sessionFilterKey, data.Form.Query())
		}

		web.render(w, r, templates, name, data)
	})
}

/* -------------------------------------------------------------------------- */
// Helpers
/* -------------------------------------------------------------------------- */

// render renders the specified template.
func (web *WebApp) render(w http.ResponseWriter, r *http.Request, template *template.Template, filename string, data any) {
	buf := new(bytes.Buffer)
	err := template.ExecuteTemplate(buf, filename, data)
	if err != nil {
		web.log.Error("template rendering error", "template", filename, "error", err)
		web.ServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ServerError logs and returns an internal server error. The error should
// contain the information needed for logging.
func (web *WebApp) ServerError(w http.ResponseWriter, r *http.Request, errs ...error) {
	err := errors.Join(errs...)
	web.log.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError returns a client error.
func (web *WebApp) clientError(w http.ResponseWriter, message string, status int) {
	if message == "" {
		message = http.StatusText(status)
	}
	http.Error(w, message, status)
}

// notFound raises a 404 clientError.
func (web *WebApp) notFound(w http.ResponseWriter, r *http.Request, message string) {
	web.clientError(w, message, http.StatusNotFound)
}
