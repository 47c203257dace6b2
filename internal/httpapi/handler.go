// Package httpapi exposes the timekeeping engine over a JSON API. All
// timestamps on the wire are naive local time, YYYY-MM-DDTHH:MM:SS.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/service"
	"github.com/nwidmer/stempel/internal/timeutil"
)

// Handler wires the service layer to HTTP routes.
type Handler struct {
	timesheet   service.TimesheetService
	allocations service.AllocationService
	auth        service.AuthService
	clients     service.ClientService
	projects    service.ProjectService
	reports     service.ReportService

	sessionSecret []byte
	staticDir     string
	logger        *slog.Logger
}

// Options carries the handler's collaborators.
type Options struct {
	Timesheet   service.TimesheetService
	Allocations service.AllocationService
	Auth        service.AuthService
	Clients     service.ClientService
	Projects    service.ProjectService
	Reports     service.ReportService

	SessionSecret []byte
	StaticDir     string
	Logger        *slog.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timesheet:     opts.Timesheet,
		allocations:   opts.Allocations,
		auth:          opts.Auth,
		clients:       opts.Clients,
		projects:      opts.Projects,
		reports:       opts.Reports,
		sessionSecret: opts.SessionSecret,
		staticDir:     opts.StaticDir,
		logger:        logger,
	}
}

// Routes assembles the full route table. Everything under /api except the
// auth endpoints sits behind the session guard.
func (h *Handler) Routes() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/sessions", h.handleListSessions)
	api.HandleFunc("POST /api/sessions", h.handleCreateSession)
	api.HandleFunc("POST /api/sessions/clock-in", h.handleClockIn)
	api.HandleFunc("POST /api/sessions/clock-out", h.handleClockOut)
	api.HandleFunc("PUT /api/sessions/{id}", h.handleUpdateSession)
	api.HandleFunc("DELETE /api/sessions/{id}", h.handleDeleteSession)

	api.HandleFunc("GET /api/allocations", h.handleListAllocations)
	api.HandleFunc("POST /api/allocations", h.handleCreateAllocation)
	api.HandleFunc("PUT /api/allocations/{id}", h.handleUpdateAllocation)
	api.HandleFunc("DELETE /api/allocations/{id}", h.handleDeleteAllocation)

	api.HandleFunc("GET /api/clients", h.handleListClients)
	api.HandleFunc("POST /api/clients", h.handleCreateClient)
	api.HandleFunc("GET /api/clients/{id}", h.handleGetClient)
	api.HandleFunc("PUT /api/clients/{id}", h.handleUpdateClient)
	api.HandleFunc("DELETE /api/clients/{id}", h.handleDeleteClient)

	api.HandleFunc("GET /api/projects", h.handleListProjects)
	api.HandleFunc("POST /api/projects", h.handleCreateProject)
	api.HandleFunc("GET /api/projects/{id}", h.handleGetProject)
	api.HandleFunc("PUT /api/projects/{id}", h.handleUpdateProject)
	api.HandleFunc("DELETE /api/projects/{id}", h.handleDeleteProject)

	api.HandleFunc("GET /api/reports/summary", h.handleSummary)
	api.HandleFunc("GET /api/reports/daily-summary", h.handleDailySummary)
	api.HandleFunc("GET /api/calendar", h.handleCalendar)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
	mux.Handle("/api/", h.requireSession(api))
	mux.Handle("/", h.staticHandler())

	return h.logRequests(mux)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func dateParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return timeutil.DateOf(timeutil.NowNaive()), nil
	}
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: key, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

// asOfParam reads an optional naive timestamp query parameter.
func asOfParam(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return nil, nil
	}
	t, err := timeutil.ParseNaive(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: "as_of", Reason: "must be a naive local timestamp"}
	}
	return &t, nil
}

func parseNaivePtr(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := timeutil.ParseNaive(*raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Reason: "must be a naive local timestamp"}
	}
	return &t, nil
}

// --- sessions ---

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	day, err := h.timesheet.ListForDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDaySessionsView(day))
}

type clockInRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	var req clockInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := parseNaivePtr(req.StartTime, "start_time")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var date *time.Time
	if req.Date != nil && *req.Date != "" {
		d, err := timeutil.ParseDate(*req.Date)
		if err != nil {
			writeServiceError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
			return
		}
		date = &d
	}
	session, err := h.timesheet.ClockIn(r.Context(), date, start)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

type clockOutRequest struct {
	EndTime *string `json:"end_time"`
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	var req clockOutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	end, err := parseNaivePtr(req.EndTime, "end_time")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := h.timesheet.ClockOut(r.Context(), end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

type createSessionRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}
	start, err := timeutil.ParseNaive(req.StartTime)
	if err != nil {
		writeServiceError(w, &domain.ValidationError{Field: "start_time", Reason: "must be a naive local timestamp"})
		return
	}
	end, err := timeutil.ParseNaive(req.EndTime)
	if err != nil {
		writeServiceError(w, &domain.ValidationError{Field: "end_time", Reason: "must be a naive local timestamp"})
		return
	}
	session, err := h.timesheet.CreateManual(r.Context(), date, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

type updateSessionRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := parseNaivePtr(req.StartTime, "start_time")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	end, err := parseNaivePtr(req.EndTime, "end_time")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := h.timesheet.Update(r.Context(), r.PathValue("id"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.timesheet.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- allocations ---

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	day, err := h.allocations.ListForDate(r.Context(), date, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayAllocationsView(day))
}

type createAllocationRequest struct {
	Date      string  `json:"date"`
	ProjectID string  `json:"project_id"`
	Hours     string  `json:"hours"`
	Notes     string  `json:"notes"`
	AsOf      *string `json:"as_of"`
}

func (h *Handler) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req createAllocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}
	hours, err := parseDecimalField(req.Hours, "hours")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	asOf, err := parseNaivePtr(req.AsOf, "as_of")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	allocation, err := h.allocations.Create(r.Context(), service.CreateAllocationInput{
		Date:      date,
		ProjectID: req.ProjectID,
		Hours:     hours,
		Notes:     req.Notes,
		AsOf:      asOf,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAllocationView(allocation))
}

type updateAllocationRequest struct {
	Hours     *string `json:"hours"`
	ProjectID *string `json:"project_id"`
	Notes     *string `json:"notes"`
	AsOf      *string `json:"as_of"`
}

func (h *Handler) handleUpdateAllocation(w http.ResponseWriter, r *http.Request) {
	var req updateAllocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := service.UpdateAllocationInput{ProjectID: req.ProjectID, Notes: req.Notes}
	if req.Hours != nil {
		hours, err := parseDecimalField(*req.Hours, "hours")
		if err != nil {
			writeServiceError(w, err)
			return
		}
		in.Hours = &hours
	}
	asOf, err := parseNaivePtr(req.AsOf, "as_of")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	in.AsOf = asOf

	allocation, err := h.allocations.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationView(allocation))
}

func (h *Handler) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	if err := h.allocations.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- clients ---

type clientRequest struct {
	Name              string  `json:"name"`
	Currency          string  `json:"currency"`
	DefaultHourlyRate string  `json:"default_hourly_rate"`
	HourBudget        *string `json:"hour_budget"`
	IsActive          *bool   `json:"is_active"`
	IsArchived        *bool   `json:"is_archived"`
}

func (h *Handler) clientFromRequest(req clientRequest, existing *domain.Client) (*domain.Client, error) {
	c := &domain.Client{IsActive: true}
	if existing != nil {
		copied := *existing
		c = &copied
	}
	c.Name = req.Name
	c.Currency = domain.Currency(req.Currency)
	if req.DefaultHourlyRate != "" {
		rate, err := parseDecimalField(req.DefaultHourlyRate, "default_hourly_rate")
		if err != nil {
			return nil, err
		}
		c.DefaultHourlyRate = rate
	}
	if req.HourBudget != nil {
		budget, err := parseDecimalField(*req.HourBudget, "hour_budget")
		if err != nil {
			return nil, err
		}
		c.HourBudget = &budget
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.IsArchived != nil {
		c.IsArchived = *req.IsArchived
	}
	return c, nil
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	clients, err := h.clients.List(r.Context(), includeArchived)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]clientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, toClientView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": views})
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	client, err := h.clientFromRequest(req, nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.clients.Create(r.Context(), client); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientView(client))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	hours, err := h.clients.HoursLogged(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client":       toClientView(client),
		"hours_logged": hours.StringFixed(2),
	})
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	existing, err := h.clients.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	client, err := h.clientFromRequest(req, existing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.clients.Update(r.Context(), client); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientView(client))
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- projects ---

type projectRequest struct {
	ClientID           string  `json:"client_id"`
	Name               string  `json:"name"`
	ShortName          string  `json:"short_name"`
	HourlyRateOverride *string `json:"hourly_rate_override"`
	HourBudget         *string `json:"hour_budget"`
	IsActive           *bool   `json:"is_active"`
	IsArchived         *bool   `json:"is_archived"`
}

func (h *Handler) projectFromRequest(req projectRequest, existing *domain.Project) (*domain.Project, error) {
	p := &domain.Project{IsActive: true}
	if existing != nil {
		copied := *existing
		p = &copied
	}
	p.ClientID = req.ClientID
	p.Name = req.Name
	p.ShortName = req.ShortName
	if req.HourlyRateOverride != nil {
		rate, err := parseDecimalField(*req.HourlyRateOverride, "hourly_rate_override")
		if err != nil {
			return nil, err
		}
		p.HourlyRateOverride = &rate
	} else {
		p.HourlyRateOverride = nil
	}
	if req.HourBudget != nil {
		budget, err := parseDecimalField(*req.HourBudget, "hour_budget")
		if err != nil {
			return nil, err
		}
		p.HourBudget = &budget
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.IsArchived != nil {
		p.IsArchived = *req.IsArchived
	}
	return p, nil
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var (
		projects []*domain.Project
		err      error
	)
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		projects, err = h.projects.ListByClient(r.Context(), clientID)
	} else {
		includeArchived := r.URL.Query().Get("include_archived") == "true"
		projects, err = h.projects.List(r.Context(), includeArchived)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": views})
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	project, err := h.projectFromRequest(req, nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.projects.Create(r.Context(), project); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectView(project))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	project, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	hours, err := h.projects.HoursLogged(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project":      toProjectView(project),
		"hours_logged": hours.StringFixed(2),
	})
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	existing, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	project, err := h.projectFromRequest(req, existing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.projects.Update(r.Context(), project); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(project))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reports ---

func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := dateParam(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := dateParam(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	return from, to, nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := h.reports.Summary(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryView(report))
}

func (h *Handler) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	days, err := h.reports.DailySummary(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]dayTotalsView, 0, len(days))
	for _, d := range days {
		views = append(views, toDayTotalsView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": views})
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := timeutil.NowNaive()
	year := now.Year()
	month := now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, &domain.ValidationError{Field: "year", Reason: "must be an integer"})
			return
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			writeServiceError(w, &domain.ValidationError{Field: "month", Reason: "must be 1-12"})
			return
		}
		month = time.Month(m)
	}

	days, err := h.reports.Calendar(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]dayTotalsView, 0, len(days))
	for _, d := range days {
		views = append(views, toDayTotalsView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"days":  views,
	})
}
