package handlers

import (
	"bytes"
	"encoding/csv"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"raffle/internal/models"
	"raffle/internal/parser"
	"raffle/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// Options tunes the HTTP surface.
type Options struct {
	PostLength int
	ReadLimit  int64
	PingPeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.PostLength <= 0 {
		o.PostLength = services.DefaultPostLength
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	return o
}

// HTTPHandler holds the dependencies for the HTTP handlers, like the lottery service.
type HTTPHandler struct {
	service   *services.LotteryService
	templates *template.Template
	opts      Options
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.LotteryService, templates *template.Template, opts Options) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		templates: templates,
		opts:      opts.withDefaults(),
	}
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, pageData gin.H, contentTmpl string) {
	buf := new(bytes.Buffer)
	err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData)
	if err != nil {
		logger.Errorf("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	pageData["PageContent"] = template.HTML(buf.String())

	c.Header("Content-Type", "text/html; charset=utf-8")
	err = h.templates.ExecuteTemplate(c.Writer, "layout.html", pageData)
	if err != nil {
		logger.Errorf("Error executing layout template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}

// RegisterPublicRoutes registers routes that don't need a tenant.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRouter) {
	router.POST("/api/extract", h.ExtractHandles)
}

// RegisterTenantRoutes registers the routes that act on the caller's session.
func (h *HTTPHandler) RegisterTenantRoutes(router gin.IRouter) {
	router.GET("/", h.ShowIndex)
	router.GET("/ws", h.StreamDraw)

	api := router.Group("/api")
	api.POST("/participants/parse", h.ParseParticipants)
	api.POST("/participants", h.AddParticipant)
	api.POST("/participants/handles", h.AddHandles)
	api.DELETE("/participants/:handle", h.RemoveParticipant)
	api.POST("/participants/upload-csv", h.UploadParticipantsCSV)
	api.POST("/settings", h.UpdateSettings)
	api.DELETE("/session", h.ForgetSession)

	api.POST("/draw/start", h.StartDraw)
	api.POST("/draw/reset", h.ResetDraw)
	api.POST("/draw/redraw", h.Redraw)
	api.GET("/draw/state", h.GetState)
	api.GET("/draw/share", h.GetSharePosts)

	api.GET("/history", h.ListHistory)
	api.DELETE("/history/:id", h.RemoveHistoryEntry)
	api.DELETE("/history", h.ClearHistory)
	api.GET("/history/export.csv", h.ExportHistoryCSV)
}

// session returns the caller's raffle session.
func (h *HTTPHandler) session(c *gin.Context) *services.Session {
	return h.service.Session(c.GetString(tenantKey))
}

// ShowIndex handles the request for the raffle page.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	view := h.session(c).View()
	data := gin.H{
		"title": "Repost raffle",
		"View":  view,
	}
	h.renderPage(c, data, "index.html")
}

// ParseParticipants parses pasted repost-list text and adds what it finds.
func (h *HTTPHandler) ParseParticipants(c *gin.Context) {
	var req struct {
		Text string `json:"text" form:"text"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := h.session(c)
	added, err := sess.ParseAndAdd(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added": models.Records(added),
		"view":  sess.View(),
	})
}

// AddParticipant handles the form submission for adding a single handle.
func (h *HTTPHandler) AddParticipant(c *gin.Context) {
	var req struct {
		Handle string `json:"handle" form:"handle"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := h.session(c)
	p, err := sess.AddManualParticipant(req.Handle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added": []models.ParticipantRecord{p.Record()},
		"view":  sess.View(),
	})
}

// AddHandles adds a list of @handles, such as the text returned by
// ExtractHandles. Each handle is its own display name.
func (h *HTTPHandler) AddHandles(c *gin.Context) {
	var req struct {
		Text string `json:"text" form:"text"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := h.session(c)
	added, err := sess.AddHandles(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added": models.Records(added),
		"view":  sess.View(),
	})
}

// RemoveParticipant deletes one handle from the registry.
func (h *HTTPHandler) RemoveParticipant(c *gin.Context) {
	sess := h.session(c)
	if err := sess.RemoveParticipant(c.Param("handle")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": sess.View()})
}

// UploadParticipantsCSV handles the CSV upload for participants. Rows are
// handle[,displayName]; a leading "handle" header row is ignored.
func (h *HTTPHandler) UploadParticipantsCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("participantCSV")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing participantCSV file"})
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var parsed []models.Participant
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid CSV: " + err.Error()})
			return
		}

		handle := parser.NormalizeHandle(strings.TrimPrefix(record[0], "\ufeff"))
		if line == 1 && strings.EqualFold(handle, "handle") {
			continue
		}
		if !parser.ValidHandle(handle) {
			logger.Infof("Skipping CSV record with invalid handle: %v", record)
			continue
		}
		displayName := ""
		if len(record) > 1 {
			displayName = strings.TrimSpace(record[1])
		}
		parsed = append(parsed, models.NewParticipant(handle, displayName))
	}

	sess := h.session(c)
	added, err := sess.AddParticipants(parsed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added": models.Records(added),
		"view":  sess.View(),
	})
}

// UpdateSettings changes the event name, winner count and ranking flag.
// Fields that are absent are left alone.
func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		EventName   *string `json:"eventName"`
		WinnerCount *int    `json:"winnerCount"`
		ShowRanking *bool   `json:"showRanking"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := h.session(c)
	if req.EventName != nil {
		if err := sess.SetEventName(strings.TrimSpace(*req.EventName)); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.WinnerCount != nil {
		if err := sess.SetWinnerCount(*req.WinnerCount); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.ShowRanking != nil {
		if err := sess.SetShowRanking(*req.ShowRanking); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"view": sess.View()})
}

// ForgetSession cancels any draw, drops the caller's raffle session and
// clears the cookie so the next request starts a fresh tenant. History
// already written stays under the old tenant id.
func (h *HTTPHandler) ForgetSession(c *gin.Context) {
	h.service.ClearSession(c.GetString(tenantKey))

	cookie := sessions.Default(c)
	cookie.Clear()
	if err := cookie.Save(); err != nil {
		logger.Errorf("Failed to clear session cookie: %v", err)
	}
	c.Status(http.StatusNoContent)
}

// StartDraw starts a draw with the session's current settings.
func (h *HTTPHandler) StartDraw(c *gin.Context) {
	sess := h.session(c)
	if err := sess.StartDraw(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"view": sess.View()})
}

// ResetDraw cancels any draw and clears the participants.
func (h *HTTPHandler) ResetDraw(c *gin.Context) {
	sess := h.session(c)
	sess.Reset()
	c.JSON(http.StatusOK, gin.H{"view": sess.View()})
}

// Redraw reruns a finished draw.
func (h *HTTPHandler) Redraw(c *gin.Context) {
	sess := h.session(c)
	if err := sess.Redraw(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"view": sess.View()})
}

// GetState returns the registry, settings and draw state.
func (h *HTTPHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"view": h.session(c).View()})
}

// GetSharePosts returns announcement posts for the finished draw.
func (h *HTTPHandler) GetSharePosts(c *gin.Context) {
	posts, err := h.session(c).SharePosts(h.opts.PostLength)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ListHistory returns past draws, newest first.
func (h *HTTPHandler) ListHistory(c *gin.Context) {
	entries, err := h.session(c).History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// RemoveHistoryEntry deletes one past draw.
func (h *HTTPHandler) RemoveHistoryEntry(c *gin.Context) {
	store := h.session(c).HistoryStore()
	if store == nil {
		respondError(c, errHistoryDisabled)
		return
	}
	if err := store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory deletes every past draw of the caller.
func (h *HTTPHandler) ClearHistory(c *gin.Context) {
	store := h.session(c).HistoryStore()
	if store == nil {
		respondError(c, errHistoryDisabled)
		return
	}
	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportHistoryCSV handles the request to download past draws as a CSV
// file, one row per winner.
func (h *HTTPHandler) ExportHistoryCSV(c *gin.Context) {
	entries, err := h.session(c).History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename=raffle_history.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)

	header := []string{"Date", "Event", "Participants", "Rank", "Handle", "Display name", "Profile URL"}
	if err := w.Write(header); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}

	for _, entry := range entries {
		for i, winner := range entry.Winners {
			row := []string{
				entry.Date,
				entry.EventName,
				strconv.Itoa(entry.TotalParticipants),
				strconv.Itoa(i + 1),
				winner.Handle,
				winner.DisplayName,
				winner.ProfileURL,
			}
			if err := w.Write(row); err != nil {
				logger.Errorf("Error writing CSV row: %v", err)
				return
			}
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}

// ExtractHandles turns profile links collected from a repost list into a
// handle list that can be pasted back into the participant box.
func (h *HTTPHandler) ExtractHandles(c *gin.Context) {
	var req struct {
		Hrefs []string `json:"hrefs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	handles := parser.ExtractProfileHandles(req.Hrefs)
	c.JSON(http.StatusOK, gin.H{
		"handles": handles,
		"text":    parser.FormatHandleList(handles),
	})
}
