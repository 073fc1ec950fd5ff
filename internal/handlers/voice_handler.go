package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/petrioteer/swatantra.ai/internal/domains/voicesession"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/audio"
)

type VoiceHandler struct {
	sessions voicesession.Service
	logger   *Logger.Logger
}

func NewVoiceHandler(
	sessions voicesession.Service,
	logger *Logger.Logger,
) *VoiceHandler {
	return &VoiceHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// StartVoice starts a voice session for a client
// @Summary Start a voice session
// @Description Creates a session for the client and dials the upstream voice provider. The client then connects to the returned websocket URL to stream audio.
// @Tags Voice
// @Accept json
// @Produce json
// @Param request body StartVoiceRequest true "Client identity"
// @Success 201 {object} StartVoiceResponse "Session started"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 409 {object} ErrorResponse "Session already active for this client"
// @Failure 503 {object} ErrorResponse "Upstream voice service unavailable"
// @Router /voice/start [post]
func (h *VoiceHandler) StartVoice(c *gin.Context) {
	var req StartVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, voicesession.ErrAlreadyActive):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "voice session already active for this client"})
		case errors.Is(err, voicesession.ErrUpstreamUnavailable):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "voice service unavailable, try later!"})
		default:
			h.logger.Errorf("start voice error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, StartVoiceResponse{
		Status:       "started",
		ClientID:     req.ClientID,
		SessionID:    sess.ID.String(),
		WebsocketURL: "/ws/audio?client_id=" + url.QueryEscape(req.ClientID),
		InputFormat:  string(audio.FormatPCM16Mono16k),
		OutputFormat: string(audio.FormatWAV24k),
	})
}

// TerminateVoice stops a client's voice session
// @Summary Terminate a voice session
// @Description Winds the client's session down, draining queued audio within the grace period. Terminating a session that is already closing succeeds.
// @Tags Voice
// @Accept json
// @Produce json
// @Param request body TerminateVoiceRequest true "Client identity"
// @Success 200 {object} TerminateVoiceResponse "Session terminated"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 404 {object} ErrorResponse "No session for this client"
// @Router /voice/terminate [post]
func (h *VoiceHandler) TerminateVoice(c *gin.Context) {
	var req TerminateVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	if err := h.sessions.Terminate(c.Request.Context(), req.ClientID); err != nil {
		switch {
		case errors.Is(err, voicesession.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no voice session for this client"})
		default:
			h.logger.Errorf("terminate voice error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, TerminateVoiceResponse{
		Status:   "terminated",
		ClientID: req.ClientID,
	})
}

// VoiceStatus reports session state
// @Summary Voice session status
// @Description Reports one client's session when client_id is given, otherwise an aggregate view of all live sessions.
// @Tags Voice
// @Produce json
// @Param client_id query string false "Client identity"
// @Success 200 {object} VoiceStatusResponse "Session status"
// @Router /voice/status [get]
func (h *VoiceHandler) VoiceStatus(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusOK, VoiceStatsResponse{ServiceStats: h.sessions.Stats()})
		return
	}

	status, err := h.sessions.Status(clientID)
	if err != nil {
		// No session is a valid answer for a status poll.
		c.JSON(http.StatusOK, VoiceStatusResponse{ClientID: clientID, Active: false})
		return
	}

	c.JSON(http.StatusOK, VoiceStatusResponse{
		ClientID: clientID,
		Active:   status.State != voicesession.StateClosed,
		Session:  &status,
	})
}

// RegisterVoiceRoutes registers all voice-related routes
func (h *VoiceHandler) RegisterVoiceRoutes(r *gin.RouterGroup) {
	voice := r.Group("/voice")
	{
		voice.POST("/start", h.StartVoice)
		voice.POST("/terminate", h.TerminateVoice)
		voice.GET("/status", h.VoiceStatus)
	}
}
