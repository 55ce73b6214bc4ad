package control

import (
	"github.com/gin-gonic/gin"

	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
	"github.com/aannaassalam/coachiatry-sub001/pkg/response"
)

// ChannelStatus reports the realtime channel of the current identity.
type ChannelStatus interface {
	State() (realtime.State, string)
}

// UploadRegistry tracks and cancels the uploads of outgoing messages.
type UploadRegistry interface {
	Has(tempID string) bool
	Cancel(tempID string) bool
}

// ChannelResponse is the body of GET /api/v1/channel.
type ChannelResponse struct {
	State  realtime.State `json:"state"`
	UserID string         `json:"userId,omitempty"`
}

// UploadResponse is the body of GET /api/v1/uploads/:tempId.
type UploadResponse struct {
	TempID string `json:"tempId"`
	Active bool   `json:"active"`
}

// CancelResponse is the body of a successful cancel.
type CancelResponse struct {
	TempID   string `json:"tempId"`
	Canceled bool   `json:"canceled"`
}

type HTTPHandler struct {
	channel ChannelStatus
	uploads UploadRegistry
}

func NewHTTPHandler(channel ChannelStatus, uploads UploadRegistry) *HTTPHandler {
	return &HTTPHandler{
		channel: channel,
		uploads: uploads,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/channel", h.GetChannel)
		api.GET("/uploads/:tempId", h.GetUpload)
		api.POST("/uploads/:tempId/cancel", h.CancelUpload)
	}

	r.GET("/health", h.HealthCheck)
}

func (h *HTTPHandler) GetChannel(c *gin.Context) {
	state, userID := h.channel.State()
	response.Success(c, ChannelResponse{State: state, UserID: userID})
}

func (h *HTTPHandler) GetUpload(c *gin.Context) {
	tempID := c.Param("tempId")
	if !h.uploads.Has(tempID) {
		response.NotFound(c, "no uploads registered for "+tempID)
		return
	}
	response.Success(c, UploadResponse{TempID: tempID, Active: true})
}

func (h *HTTPHandler) CancelUpload(c *gin.Context) {
	tempID := c.Param("tempId")
	if !h.uploads.Cancel(tempID) {
		response.NotFound(c, "no uploads registered for "+tempID)
		return
	}

	l := pkglog.Ctx(pkglog.WithStr(c.Request.Context(), pkglog.FieldTempID, tempID))
	l.Info().Msg("uploads canceled")
	response.Accepted(c, CancelResponse{TempID: tempID, Canceled: true})
}

// HealthCheck reports 503 while a signed-in client has lost its channel.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	if state, userID := h.channel.State(); userID != "" && state == realtime.StateDisconnected {
		response.Unavailable(c, "realtime channel disconnected")
		return
	}
	response.Success(c, gin.H{"status": "healthy"})
}
