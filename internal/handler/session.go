// internal/handler/session.go
package handler

import (
	"errors"
	"net/http"
	"time"

	"amorbot/internal/fleet"
	"amorbot/internal/helper"
	"amorbot/internal/model"
	"amorbot/internal/ws"

	"github.com/labstack/echo/v4"
)

type createSessionRequest struct {
	DisplayID    string `json:"display_id"`
	TranslatorID int64  `json:"translator_id"`
	Mode         string `json:"mode"` // "mail" or "chat"
}

type patchSessionRequest struct {
	Mode      *string `json:"mode,omitempty"`
	Connected *bool   `json:"connected,omitempty"`
}

type sentRequest struct {
	PartnerID   string `json:"partner_id"`
	PartnerName string `json:"partner_name,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Kind        string `json:"kind,omitempty"` // defaults to "mail"
	Blacklist   bool   `json:"blacklist,omitempty"`
}

// sessionView decorates a registry session with its derived proxy slot.
type sessionView struct {
	fleet.Session
	Proxy *fleet.ProxySlot `json:"proxy,omitempty"`
}

func viewOf(reg *fleet.Registry, s fleet.Session) sessionView {
	return sessionView{Session: s, Proxy: reg.ProxyFor(s.ID)}
}

// GET /api/sessions
func ListSessions(reg *fleet.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessions := reg.List()
		out := make([]sessionView, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, viewOf(reg, s))
		}
		return SuccessResponse(c, http.StatusOK, "OK", out)
	}
}

// POST /api/sessions
func CreateSession(reg *fleet.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createSessionRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if req.DisplayID == "" {
			return ErrorResponse(c, http.StatusBadRequest, "Field 'display_id' is required", "VALIDATION_ERROR", "")
		}

		s, err := reg.Add(req.DisplayID, req.TranslatorID, fleet.Mode(req.Mode))
		if err != nil {
			if errors.Is(err, fleet.ErrSessionExists) {
				return ErrorResponse(c, http.StatusConflict, "Session already exists for this profile", "SESSION_EXISTS", "")
			}
			return ErrorResponse(c, http.StatusInternalServerError, "Failed to create session", "CREATE_FAILED", err.Error())
		}

		return SuccessResponse(c, http.StatusCreated, "Session created", viewOf(reg, s))
	}
}

// GET /api/sessions/:id
func GetSession(reg *fleet.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := reg.Get(c.Param("id"))
		if err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}
		return SuccessResponse(c, http.StatusOK, "OK", viewOf(reg, s))
	}
}

// PATCH /api/sessions/:id
func UpdateSession(reg *fleet.Registry, hub ws.RealtimePublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		var req patchSessionRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}

		if req.Mode != nil {
			mode := fleet.Mode(*req.Mode)
			if mode != fleet.ModeMail && mode != fleet.ModeChat {
				return ErrorResponse(c, http.StatusBadRequest, "Mode must be 'mail' or 'chat'", "VALIDATION_ERROR", "")
			}
			if err := reg.SetMode(id, mode); err != nil {
				return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
			}
		}

		if req.Connected != nil {
			if err := reg.SetConnected(id, *req.Connected); err != nil {
				return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
			}
		}

		s, err := reg.Get(id)
		if err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		if req.Connected != nil && hub != nil {
			status := "offline"
			if s.Connected {
				status = "online"
			}
			hub.Publish(ws.WsEvent{
				Event:     ws.EventSessionStatusChanged,
				Timestamp: time.Now().UTC(),
				Data: ws.SessionStatusChangedData{
					SessionID: s.ID,
					DisplayID: s.DisplayID,
					Segment:   s.Segment,
					Status:    status,
				},
			})
		}

		return SuccessResponse(c, http.StatusOK, "Session updated", viewOf(reg, s))
	}
}

// DELETE /api/sessions/:id
func DeleteSession(reg *fleet.Registry, store *model.SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		if err := reg.Remove(id); err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		if store != nil {
			if err := store.DeleteSession(id); err != nil {
				return ErrorResponse(c, http.StatusInternalServerError, "Session removed but not deleted from DB", "DELETE_FAILED", err.Error())
			}
		}

		return SuccessResponse(c, http.StatusOK, "Session deleted", nil)
	}
}

// POST /api/sessions/:id/sent — send-completion callback from the site
// layer. Clears the pending-AI flag, records the event, and optionally
// blacklists the partner.
func SessionSent(reg *fleet.Registry, eventLog *fleet.EventLog, blacklist *fleet.Blacklist) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		var req sentRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}

		if err := reg.ClearAIUsed(id); err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		kind := fleet.EventKind(req.Kind)
		if kind == "" {
			kind = fleet.EventMail
		}
		entry := eventLog.Record(kind, id, req.PartnerID, req.PartnerName, req.Excerpt)

		if req.Blacklist && req.PartnerID != "" {
			blacklist.InsertNow(req.PartnerID)
			go persistBlacklistEntry(fleet.BlacklistEntry{
				PartnerID: req.PartnerID,
				Date:      time.Now().Format(fleet.BlacklistDateLayout),
			})
		}

		return SuccessResponse(c, http.StatusOK, "Send recorded", entry)
	}
}

// POST /api/sessions/:id/photo
func UploadSessionPhoto(reg *fleet.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		if _, err := reg.Get(id); err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Field 'photo' is required", "VALIDATION_ERROR", err.Error())
		}
		if fileHeader.Size > helper.MaxPhotoSizeBytes {
			return ErrorResponse(c, http.StatusBadRequest, "Photo too large", "FILE_TOO_LARGE", "")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return ErrorResponse(c, http.StatusInternalServerError, "Failed to read upload", "UPLOAD_FAILED", err.Error())
		}
		defer file.Close()

		data, err := helper.ProcessProfilePhoto(file, fileHeader)
		if err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Failed to process photo", "PHOTO_PROCESSING_FAILED", err.Error())
		}

		url, err := helper.SaveProfilePhoto(id, data)
		if err != nil {
			return ErrorResponse(c, http.StatusInternalServerError, "Failed to save photo", "UPLOAD_FAILED", err.Error())
		}

		if err := reg.SetPhotoURL(id, url); err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		return SuccessResponse(c, http.StatusOK, "Photo uploaded", map[string]string{"photo_url": url})
	}
}
