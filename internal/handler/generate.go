// internal/handler/generate.go
package handler

import (
	"errors"
	"net/http"

	"amorbot/internal/fleet"

	"github.com/labstack/echo/v4"
)

type generateRequest struct {
	Action      string `json:"action"` // rewrite-improve | generate-new | custom-template
	CurrentText string `json:"current_text,omitempty"`
}

type bulkGenerateRequest struct {
	Action string `json:"action"`
}

// generateError maps the generator's failure taxonomy to distinct API
// errors: no credential, denied by gate, and network/API errors must stay
// distinguishable for the operator.
func generateError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, fleet.ErrNoCredential):
		return ErrorResponse(c, http.StatusPreconditionFailed, "AI credential not configured", "NO_CREDENTIAL", "Set GEMINI_API_KEY to enable generation")
	case errors.Is(err, fleet.ErrNoPrompt):
		return ErrorResponse(c, http.StatusPreconditionFailed, "No prompt template configured", "NO_PROMPT", "Set AI_CUSTOM_TEMPLATE to use the custom-template action")
	case errors.Is(err, fleet.ErrGateDenied):
		return ErrorResponse(c, http.StatusForbidden, "Generation denied by control gate", "GATE_DENIED", err.Error())
	case errors.Is(err, fleet.ErrEmptyDraft):
		return ErrorResponse(c, http.StatusBadRequest, "No current text to improve", "EMPTY_TEXT", "")
	case errors.Is(err, fleet.ErrBulkInProgress):
		return ErrorResponse(c, http.StatusConflict, "A bulk generation pass is already running", "BULK_IN_PROGRESS", "")
	case errors.Is(err, fleet.ErrSessionNotFound):
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
	default:
		return ErrorResponse(c, http.StatusBadGateway, "Generation failed", "GENERATION_FAILED", err.Error())
	}
}

// POST /api/sessions/:id/generate
func GenerateForSession(gen *fleet.Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req generateRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if req.Action == "" {
			return ErrorResponse(c, http.StatusBadRequest, "Field 'action' is required", "VALIDATION_ERROR", "")
		}

		text, err := gen.Generate(c.Request().Context(), c.Param("id"), fleet.GenerateAction(req.Action), req.CurrentText)
		if err != nil {
			return generateError(c, err)
		}

		return SuccessResponse(c, http.StatusOK, "Text generated", map[string]string{"text": text})
	}
}

// POST /api/generate-all — sequential fan-out over the whole fleet.
func GenerateForAll(gen *fleet.Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req bulkGenerateRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if req.Action == "" {
			return ErrorResponse(c, http.StatusBadRequest, "Field 'action' is required", "VALIDATION_ERROR", "")
		}

		report, err := gen.GenerateForAll(c.Request().Context(), fleet.GenerateAction(req.Action))
		if err != nil {
			return generateError(c, err)
		}

		return SuccessResponse(c, http.StatusOK, "Bulk generation finished", report)
	}
}
