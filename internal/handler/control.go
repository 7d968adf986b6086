// internal/handler/control.go
package handler

import (
	"net/http"
	"time"

	"amorbot/internal/fleet"
	"amorbot/internal/ws"

	"github.com/labstack/echo/v4"
)

type controlStatusView struct {
	fleet.ControlFlags
	LastCheck time.Time `json:"last_check"`
	CanSend   bool      `json:"can_send"`
	CanCycle  bool      `json:"can_cycle"`
}

// GET /api/control
func GetControlStatus(gate *fleet.ControlGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		flags, lastCheck := gate.Snapshot()
		return SuccessResponse(c, http.StatusOK, "OK", controlStatusView{
			ControlFlags: flags,
			LastCheck:    lastCheck,
			CanSend:      gate.CanAct(fleet.ActionSend),
			CanCycle:     gate.CanAct(fleet.ActionStatusChange),
		})
	}
}

// POST /api/control/refresh — force an immediate pull from the remote
// authority. A refresh failure keeps the last-known flags but is reported.
func RefreshControlStatus(gate *fleet.ControlGate, hub ws.RealtimePublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := gate.Refresh(c.Request().Context())
		flags, lastCheck := gate.Snapshot()

		if err != nil {
			return ErrorResponse(c, http.StatusBadGateway, "Control refresh failed, retaining last-known flags", "CONTROL_REFRESH_FAILED", err.Error())
		}

		if hub != nil {
			hub.Publish(ws.WsEvent{
				Event:     ws.EventControlFlagsChanged,
				Timestamp: time.Now().UTC(),
				Data: ws.ControlFlagsChangedData{
					PanicMode:      flags.PanicMode,
					StopSpam:       flags.StopSpam,
					MailingEnabled: flags.MailingEnabled,
					MachineEnabled: flags.MachineEnabled,
					LastCheck:      lastCheck,
				},
			})
		}

		return SuccessResponse(c, http.StatusOK, "Control flags refreshed", controlStatusView{
			ControlFlags: flags,
			LastCheck:    lastCheck,
			CanSend:      gate.CanAct(fleet.ActionSend),
			CanCycle:     gate.CanAct(fleet.ActionStatusChange),
		})
	}
}
