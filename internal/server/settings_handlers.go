package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "displayd/internal/api"
	"displayd/internal/displaydevice"
	"displayd/internal/runtime/commands"
)

func (s *Server) handleApply(c *gin.Context) {
	var wire apitypes.ApplyRequest
	if err := c.ShouldBindJSON(&wire); err != nil {
		c.JSON(http.StatusBadRequest, apitypes.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := s.validator.Struct(wire); err != nil {
		c.JSON(http.StatusBadRequest, apitypes.ErrorResponse{Error: err.Error()})
		return
	}
	req, err := wire.ToCore()
	if err != nil {
		c.JSON(http.StatusBadRequest, apitypes.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := s.dispatcher.Dispatch(c.Request.Context(), commands.ApplyCommand{Request: req})
	if err != nil {
		c.JSON(http.StatusInternalServerError, apitypes.ErrorResponse{Error: err.Error()})
		return
	}
	applyResp := resp.(commands.ApplyResponse)
	if applyResp.Err != nil {
		c.JSON(httpStatusForResult(applyResp.Result), apitypes.ErrorResponse{Error: applyResp.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, apitypes.ResultToResponse(applyResp.Result))
}

func (s *Server) handleRevert(c *gin.Context) {
	resp, err := s.dispatcher.Dispatch(c.Request.Context(), commands.RevertCommand{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, apitypes.ErrorResponse{Error: err.Error()})
		return
	}
	revertResp := resp.(commands.RevertResponse)
	c.JSON(http.StatusOK, apitypes.RevertResponse{Success: revertResp.Success})
}

func (s *Server) handleResetPersistence(c *gin.Context) {
	resp, err := s.dispatcher.Dispatch(c.Request.Context(), commands.ResetCommand{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, apitypes.ErrorResponse{Error: err.Error()})
		return
	}
	resetResp := resp.(commands.ResetResponse)
	c.JSON(http.StatusOK, apitypes.ResetResponse{Success: resetResp.Success})
}

func (s *Server) handleDevices(c *gin.Context) {
	devices := s.api.EnumAvailableDevices()
	c.JSON(http.StatusOK, apitypes.FromEnumeratedDevices(devices))
}

func (s *Server) handleHealthz(c *gin.Context) {
	snapshot := s.health.Snapshot()
	overall := s.health.Overall()
	status := http.StatusOK
	if overall > 0 {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall.String(), "components": snapshot})
}

func httpStatusForResult(r displaydevice.Result) int {
	switch r {
	case displaydevice.ResultOK:
		return http.StatusOK
	case displaydevice.ResultInvalidRequest:
		return http.StatusBadRequest
	case displaydevice.ResultApiTemporarilyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
