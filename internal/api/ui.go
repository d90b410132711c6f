package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/store"
	"github.com/Skufu/glucocheck/internal/ui"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// uiStateKey holds the serialized ui.State in the preference store.
const uiStateKey = "ui_state"

func (s *Server) loadState(c *gin.Context) (ui.State, error) {
	ctx := c.Request.Context()
	theme, err := ui.LoadTheme(ctx, s.store, owner(c))
	if err != nil {
		return ui.State{}, err
	}

	raw, err := s.store.GetPreference(ctx, owner(c), uiStateKey)
	if errors.Is(err, store.ErrNotFound) {
		return ui.NewState(theme), nil
	}
	if err != nil {
		return ui.State{}, err
	}
	state := ui.NewState(theme)
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Warn("discarding unreadable ui state", zap.String("owner", owner(c)), zap.Error(err))
		return ui.NewState(theme), nil
	}
	state.Theme = theme
	return state, nil
}

func (s *Server) saveState(c *gin.Context, state ui.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.store.SetPreference(c.Request.Context(), owner(c), uiStateKey, string(raw))
}

// updateUI applies a system action after an assessment. Failures only
// affect the stored screen state, so they are logged and dropped.
func (s *Server) updateUI(c *gin.Context, a ui.Action) {
	state, err := s.loadState(c)
	if err == nil {
		state, err = ui.Dispatch(state, a)
	}
	if err == nil {
		err = s.saveState(c, state)
	}
	if err != nil {
		s.log.Warn("update ui state", zap.String("action", string(a.Type)), zap.Error(err))
	}
}

func stateBody(state ui.State) gin.H {
	return gin.H{"state": state, "view": ui.RenderStep(state)}
}

func (s *Server) uiState(c *gin.Context) {
	state, err := s.loadState(c)
	if err != nil {
		s.internalError(c, "load ui state", err)
		return
	}
	c.JSON(http.StatusOK, stateBody(state))
}

func (s *Server) uiAction(c *gin.Context) {
	var action ui.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	state, err := s.loadState(c)
	if err != nil {
		s.internalError(c, "load ui state", err)
		return
	}

	next, err := ui.Dispatch(state, action)
	var unknown *ui.UnknownActionError
	if errors.As(err, &unknown) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_action", "message": err.Error()})
		return
	}
	if err == nil && next.Theme != state.Theme {
		if saveErr := ui.SaveTheme(c.Request.Context(), s.store, owner(c), next.Theme); saveErr != nil {
			s.internalError(c, "save theme", saveErr)
			return
		}
	}
	if saveErr := s.saveState(c, next); saveErr != nil {
		s.internalError(c, "save ui state", saveErr)
		return
	}

	body := stateBody(next)
	if err != nil {
		body["error"] = "action_rejected"
		body["message"] = next.Error
		var verr *vitals.ValidationError
		if errors.As(err, &verr) {
			body["fields"] = verr.Issues
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
