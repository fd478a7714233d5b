package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/idlist/accounts-api/internal/application/services"
	"github.com/idlist/accounts-api/internal/domain/entities"
	"github.com/idlist/accounts-api/internal/infrastructure/logger"
	"github.com/idlist/accounts-api/internal/ports"
)

// Response messages returned to clients
const (
	MsgReadFailed   = "Server error while reading data."
	MsgWriteFailed  = "Server error while saving data."
	MsgNotArray     = "Invalid data format. Array expected."
	MsgInvalidJSON  = "Invalid JSON in request body."
	MsgUnreadable   = "Could not read request body."
	MsgSaveComplete = "Data saved successfully on the server."
)

// AccountHandler handles the account collection endpoints
type AccountHandler struct {
	accountService ports.AccountService
	logger         *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService ports.AccountService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// GetAccounts returns the stored collection
// @Summary Get accounts
// @Description Returns the stored account collection, or an empty array when nothing has been saved
// @Tags Accounts
// @Produce json
// @Success 200 {array} object
// @Failure 500 {object} MessageResponse
// @Router /api/accounts [get]
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	result := h.accountService.Get(c.Request().Context())
	if result.Status == entities.ReadFailed {
		h.requestLogger(c).WithError(result.Err).Error("Failed to read accounts")
		return echo.NewHTTPError(http.StatusInternalServerError, MsgReadFailed).SetInternal(result.Err)
	}

	return c.JSONBlob(http.StatusOK, result.Body())
}

// ReplaceAccounts overwrites the stored collection with the request body
// @Summary Replace accounts
// @Description Replaces the whole stored account collection with the submitted array
// @Tags Accounts
// @Accept json
// @Produce json
// @Param accounts body []object true "Account collection"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /api/accounts [post]
func (h *AccountHandler) ReplaceAccounts(c echo.Context) error {
	// Only JSON bodies are parsed; anything else is treated as an empty
	// object and rejected before touching the store.
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		h.requestLogger(c).Warnw("Rejected non-JSON body", "content_type", ctype)
		return echo.NewHTTPError(http.StatusBadRequest, MsgNotArray)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// body limit middleware reports 413 through the reader
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		h.requestLogger(c).WithError(err).Warn("Failed to read request body")
		return echo.NewHTTPError(http.StatusBadRequest, MsgUnreadable).SetInternal(err)
	}

	err = h.accountService.Replace(c.Request().Context(), body)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, MessageResponse{Message: MsgSaveComplete})
	case errors.Is(err, services.ErrNotArray):
		return echo.NewHTTPError(http.StatusBadRequest, MsgNotArray)
	case errors.Is(err, services.ErrInvalidJSON):
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidJSON).SetInternal(err)
	default:
		h.requestLogger(c).WithError(err).Error("Failed to save accounts")
		return echo.NewHTTPError(http.StatusInternalServerError, MsgWriteFailed).SetInternal(err)
	}
}

func (h *AccountHandler) requestLogger(c echo.Context) *logger.Logger {
	return h.logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))
}
