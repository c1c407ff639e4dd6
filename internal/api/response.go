package api

import (
	"errors"
	"net/http"

	"celestial/internal/catalog"
	"celestial/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope — единый формат ответа: {success, data?, message?, code?}
type envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
	Code    string               `json:"code,omitempty"`
	Errors  []catalog.FieldError `json:"errors,omitempty"`
}

const serverErrorMessage = "Server error"

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func done(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, envelope{Success: false, Message: msg, Code: "NOT_FOUND"})
}

func badRequest(c *gin.Context, msg string, errs []catalog.FieldError) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: msg, Code: "VALIDATION", Errors: errs})
}

// messages — тексты ответов по коду ошибки; пустые берутся из умолчаний
type messages map[string]string

// missingRefStatus: insert-planet отвечает 400 на несуществующую звезду, остальные — 409
func fail(c *gin.Context, err error, missingRefStatus int, msgs messages) {
	code := store.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case "VALIDATION":
		status = http.StatusBadRequest
	case "NOT_FOUND", "UNKNOWN_ENTITY":
		status = http.StatusNotFound
	case "DUPLICATE_KEY":
		status = http.StatusConflict
	case "MISSING_REFERENCE":
		status = missingRefStatus
	}

	msg := msgs[code]
	if msg == "" {
		msg = defaultMessage(code)
	}
	out := envelope{Success: false, Message: msg, Code: code}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		out.Errors = ve.Fields
	}
	if status >= http.StatusInternalServerError {
		logger(c).Error("request failed", zap.String("code", code), zap.Error(err))
	} else {
		logger(c).Info("request rejected", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, out)
}

func defaultMessage(code string) string {
	switch code {
	case "VALIDATION":
		return "Missing or invalid parameters"
	case "NOT_FOUND":
		return "Record not found"
	case "UNKNOWN_ENTITY":
		return "Entity not found"
	case "DUPLICATE_KEY":
		return "Record with this key already exists."
	case "MISSING_REFERENCE":
		return "Referenced record does not exist."
	}
	// подробности только в логах
	return serverErrorMessage
}
