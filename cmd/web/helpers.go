package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/mac2503/e-tiet2/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (app *application) reply(w http.ResponseWriter, status int, data interface{}) {
	app.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.errorLog.Println(err)
	}
}

func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)
	app.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
}

func (app *application) clientError(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, envelope{Success: false, Message: message})
}

// replyError maps the service sentinels onto HTTP statuses. Anything not in
// the taxonomy is an internal error: logged with detail, surfaced generically.
func (app *application) replyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNoRecord):
		app.clientError(w, http.StatusNotFound, "record doesn't exist")
	case errors.Is(err, models.ErrNotAuthorised):
		app.clientError(w, http.StatusForbidden, "not authorised to perform this action")
	case errors.Is(err, models.ErrInvalidCredentials):
		app.clientError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, models.ErrPaymentFailed):
		app.clientError(w, http.StatusBadGateway, "payment failed")
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrAlreadyVerified),
		errors.Is(err, models.ErrInvalidOtp),
		errors.Is(err, models.ErrOtpExpired),
		errors.Is(err, models.ErrInvalidResetToken):
		app.clientError(w, http.StatusBadRequest, clientMessage(err))
	default:
		app.serverError(w, err)
	}
}

// clientMessage strips the internal sentinel prefix before a message is
// sent to a client.
func clientMessage(err error) string {
	return strings.TrimPrefix(err.Error(), "models: ")
}

// pathID extracts a :param route segment as an ObjectID. Reports false after
// writing a 400 when the value is not a valid id.
func (app *application) pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.URL.Query().Get(":" + name))
	if err != nil {
		app.clientError(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (app *application) authenticatedUserID(r *http.Request) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(app.session.GetString(r.Context(), "authenticatedUserID"))
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
