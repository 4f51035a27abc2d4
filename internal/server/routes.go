package server

import (
	"net/http"

	"docintake/internal/handler"
	"docintake/internal/middleware"
)

func NewMux(
	intakeHandler *handler.IntakeHandler,
	credentialHandler *handler.CredentialHandler,
	watchHandler *handler.WatchHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Session lifecycle
	mux.HandleFunc("/v1/intakes", intakeHandler.HandleBegin)
	mux.HandleFunc("/v1/intakes/answers", intakeHandler.HandleSubmit)
	mux.HandleFunc("/v1/intakes/get", intakeHandler.HandleGet)
	mux.HandleFunc("/v1/intakes/reset", intakeHandler.HandleReset)

	// Credentials
	mux.HandleFunc("/v1/credential", credentialHandler.HandlePut)
	mux.HandleFunc("/v1/credential/validate", credentialHandler.HandleValidate)

	// Display collaborators
	mux.HandleFunc("/v1/intakes/watch", watchHandler.HandleWatch)

	// Middleware
	return middleware.CORS(mux)
}
