package main

import (
	_ "eventmanager/docs"

	"eventmanager/cmd/eventsvc/cmd"
)

// @title Event Manager API
// @version 1.0
// @description Events, attendee registration and check-in.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token from POST /token.
func main() {
	cmd.Execute()
}
