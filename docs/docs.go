// Package docs is generated by swag init from the annotations in
// cmd/eventsvc and internal/delivery/http/controllers. Regenerate with:
//
//	swag init -g cmd/eventsvc/main.go -o docs --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a user",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "query"},
                    {"type": "string", "description": "Password", "name": "password", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.MessageResponse"}},
                    "400": {"description": "error.code: validation_error or conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "429": {"description": "error.code: too_many_requests", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Issue an access token",
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.TokenResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "429": {"description": "error.code: too_many_requests", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/protected/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Greet the authenticated user",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.MessageSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "List events",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "upcoming, scheduled, ongoing or completed", "name": "status", "in": "query"},
                    {"type": "string", "description": "Exact location", "name": "location", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Create an event",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Event data", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.EventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Event"}},
                    "400": {"description": "error.code: bad_request or validation_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["events"],
                "summary": "Get an event",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Event"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{id}/": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Update an event",
                "description": "Replaces the descriptive fields of an event. The status is recomputed against the current time and never moves backwards.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"description": "Event data", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.EventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Event"}},
                    "400": {"description": "error.code: bad_request or validation_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/attendees/{event_id}/": {
            "get": {
                "tags": ["attendees"],
                "summary": "List attendees of an event",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "event_id", "in": "path", "required": true},
                    {"type": "string", "description": "First name contains", "name": "first_name", "in": "query"},
                    {"type": "string", "description": "Last name contains", "name": "last_name", "in": "query"},
                    {"type": "string", "description": "Email contains", "name": "email", "in": "query"},
                    {"type": "boolean", "description": "Checked in", "name": "check_in_status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Attendee"}}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "tags": ["attendees"],
                "summary": "Register an attendee for an event",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "event_id", "in": "path", "required": true},
                    {"description": "Attendee data", "name": "attendee", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.AttendeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Attendee"}},
                    "400": {"description": "error.code: validation_error or conflict (duplicate email, fully booked)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/attendees/checkin/{attendee_id}/": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendees"],
                "summary": "Check in an attendee",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Attendee ID", "name": "attendee_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.MessageResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{event_id}/bulk_checkin/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendees"],
                "summary": "Bulk check-in from CSV",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "event_id", "in": "path", "required": true},
                    {"type": "file", "description": "CSV file with an email column", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.MessageResponse"}},
                    "400": {"description": "error.code: bad_request or validation_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness and database readiness",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "data.status: ok", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "error.code: service_unavailable", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.AttendeeRequest": {
            "type": "object",
            "required": ["email", "first_name", "last_name", "phone_number"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "first_name": {"type": "string", "maxLength": 100},
                "last_name": {"type": "string", "maxLength": 100},
                "phone_number": {"type": "string", "maxLength": 20}
            }
        },
        "controllers.EventRequest": {
            "type": "object",
            "required": ["location", "name"],
            "properties": {
                "description": {"type": "string"},
                "end_time": {"type": "string", "format": "date-time"},
                "location": {"type": "string", "maxLength": 255},
                "max_attendees": {"type": "integer"},
                "name": {"type": "string", "maxLength": 255},
                "start_time": {"type": "string", "format": "date-time"}
            }
        },
        "controllers.MessageSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/helpers.MessageResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "domain.Attendee": {
            "type": "object",
            "properties": {
                "attendee_id": {"type": "integer"},
                "check_in_status": {"type": "boolean"},
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "event_id": {"type": "integer"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone_number": {"type": "string"}
            }
        },
        "domain.Event": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "end_time": {"type": "string", "format": "date-time"},
                "event_id": {"type": "integer"},
                "location": {"type": "string"},
                "max_attendees": {"type": "integer"},
                "name": {"type": "string"},
                "start_time": {"type": "string"},
                "status": {"type": "string", "enum": ["upcoming", "scheduled", "ongoing", "completed"]},
                "updated_at": {"type": "string"}
            }
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "helpers.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token from POST /token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Manager API",
	Description:      "Events, attendee registration and check-in.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
