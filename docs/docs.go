// Package docs holds the OpenAPI description served under /swagger.
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
        "/trips": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validates the request and runs the generation pipeline. Collaborator failures degrade the trip instead of failing the request.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Trips"],
                "summary": "Create Trip",
                "parameters": [
                    {"description": "Trip request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateTripRequest"}}
                ],
                "responses": {
                    "201": {"description": "Trip created", "schema": {"$ref": "#/definitions/types.TripResult"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Trip could not be stored", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/trips/{tripID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Trips"],
                "summary": "Get Trip",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "tripID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Trip with days and activities", "schema": {"$ref": "#/definitions/types.TripTree"}},
                    "404": {"description": "Trip not found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/trips/{tripID}/chat": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Get Chat History",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "tripID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Conversation", "schema": {"$ref": "#/definitions/types.ChatHistory"}},
                    "404": {"description": "Trip not found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Send Chat Message",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "tripID", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assistant reply", "schema": {"$ref": "#/definitions/types.ChatReply"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Trip not found", "schema": {"$ref": "#/definitions/types.Response"}},
                    "429": {"description": "Chat limit reached", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/trips/{tripID}/shares": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Shares"],
                "summary": "Share Trip",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "tripID", "in": "path", "required": true},
                    {"description": "Receiver", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateShareRequest"}}
                ],
                "responses": {
                    "201": {"description": "Share created", "schema": {"$ref": "#/definitions/types.Share"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Trip not found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/shares/{shareID}/accept": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Shares"],
                "summary": "Accept Shared Trip",
                "parameters": [
                    {"type": "string", "description": "Share ID", "name": "shareID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "The caller's copy", "schema": {"$ref": "#/definitions/types.TripTree"}},
                    "403": {"description": "Share addressed to someone else", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "Share not found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        }
    },
    "definitions": {
        "types.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "types.CreateTripRequest": {
            "type": "object",
            "properties": {
                "origin": {"type": "string", "example": "Lisbon, Portugal"},
                "destination": {"type": "string", "example": "Paris, France"},
                "start_date": {"type": "string", "example": "2026-05-01"},
                "end_date": {"type": "string", "example": "2026-05-05"},
                "budget": {"type": "integer", "example": 2000},
                "traveler_profile": {"type": "string", "example": "couple"},
                "dietary": {"type": "string", "example": "vegetarian"},
                "interests": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.Activity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "position": {"type": "integer"},
                "time_of_day": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "cost": {"type": "number"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "image_url": {"type": "string"},
                "map_url": {"type": "string"}
            }
        },
        "types.TripDay": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day_number": {"type": "integer"},
                "date": {"type": "string"},
                "activities": {"type": "array", "items": {"$ref": "#/definitions/types.Activity"}}
            }
        },
        "types.Trip": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["ready", "partial"]},
                "origin": {"type": "string"},
                "destination": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "days": {"type": "integer"},
                "budget": {"type": "integer"},
                "shared": {"type": "boolean"}
            }
        },
        "types.TripTree": {
            "type": "object",
            "properties": {
                "trip": {"$ref": "#/definitions/types.Trip"},
                "days": {"type": "array", "items": {"$ref": "#/definitions/types.TripDay"}}
            }
        },
        "types.TripResult": {
            "type": "object",
            "properties": {
                "trip": {"$ref": "#/definitions/types.Trip"},
                "days": {"type": "array", "items": {"$ref": "#/definitions/types.TripDay"}},
                "degraded": {"type": "boolean"},
                "fallback_stages": {"type": "array", "items": {"type": "string"}},
                "failed_days": {"type": "integer"},
                "failed_activities": {"type": "integer"}
            }
        },
        "types.ChatRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Any vegetarian dinner ideas for day 2?"}
            }
        },
        "types.ChatReply": {
            "type": "object",
            "properties": {
                "reply": {"type": "string"},
                "turns_used": {"type": "integer"},
                "turns_remaining": {"type": "integer"},
                "locked": {"type": "boolean"},
                "fallback": {"type": "boolean"}
            }
        },
        "types.ChatMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"},
                "unavailable": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "types.ChatHistory": {
            "type": "object",
            "properties": {
                "trip_id": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}},
                "turns_used": {"type": "integer"},
                "turns_remaining": {"type": "integer"},
                "locked": {"type": "boolean"}
            }
        },
        "types.CreateShareRequest": {
            "type": "object",
            "properties": {
                "receiver_email": {"type": "string", "example": "friend@example.com"}
            }
        },
        "types.Share": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "trip_id": {"type": "string"},
                "sender_id": {"type": "string"},
                "receiver_email": {"type": "string"},
                "accepted": {"type": "boolean"},
                "cloned_trip_id": {"type": "string"},
                "created_at": {"type": "string"},
                "accepted_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trip Planner API",
	Description:      "Generates day-by-day travel itineraries, answers questions about them and lets travellers share trips.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
