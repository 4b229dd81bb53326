package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Hive Field Ops Backend",
    "description": "Service request lifecycle, escalation and scheduling API",
    "version": "1.0"
  },
  "basePath": "/",
  "securityDefinitions": {
    "AdminKey": {"type": "apiKey", "in": "header", "name": "X-Admin-Key"}
  },
  "paths": {
    "/healthz": {"get": {"tags": ["health"], "summary": "Store health", "responses": {"200": {"description": "ok"}, "503": {"description": "store unavailable"}}}},
    "/api/requests": {
      "get": {"tags": ["requests"], "summary": "List service requests", "parameters": [
        {"name": "status", "in": "query", "type": "string"},
        {"name": "area", "in": "query", "type": "string"},
        {"name": "q", "in": "query", "type": "string"},
        {"name": "from", "in": "query", "type": "string", "format": "date"},
        {"name": "to", "in": "query", "type": "string", "format": "date"}
      ], "responses": {"200": {"description": "items"}}},
      "post": {"tags": ["requests"], "summary": "Submit a service request", "security": [{"AdminKey": []}], "responses": {"201": {"description": "created"}, "400": {"description": "validation error"}}}
    },
    "/api/requests/stats": {"get": {"tags": ["reports"], "summary": "Request counts per status and escalation band", "responses": {"200": {"description": "stats"}}}},
    "/api/requests/escalations": {"get": {"tags": ["reports"], "summary": "Pending requests by elapsed time", "responses": {"200": {"description": "report"}}}},
    "/api/requests/{id}": {
      "get": {"tags": ["requests"], "summary": "Request details", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "detail"}, "404": {"description": "not found"}}},
      "patch": {"tags": ["requests"], "summary": "Edit mutable request fields", "security": [{"AdminKey": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "updated"}, "409": {"description": "immutable state"}}}
    },
    "/api/requests/{id}/events/{event}": {"post": {"tags": ["requests"], "summary": "Apply a lifecycle event", "security": [{"AdminKey": []}], "parameters": [
      {"name": "id", "in": "path", "required": true, "type": "string"},
      {"name": "event", "in": "path", "required": true, "type": "string", "enum": ["mark-urgent", "delegate", "manager-accepts", "manager-refuses", "redesignate", "approve", "start", "complete", "cancel", "reject"]}
    ], "responses": {"200": {"description": "transitioned"}, "409": {"description": "invalid transition or stale version"}}}},
    "/api/requests/{id}/available-dates": {"post": {"tags": ["requests"], "summary": "Add a client availability date", "security": [{"AdminKey": []}], "responses": {"200": {"description": "updated"}}}},
    "/api/requests/{id}/available-dates/{date}": {"delete": {"tags": ["requests"], "summary": "Remove a client availability date", "security": [{"AdminKey": []}], "responses": {"200": {"description": "updated"}}}},
    "/api/requests/{id}/manager-suggestions": {"get": {"tags": ["reports"], "summary": "Suggest a manager for delegation", "responses": {"200": {"description": "suggestion"}}}},
    "/api/requests/{id}/invoice": {
      "post": {"tags": ["invoices"], "summary": "Create the invoice of a completed request", "security": [{"AdminKey": []}], "responses": {"201": {"description": "created"}, "409": {"description": "illegal state"}}},
      "put": {"tags": ["invoices"], "summary": "Replace invoice data", "security": [{"AdminKey": []}], "responses": {"200": {"description": "updated"}}},
      "delete": {"tags": ["invoices"], "summary": "Delete the invoice", "security": [{"AdminKey": []}], "responses": {"200": {"description": "deleted"}}}
    },
    "/api/requests/{id}/invoice/visibility": {"post": {"tags": ["invoices"], "summary": "Toggle invoice visibility to the client", "security": [{"AdminKey": []}], "responses": {"200": {"description": "updated"}}}},
    "/api/requests/{id}/invoice/client": {"get": {"tags": ["invoices"], "summary": "Invoice as seen by the client", "responses": {"200": {"description": "invoice"}, "404": {"description": "absent or hidden"}}}},
    "/api/requests/{id}/photos": {"post": {"tags": ["invoices"], "summary": "Attach before/after photo references", "security": [{"AdminKey": []}], "responses": {"200": {"description": "updated"}}}},
    "/api/managers": {"get": {"tags": ["reports"], "summary": "Managers least loaded first", "responses": {"200": {"description": "items"}}}},
    "/api/calendar": {"get": {"tags": ["calendar"], "summary": "Calendar view", "parameters": [
      {"name": "view", "in": "query", "type": "string", "enum": ["daily", "weekly", "monthly"]},
      {"name": "date", "in": "query", "type": "string", "format": "date"},
      {"name": "owner", "in": "query", "type": "string"}
    ], "responses": {"200": {"description": "view"}}}},
    "/api/calendar.ics": {"get": {"tags": ["calendar"], "summary": "Calendar view as iCalendar", "produces": ["text/calendar"], "responses": {"200": {"description": "feed"}}}},
    "/api/events": {"post": {"tags": ["calendar"], "summary": "Create a personal calendar event", "security": [{"AdminKey": []}], "responses": {"201": {"description": "created"}, "409": {"description": "schedule conflict"}}}},
    "/api/events/{id}/conflicts": {"get": {"tags": ["calendar"], "summary": "List entries overlapping a personal calendar event", "security": [{"AdminKey": []}], "responses": {"200": {"description": "overlapping entries"}, "404": {"description": "not found"}}}},
    "/api/events/{id}": {"delete": {"tags": ["calendar"], "summary": "Delete a personal calendar event", "security": [{"AdminKey": []}], "responses": {"204": {"description": "deleted"}, "404": {"description": "not found"}}}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
