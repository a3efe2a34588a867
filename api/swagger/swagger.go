package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Conflict detection, validation, bulk scheduling and repair for class and exam timetables",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Timetable engine operations"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/timetable/conflicts/detect": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Detect timetable conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DetectConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/sessions/validate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Validate a candidate session against the schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/schedule": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Bulk-schedule work items into a proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Proposal stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/proposals/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a stored schedule proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Proposal expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/proposals/{id}/commit": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Persist a schedule proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal conflicts with the current timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Proposal expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/conflicts/resolve": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Repair one timetable conflict",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveConflictRequest"}}
                ],
                "responses": {
                    "200": {"description": "Repaired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible repair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/conflicts/resolve-all": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Repair conflicts iteratively",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveAllRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/export/sessions": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Export sessions as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportSessionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/api/v1/timetable/export/conflicts": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Export detected conflicts as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DetectConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        }
    },
    "definitions": {
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string", "example": "MONDAY"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "11:00"},
                "unit_code": {"type": "string"},
                "teaching_mode": {"type": "string", "enum": ["physical", "online"]},
                "venue": {"type": "string"},
                "lecturer": {"type": "string"},
                "chief_invigilator": {"type": "string"},
                "class_id": {"type": "string"},
                "group_id": {"type": "string"},
                "headcount": {"type": "integer"}
            }
        },
        "Room": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "capacity": {"type": "integer"}
            }
        },
        "TimeSlot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            }
        },
        "WorkItem": {
            "type": "object",
            "required": ["class_id", "unit_id"],
            "properties": {
                "class_id": {"type": "string"},
                "group_id": {"type": "string"},
                "unit_id": {"type": "string"},
                "unit_code": {"type": "string"},
                "lecturer": {"type": "string"},
                "headcount": {"type": "integer"},
                "teaching_mode": {"type": "string", "enum": ["physical", "online"]}
            }
        },
        "ConstraintConfig": {
            "type": "object",
            "properties": {
                "max_physical_per_day": {"type": "integer"},
                "max_online_per_day": {"type": "integer"},
                "min_hours_per_day": {"type": "number"},
                "max_hours_per_day": {"type": "number"},
                "require_mixed_mode": {"type": "boolean"},
                "avoid_consecutive_slots": {"type": "boolean"},
                "minimum_rest_minutes": {"type": "integer"},
                "allow_back_to_back": {"type": "boolean"},
                "honor_explicit_mode": {"type": "boolean"}
            }
        },
        "SessionScope": {
            "type": "object",
            "properties": {
                "semester_id": {"type": "string"},
                "program_id": {"type": "string"},
                "school_id": {"type": "string"},
                "variant": {"type": "string"}
            }
        },
        "DetectConflictsRequest": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"},
                "variant": {"type": "string", "enum": ["class", "exam"]},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "config": {"$ref": "#/definitions/ConstraintConfig"}
            }
        },
        "ValidateSessionRequest": {
            "type": "object",
            "properties": {
                "candidate": {"$ref": "#/definitions/Session"},
                "existing": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"},
                "excludeId": {"type": "string"},
                "variant": {"type": "string", "enum": ["class", "exam"]},
                "config": {"$ref": "#/definitions/ConstraintConfig"}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["workItems"],
            "properties": {
                "workItems": {"type": "array", "items": {"$ref": "#/definitions/WorkItem"}},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "selectedClassrooms": {"type": "array", "items": {"type": "string"}},
                "existing": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"},
                "strategy": {"type": "string", "enum": ["balanced", "round_robin", "random"]},
                "seed": {"type": "integer"},
                "variant": {"type": "string", "enum": ["class", "exam"]},
                "config": {"$ref": "#/definitions/ConstraintConfig"}
            }
        },
        "ResolveConflictRequest": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "anchor": {"type": "string", "enum": ["anchor_first", "anchor_last"]},
                "conflictIndex": {"type": "integer"},
                "persist": {"type": "boolean"}
            }
        },
        "ResolveAllRequest": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "anchor": {"type": "string", "enum": ["anchor_first", "anchor_last"]},
                "maxIterations": {"type": "integer"},
                "persist": {"type": "boolean"}
            }
        },
        "ExportSessionsRequest": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "scope": {"$ref": "#/definitions/SessionScope"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
