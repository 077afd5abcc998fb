package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Substitution API",
        "description": "Daily substitute planning: ranks cover candidates and resolves lessons left by absent staff",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Absences", "description": "Staff absences that open slots"},
        {"name": "Substitutions", "description": "Per-day planning board"}
    ],
    "paths": {
        "/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absences for a date",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Absences"],
                "summary": "Record a staff absence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown employee", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/slots": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List lessons needing cover",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/slots/{teacherId}/{period}": {
            "put": {
                "tags": ["Substitutions"],
                "summary": "Assign a substitute",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"},
                    {"$ref": "#/parameters/period"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Substitute already covers another slot in this period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Candidate not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Substitutions"],
                "summary": "Clear a slot",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"},
                    {"$ref": "#/parameters/period"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/slots/{teacherId}/{period}/candidates": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Rank substitute candidates",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"},
                    {"$ref": "#/parameters/period"},
                    {"name": "filter", "in": "query", "type": "string", "enum": ["recommended", "all"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/slots/{teacherId}/{period}/assistant": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Toggle assistant coverage",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"},
                    {"$ref": "#/parameters/period"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/slots/{teacherId}/{period}/merge": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Toggle class merge",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"},
                    {"$ref": "#/parameters/period"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MergeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/bulk": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Assign one substitute to every open slot of an absent teacher",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/auto": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Fill open slots with the best eligible candidate",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/snapshot": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Current resolution of every slot",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/save": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Persist assigned substitutes",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/reload": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Discard the in-memory board so it is rebuilt from storage",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/substitutions/{date}/export": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Download the cover sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/substitutions/{date}/pool": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List the reserve pool",
                "parameters": [
                    {"$ref": "#/parameters/date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Substitutions"],
                "summary": "Add a teacher to the reserve pool",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PoolRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Teacher has no lessons today and confirm was not set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{date}/pool/{teacherId}": {
            "delete": {
                "tags": ["Substitutions"],
                "summary": "Remove a teacher from the reserve pool",
                "parameters": [
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/teacherId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "date": {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
        "teacherId": {"name": "teacherId", "in": "path", "required": true, "type": "string"},
        "period": {"name": "period", "in": "path", "required": true, "type": "integer", "minimum": 1}
    },
    "definitions": {
        "AssignRequest": {
            "type": "object",
            "required": ["substituteId"],
            "properties": {
                "substituteId": {"type": "string"}
            }
        },
        "MergeRequest": {
            "type": "object",
            "properties": {
                "targetClassId": {"type": "string"}
            }
        },
        "BulkAssignRequest": {
            "type": "object",
            "required": ["absentTeacherId", "substituteId"],
            "properties": {
                "absentTeacherId": {"type": "string"},
                "substituteId": {"type": "string"}
            }
        },
        "PoolRequest": {
            "type": "object",
            "required": ["teacherId"],
            "properties": {
                "teacherId": {"type": "string"},
                "confirm": {"type": "boolean"}
            }
        },
        "RecordAbsenceRequest": {
            "type": "object",
            "required": ["employeeId", "date"],
            "properties": {
                "employeeId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startPeriod": {"type": "integer", "minimum": 1},
                "endPeriod": {"type": "integer", "minimum": 1}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
