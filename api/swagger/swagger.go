package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vacation Calendar & Assignment API",
        "description": "Rotation calendars, seniority entitlements, absence-ceiling admission and vacation assignment for shift groups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calendar", "description": "Rotation calendar generation"},
        {"name": "Entitlements", "description": "Seniority-based vacation allowances"},
        {"name": "Ceiling", "description": "Absence ceiling evaluation"},
        {"name": "Assignment", "description": "Automatic assignment batch"},
        {"name": "Blocks", "description": "Reservation block scheduling"},
        {"name": "Reprogramming", "description": "Relocations and holiday exchanges"},
        {"name": "Employees", "description": "Roster lookups"}
    ],
    "paths": {
        "/calendars/generate": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Expand a rotation rule into a day-by-day calendar",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateCalendarRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration gap"}
                }
            }
        },
        "/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees with optional filters",
                "parameters": [
                    {"name": "groupId", "in": "query", "required": false, "type": "string"},
                    {"name": "areaId", "in": "query", "required": false, "type": "string"},
                    {"name": "active", "in": "query", "required": false, "type": "boolean"},
                    {"name": "page", "in": "query", "required": false, "type": "integer"},
                    {"name": "pageSize", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{employeeId}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Load one employee",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Employee not found"}
                }
            }
        },
        "/employees/{employeeId}/vacations": {
            "get": {
                "tags": ["Reprogramming"],
                "summary": "List an employee's vacation records within a program",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "programId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{employeeId}/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List persisted calendar days",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{employeeId}/entitlement": {
            "get": {
                "tags": ["Entitlements"],
                "summary": "Resolve the yearly vacation entitlement",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No bracket match"}
                }
            }
        },
        "/entitlements/brackets/refresh": {
            "post": {
                "tags": ["Entitlements"],
                "summary": "Reload the seniority bracket table, dropping the cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{groupId}/ceiling": {
            "get": {
                "tags": ["Ceiling"],
                "summary": "Evaluate the absence ceiling for a group on a date",
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/run": {
            "post": {
                "tags": ["Assignment"],
                "summary": "Run the automatic assignment batch",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already in progress"}
                }
            }
        },
        "/blocks": {
            "get": {
                "tags": ["Blocks"],
                "summary": "List a group's reservation blocks",
                "parameters": [
                    {"name": "groupId", "in": "query", "required": true, "type": "string"},
                    {"name": "programId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/blocks/generate": {
            "post": {
                "tags": ["Blocks"],
                "summary": "Partition a group's roster into reservation blocks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateBlocksRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Blocks already generated"}
                }
            }
        },
        "/blocks/change": {
            "post": {
                "tags": ["Blocks"],
                "summary": "Move an employee to another block",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Destination block full"}
                }
            }
        },
        "/blocks/reserve": {
            "post": {
                "tags": ["Blocks"],
                "summary": "Reserve vacation dates inside an open block window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReserveDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reprogramming": {
            "post": {
                "tags": ["Reprogramming"],
                "summary": "Submit a relocation or holiday exchange",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReprogrammingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicting open request"}
                }
            }
        },
        "/reprogramming/escalations": {
            "get": {
                "tags": ["Reprogramming"],
                "summary": "List requests pending manual review",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reprogramming/{requestId}/decision": {
            "post": {
                "tags": ["Reprogramming"],
                "summary": "Approve or reject a pending request",
                "parameters": [
                    {"name": "requestId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideReprogrammingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already decided"}
                }
            }
        }
    },
    "definitions": {
        "GenerateCalendarRequest": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "rotationStart": {"type": "string"},
                "rotationRuleId": {"type": "string"},
                "startRoleIndex": {"type": "integer"},
                "persist": {"type": "boolean"}
            },
            "required": ["employeeId", "startDate", "endDate", "rotationStart"]
        },
        "RunAssignmentRequest": {
            "type": "object",
            "properties": {
                "programId": {"type": "string"},
                "groupIds": {"type": "array", "items": {"type": "string"}},
                "areaId": {"type": "string"},
                "dryRun": {"type": "boolean"}
            },
            "required": ["programId"]
        },
        "GenerateBlocksRequest": {
            "type": "object",
            "properties": {
                "groupId": {"type": "string"},
                "programId": {"type": "string"},
                "startAt": {"type": "string"},
                "capacity": {"type": "integer"},
                "durationHours": {"type": "integer"}
            },
            "required": ["groupId", "programId", "startAt"]
        },
        "ChangeBlockRequest": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "targetBlockId": {"type": "string"},
                "motive": {"type": "string"}
            },
            "required": ["employeeId", "targetBlockId", "motive"]
        },
        "ReserveDatesRequest": {
            "type": "object",
            "properties": {
                "blockId": {"type": "string"},
                "employeeId": {"type": "string"},
                "dates": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["blockId", "employeeId", "dates"]
        },
        "SubmitReprogrammingRequest": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "kind": {"type": "string", "enum": ["REPROGRAMMING", "HOLIDAY_EXCHANGE"]},
                "originalRecordId": {"type": "string"},
                "originalDate": {"type": "string"},
                "newDate": {"type": "string"},
                "motive": {"type": "string"}
            },
            "required": ["employeeId", "kind", "newDate"]
        },
        "DecideReprogrammingRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVE", "REJECT"]},
                "reason": {"type": "string"}
            },
            "required": ["decision"]
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
