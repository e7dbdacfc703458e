package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Cronoplan API",
        "description": "Personalized study-calendar generation service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Study Plans", "description": "Study calendar generation and retrieval"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain a token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-plans/generate": {
            "post": {
                "tags": ["Study Plans"],
                "summary": "Generate a study calendar",
                "description": "Replaces any prior plan for the student. Fails with 422 and capacity diagnostics when the requested window cannot hold the selected workload.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient time", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-plans/current": {
            "get": {
                "tags": ["Study Plans"],
                "summary": "Get the current study plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Study Plans"],
                "summary": "Delete the current study plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/study-plans/current/export": {
            "get": {
                "tags": ["Study Plans"],
                "summary": "Export the current plan as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "GeneratePlanRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "name": {"type": "string"},
                "startDate": {"type": "string", "example": "2025-02-03"},
                "endDate": {"type": "string", "example": "2025-06-29"},
                "hoursPerDay": {"type": "number"},
                "daysPerWeek": {"type": "integer"},
                "vacationPeriods": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/VacationPeriod"}
                },
                "subjectIds": {"type": "array", "items": {"type": "string"}},
                "moduleIds": {"type": "array", "items": {"type": "string"}},
                "targetCourseId": {"type": "string"},
                "minPriority": {"type": "integer"},
                "excludeCompletedLessons": {"type": "boolean"},
                "playbackSpeed": {"type": "number"},
                "modality": {"type": "string", "enum": ["parallel", "sequential"]},
                "frentePreferenceOrder": {"type": "array", "items": {"type": "string"}, "description": "Frente ids or display names in the order sequential plans consume them"}
            },
            "required": ["studentId", "startDate", "endDate", "hoursPerDay", "daysPerWeek", "subjectIds", "modality"]
        },
        "VacationPeriod": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "example": "2025-04-14"},
                "end": {"type": "string", "example": "2025-04-20"}
            },
            "required": ["start", "end"]
        },
        "StudyPlan": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "modality": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "hours_per_day": {"type": "number"},
                "days_per_week": {"type": "integer"},
                "playback_speed": {"type": "number"},
                "created_at": {"type": "string"}
            }
        },
        "StudyPlanItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "study_plan_id": {"type": "string"},
                "lesson_id": {"type": "string"},
                "lesson_name": {"type": "string"},
                "subject_name": {"type": "string"},
                "frente_name": {"type": "string"},
                "week_number": {"type": "integer"},
                "order_in_week": {"type": "integer"},
                "cost_minutes": {"type": "number"}
            }
        },
        "PlanStatistics": {
            "type": "object",
            "properties": {
                "total_lessons": {"type": "integer"},
                "unscheduled_lessons": {"type": "integer"},
                "total_weeks": {"type": "integer"},
                "usable_weeks": {"type": "integer"},
                "total_capacity_minutes": {"type": "number"},
                "total_cost_minutes": {"type": "number"},
                "distinct_frentes": {"type": "integer"}
            }
        },
        "InsufficientTimeDetails": {
            "type": "object",
            "properties": {
                "hours_needed": {"type": "integer"},
                "hours_available": {"type": "integer"},
                "hours_per_day_needed": {"type": "number"},
                "hours_per_day_current": {"type": "number"}
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
