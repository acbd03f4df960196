package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ADP Student Insights API",
        "description": "Lesson progress, monthly attendance and feedback analytics computed from student detail payloads.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "tags": [
        {"name": "Insights", "description": "Per-student lesson and attendance analytics"},
        {"name": "System", "description": "Runtime metrics"}
    ],
    "paths": {
        "/students/{id}/insights": {
            "get": {
                "tags": ["Insights"],
                "summary": "Student insight overview",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"$ref": "#/parameters/Timezone"},
                    {"$ref": "#/parameters/Now"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OverviewEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Student data source unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/progress": {
            "get": {
                "tags": ["Insights"],
                "summary": "Subject progress",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"$ref": "#/parameters/Now"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/months": {
            "get": {
                "tags": ["Insights"],
                "summary": "Months with lesson data",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"$ref": "#/parameters/Timezone"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/monthly": {
            "get": {
                "tags": ["Insights"],
                "summary": "Monthly summary",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"$ref": "#/parameters/Year"},
                    {"$ref": "#/parameters/Month"},
                    {"$ref": "#/parameters/Timezone"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MonthlyEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/monthly/export": {
            "get": {
                "tags": ["Insights"],
                "summary": "Download monthly summary",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"$ref": "#/parameters/Year"},
                    {"$ref": "#/parameters/Month"},
                    {"$ref": "#/parameters/Timezone"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File attachment", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/feedback": {
            "get": {
                "tags": ["Insights"],
                "summary": "Recent feedback",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"name": "days", "in": "query", "type": "integer", "minimum": 1, "maximum": 366},
                    {"$ref": "#/parameters/Now"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/insights/cache": {
            "delete": {
                "tags": ["Insights"],
                "summary": "Drop the cached payload for a student",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"}
                ],
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "StudentID": {"name": "id", "in": "path", "required": true, "type": "string"},
        "Timezone": {"name": "tz", "in": "query", "type": "string", "description": "IANA timezone for month boundaries"},
        "Now": {"name": "now", "in": "query", "type": "string", "format": "date-time", "description": "Evaluation instant, RFC3339"},
        "Year": {"name": "year", "in": "query", "required": true, "type": "integer", "minimum": 1970},
        "Month": {"name": "month", "in": "query", "required": true, "type": "integer", "minimum": 1, "maximum": 12}
    },
    "definitions": {
        "SubjectProgress": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "subject_name": {"type": "string"},
                "total_seconds": {"type": "integer"},
                "elapsed_seconds": {"type": "integer"},
                "lesson_count": {"type": "integer"},
                "percent_complete": {"type": "integer"},
                "color_index": {"type": "integer"},
                "color": {"type": "string"}
            }
        },
        "ClassDistributionRow": {
            "type": "object",
            "properties": {
                "class_name": {"type": "string"},
                "lesson_count": {"type": "integer"},
                "relative_load": {"type": "integer"},
                "color_index": {"type": "integer"},
                "color": {"type": "string"}
            }
        },
        "AbsenceBucket": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "total_hours": {"type": "number"}
            }
        },
        "MonthlySummary": {
            "type": "object",
            "properties": {
                "window": {"type": "object"},
                "empty": {"type": "boolean"},
                "total_hours": {"type": "number"},
                "lesson_count": {"type": "integer"},
                "lessons": {"type": "array", "items": {"type": "object"}},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/ClassDistributionRow"}},
                "absences": {
                    "type": "object",
                    "properties": {
                        "authorized": {"$ref": "#/definitions/AbsenceBucket"},
                        "unauthorized": {"$ref": "#/definitions/AbsenceBucket"}
                    }
                }
            }
        },
        "StudentOverview": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "profile": {"type": "object"},
                "generated_at": {"type": "string", "format": "date-time"},
                "progress": {"type": "array", "items": {"$ref": "#/definitions/SubjectProgress"}},
                "months": {"type": "array", "items": {"type": "object"}},
                "selected_month": {"type": "object"},
                "monthly": {"$ref": "#/definitions/MonthlySummary"},
                "recent_feedback": {"type": "array", "items": {"type": "object"}}
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
        },
        "OverviewEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StudentOverview"},
                "meta": {"type": "object"}
            }
        },
        "MonthlyEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/MonthlySummary"},
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
