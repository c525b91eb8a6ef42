package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Document Analysis API",
        "description": "REST backend for AI-assisted document analysis",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Users", "description": "Account administration"},
        {"name": "AnalysisTypes", "description": "Analysis type catalog"},
        {"name": "Documents", "description": "Upload and analysis pipeline"},
        {"name": "TokenUsage", "description": "Billing ledger and reports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/users/{id}/reset-password": {
            "put": {
                "tags": ["Users"],
                "summary": "Reset a user's password (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetPasswordRequest"}}
                ],
                "responses": {"204": {"description": "Password reset"}}
            }
        },
        "/analysis-types": {
            "get": {
                "tags": ["AnalysisTypes"],
                "summary": "List analysis types",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["AnalysisTypes"],
                "summary": "Create analysis type (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAnalysisTypeRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/analysis-types/{id}": {
            "get": {
                "tags": ["AnalysisTypes"],
                "summary": "Get analysis type",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["AnalysisTypes"],
                "summary": "Update analysis type (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAnalysisTypeRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["AnalysisTypes"],
                "summary": "Delete analysis type (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Referenced by documents"}
                }
            }
        },
        "/documents/upload": {
            "post": {
                "tags": ["Documents"],
                "summary": "Upload documents for analysis",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "analysis_type_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Per-file outcomes"},
                    "400": {"description": "Invalid batch"}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get document detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Belongs to another user"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/token-usage": {
            "post": {
                "tags": ["TokenUsage"],
                "summary": "Record token usage (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTokenUsageRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/token-usage/stats": {
            "get": {
                "tags": ["TokenUsage"],
                "summary": "Usage report (admin)",
                "parameters": [
                    {"name": "date_range", "in": "query", "type": "string", "enum": ["7d", "30d", "90d", "all"]}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/token-usage/export": {
            "get": {
                "tags": ["TokenUsage"],
                "summary": "Export usage report (admin)",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "date_range", "in": "query", "type": "string", "enum": ["7d", "30d", "90d", "all"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File download"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "user"]}
            }
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "user"]}
            }
        },
        "ResetPasswordRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "CreateAnalysisTypeRequest": {
            "type": "object",
            "required": ["name", "ai_model", "template"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "ai_model": {"type": "string"},
                "template": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "UpdateAnalysisTypeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "ai_model": {"type": "string"},
                "template": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "CreateTokenUsageRequest": {
            "type": "object",
            "required": ["analysis_type_id", "user_id"],
            "properties": {
                "document_id": {"type": "string"},
                "analysis_type_id": {"type": "string"},
                "user_id": {"type": "string"},
                "tokens_used": {"type": "integer"},
                "cost": {"type": "number"}
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
