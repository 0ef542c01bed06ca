// Package docs registers the OpenAPI document served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o internal/docs
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
        "/accountCredential/invite": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Invite a new account",
                "parameters": [{
                    "description": "Invitation",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"type": "object", "properties": {"email": {"type": "string"}, "role": {"type": "string"}}}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"message": {"type": "string"}, "token": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"}, "expiresAt": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accountCredential/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Register with an invitation token",
                "parameters": [{
                    "description": "Registration",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"type": "object", "properties": {"token": {"type": "string"}, "firstName": {"type": "string"}, "lastName": {"type": "string"}, "username": {"type": "string"}, "password": {"type": "string"}, "gender": {"type": "string"}, "birthday": {"type": "string"}, "contactNumber": {"type": "string"}}}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"id": {"type": "integer"}, "message": {"type": "string"}, "username": {"type": "string"}, "role": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accountCredential/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Log in",
                "parameters": [{
                    "description": "Credentials",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}}}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"id": {"type": "integer"}, "username": {"type": "string"}, "role": {"type": "string"}, "token": {"type": "string"}}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accountRequests": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account-requests"],
                "summary": "Request an account",
                "parameters": [{
                    "description": "Request",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"type": "object", "properties": {"firstName": {"type": "string"}, "lastName": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"}}}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"result": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accountRequests/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["account-requests"],
                "summary": "Approve a pending request",
                "parameters": [{"type": "integer", "description": "Request ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"activationCode": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/accountRequests/activate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account-requests"],
                "summary": "Activate an approved request",
                "parameters": [{
                    "description": "Activation",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"type": "object", "properties": {"email": {"type": "string"}, "code": {"type": "string"}, "username": {"type": "string"}, "password": {"type": "string"}, "firstName": {"type": "string"}, "lastName": {"type": "string"}}}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"id": {"type": "integer"}, "message": {"type": "string"}, "username": {"type": "string"}, "role": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Careline API",
	Description:      "Care facility backend: onboarding lifecycles, resident records, inventory and messaging.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
