// Package docs registers the OpenAPI document served at /openapi.json.
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
        "/generate": {
            "post": {
                "description": "Fetches a random cat, describes it and writes a tagline. Pipeline failures are reported with success=false and a single message.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tagline"],
                "summary": "Run the cat tagline pipeline once",
                "parameters": [
                    {
                        "description": "Optional API key, used only when deployed without a configured key",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/tagline.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tagline.GenerateResponse"}},
                    "400": {"description": "Configuration error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "409": {"description": "A run is already in progress", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/image": {
            "get": {
                "description": "Returns the most recently saved cat image.",
                "produces": ["image/jpeg"],
                "tags": ["Tagline"],
                "summary": "Current cat image",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "No image yet", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Reports deployment mode, credential availability and process stats.",
                "produces": ["application/json"],
                "tags": ["Tagline"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tagline.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "tagline.GenerateRequest": {
            "type": "object",
            "properties": {
                "api_key": {"type": "string"}
            }
        },
        "tagline.GenerateResponse": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "image_url": {"type": "string"},
                "description": {"type": "string"},
                "tagline": {"type": "string"},
                "display_tagline": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "tagline.ProcessStats": {
            "type": "object",
            "properties": {
                "pid": {"type": "integer"},
                "rss_bytes": {"type": "integer"},
                "goroutines": {"type": "integer"},
                "uptime_seconds": {"type": "number"}
            }
        },
        "tagline.StatusResponse": {
            "type": "object",
            "properties": {
                "mode": {"type": "string"},
                "credential_configured": {"type": "boolean"},
                "credential_source": {"type": "string"},
                "needs_api_key": {"type": "boolean"},
                "banner": {"type": "string"},
                "hint": {"type": "string"},
                "image_available": {"type": "boolean"},
                "progress_clients": {"type": "integer"},
                "process": {"$ref": "#/definitions/tagline.ProcessStats"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Cat Tagline API",
	Description:      "Random cat images with AI-written taglines.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
