// Package docs registers the hidream HTTP API description with swag.
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
        "/v1/generate": {
            "post": {
                "description": "Makes the requested model resident if needed and generates one image. With format=png the raw PNG is returned and the seed is in X-Seed.",
                "consumes": ["application/json"],
                "produces": ["application/json", "image/png"],
                "tags": ["generate"],
                "summary": "Generate an image",
                "parameters": [
                    {"type": "string", "description": "png for a raw image body", "name": "format", "in": "query"},
                    {"description": "generation request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/models": {
            "get": {
                "description": "Returns the model catalog and the supported resolutions.",
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List predefined models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/v1/model": {
            "put": {
                "description": "Starts loading the model in the background and returns an operation id. Poll /status.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Switch the resident model",
                "parameters": [
                    {"description": "model selection", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SwitchRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.SwitchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Waits for any in-flight generation, then releases the pipeline.",
                "tags": ["models"],
                "summary": "Unload the resident model",
                "responses": {
                    "204": {"description": "No Content"},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Orchestrator status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "fast"},
                "custom_path": {"type": "string", "example": "/models/hidream-custom"},
                "prompt": {"type": "string", "example": "A cat holding a sign that says \"Hi-Dreams.ai\"."},
                "resolution": {"type": "string", "example": "1024x1024"},
                "seed": {"type": "integer", "example": 42}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "image_base64": {"type": "string"},
                "seed": {"type": "integer", "example": 42},
                "model": {"$ref": "#/definitions/types.ModelDescriptor"},
                "resolution": {"type": "string", "example": "1024x1024"},
                "duration_ms": {"type": "integer", "example": 15230}
            }
        },
        "types.ModelDescriptor": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "example": "fast"},
                "path": {"type": "string"}
            }
        },
        "types.ModelInfo": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "example": "fast"},
                "repo": {"type": "string", "example": "azaneko/HiDream-I1-Fast-nf4"},
                "quant": {"type": "string", "example": "nf4"},
                "scheduler": {"type": "string"},
                "steps": {"type": "integer", "example": 16},
                "guidance_scale": {"type": "number"},
                "shift": {"type": "number"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelInfo"}},
                "resolutions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.SwitchRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "full"},
                "custom_path": {"type": "string"}
            }
        },
        "types.SwitchResponse": {
            "type": "object",
            "properties": {
                "op_id": {"type": "string"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer", "example": 400},
                "kind": {"type": "string", "example": "validation"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "model": {"$ref": "#/definitions/types.ModelDescriptor"},
                "loaded_at_unix": {"type": "integer"},
                "last_used_unix": {"type": "integer"},
                "queue_len": {"type": "integer"},
                "inflight": {"type": "integer"},
                "max_queue_depth": {"type": "integer"},
                "last_error": {"type": "string"},
                "last_error_kind": {"type": "string"},
                "loads_total": {"type": "integer"},
                "unloads_total": {"type": "integer"},
                "generations_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "hidream API",
	Description:      "HTTP API for HiDream-I1 text-to-image generation with a single resident model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
