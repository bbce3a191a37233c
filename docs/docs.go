// Package docs holds the generated OpenAPI definition for the opsml
// server API.
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
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "summary": "Storage settings",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/check_uid": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Check uid existence",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/version": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Next card version",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/list": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "List cards",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/create": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Register a card",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/update": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update a card",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "summary": "Upload an artifact file",
                "responses": {
                    "200": {"description": "OK"},
                    "413": {"description": "Request Entity Too Large"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/download_model": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "summary": "Download a model artifact",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/download_file": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "summary": "Download an artifact file",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/list_files": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "List artifact files",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "opsml server API",
	Description:      "Registry and artifact storage API for versioned ML cards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
