package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness Check",
                "description": "Check that the data file directory is available",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Server is ready"
                    },
                    "503": {
                        "description": "Data directory unavailable"
                    }
                }
            }
        },
        "/api/accounts": {
            "get": {
                "tags": ["Accounts"],
                "summary": "Get accounts",
                "description": "Returns the stored account collection, or an empty array when nothing has been saved",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Stored collection",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "500": {
                        "description": "Read failure",
                        "schema": {
                            "$ref": "#/definitions/http.MessageResponse"
                        }
                    }
                }
            },
            "post": {
                "tags": ["Accounts"],
                "summary": "Replace accounts",
                "description": "Replaces the whole stored account collection with the submitted array",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "accounts",
                        "description": "Account collection",
                        "required": true,
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Saved",
                        "schema": {
                            "$ref": "#/definitions/http.MessageResponse"
                        }
                    },
                    "400": {
                        "description": "Body is not a JSON array",
                        "schema": {
                            "$ref": "#/definitions/http.MessageResponse"
                        }
                    },
                    "500": {
                        "description": "Write failure",
                        "schema": {
                            "$ref": "#/definitions/http.MessageResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "http.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Accounts API",
	Description:      "Reads and replaces the stored account collection",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
