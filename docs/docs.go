// Package docs registers the OpenAPI document of the books catalog api.
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
        "/book": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "Create a book",
                "parameters": [
                    {
                        "description": "book fields",
                        "name": "book",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BookUpdate"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/book/list": {
            "get": {
                "description": "Lists the books matching every provided filter. Author and title accept ` + "`" + `?` + "`" + ` and ` + "`" + `*` + "`" + ` wildcards.",
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "List books",
                "parameters": [
                    {"type": "string", "description": "author or author pattern", "name": "author", "in": "query"},
                    {"type": "string", "description": "title or title pattern", "name": "title", "in": "query"},
                    {"type": "string", "description": "published strictly after", "name": "published_date_from", "in": "query"},
                    {"type": "string", "description": "published strictly before", "name": "published_date_to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Book"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/book/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "Find a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "put": {
                "description": "Overwrites only the provided fields.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "Update a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true},
                    {
                        "description": "fields to change",
                        "name": "book",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BookUpdate"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "Delete a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "requestid": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Book": {
            "type": "object",
            "properties": {
                "author": {"type": "string", "maxLength": 1024},
                "id": {"type": "integer"},
                "published_date": {"type": "string", "example": "2006-01-02"},
                "title": {"type": "string", "maxLength": 1024}
            }
        },
        "BookUpdate": {
            "type": "object",
            "properties": {
                "author": {"type": "string", "maxLength": 1024},
                "published_date": {"type": "string", "example": "2006-01-02"},
                "title": {"type": "string", "maxLength": 1024}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "RESTful Web Service",
	Description:      "This is a very simple RESTful Web Service",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
