// Package docs регистрирует описание API для swagger UI.
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
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer JWT. The /ws endpoint also accepts it as ?token=.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.loginReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Session"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "requires_password_setup"}
                }
            }
        },
        "/auth/setup-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Complete staff invitation",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.setupPasswordReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Session"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/restaurants": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["restaurants"],
                "summary": "Register restaurant with its admin",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createRestaurantReq"}}],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "restaurant": {"$ref": "#/definitions/domain.Restaurant"},
                                "owner": {"$ref": "#/definitions/domain.User"}
                            }
                        }
                    },
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/restaurants/{id}": {
            "get": {
                "tags": ["restaurants"],
                "summary": "Get restaurant",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Restaurant"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/restaurants/{id}/dishes": {
            "get": {
                "tags": ["dishes"],
                "summary": "Restaurant menu",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Dish"}}}
                }
            }
        },
        "/restaurants/{id}/gateway": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["restaurants"],
                "summary": "Configure the restaurant's own payment gateway",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.gatewayReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Restaurant"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/restaurants/{id}/staff": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["staff"],
                "summary": "Invite staff member",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.inviteStaffReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Invitation"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/restaurants/{id}/staff/{staffId}/permissions": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["staff"],
                "summary": "Replace staff tabs",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "staffId", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.staffPermissionsReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.StaffPermission"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/restaurants/{id}/staff/{staffId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["staff"],
                "summary": "Revoke staff access",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "staffId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/dishes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["dishes"],
                "summary": "Add dish to the menu",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createDishReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Dish"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/dishes/{id}": {
            "get": {
                "tags": ["dishes"],
                "summary": "Get dish by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Dish"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/dishes/{id}/price": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["dishes"],
                "summary": "Change dish price",
                "description": "Existing orders keep the price captured at checkout.",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.updatePriceReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Dish"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders": {
            "post": {
                "tags": ["orders"],
                "summary": "Create order (cash, card or UPI)",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createOrderReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "tags": ["orders"],
                "summary": "Track order by order number",
                "parameters": [{"type": "string", "description": "Order number (ORD-...)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/restaurant/my-orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Orders of the caller's restaurant",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.OrderPage"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/orders/restaurant/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Export restaurant orders to Excel",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"}
                ],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/orders/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Set order status",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.updateStatusReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/{id}/cancel": {
            "put": {
                "tags": ["orders"],
                "summary": "Cancel order (customer)",
                "parameters": [{"type": "string", "description": "Order number (ORD-...)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/{id}/payment-status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["orders"],
                "summary": "Set payment status",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.updatePaymentStatusReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/create-payment": {
            "post": {
                "tags": ["payments"],
                "summary": "Start platform-collected online payment",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createOrderReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Checkout"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/orders/verify-payment": {
            "post": {
                "tags": ["payments"],
                "summary": "Verify platform payment and place the order",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.verifyPaymentReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/orders/create-restaurant-payment": {
            "post": {
                "tags": ["payments"],
                "summary": "Start payment through the restaurant's own gateway",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createOrderReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Checkout"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/orders/verify-restaurant-payment": {
            "post": {
                "tags": ["payments"],
                "summary": "Verify restaurant gateway payment and place the order",
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.verifyPaymentReq"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "domain.OrderItem": {
            "type": "object",
            "properties": {
                "dish_id": {"type": "integer"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string"}
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "order_number": {"type": "string"},
                "restaurant_id": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.OrderItem"}},
                "customer_name": {"type": "string"},
                "customer_phone": {"type": "string"},
                "table_number": {"type": "string"},
                "total_amount": {"type": "string"},
                "payment_method": {"type": "string", "enum": ["cash", "upi", "card", "online"]},
                "payment_status": {"type": "string", "enum": ["pending", "completed", "failed"]},
                "order_status": {"type": "string", "enum": ["pending", "accepted", "preparing", "ready", "completed", "cancelled"]},
                "special_instructions": {"type": "string"},
                "estimated_time": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Restaurant": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "owner_id": {"type": "integer"},
                "gateway_key_id": {"type": "string"},
                "total_orders": {"type": "integer"},
                "total_revenue": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Dish": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "restaurant_id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "string"},
                "available": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["superadmin", "admin", "staff"]},
                "restaurant_id": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.StaffPermission": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "staff_id": {"type": "integer"},
                "restaurant_id": {"type": "integer"},
                "tabs": {"type": "array", "items": {"type": "string"}},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "service.Session": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "service.Checkout": {
            "type": "object",
            "properties": {
                "gateway_order_id": {"type": "string"},
                "amount": {"type": "integer", "description": "minor units"},
                "currency": {"type": "string"},
                "key_id": {"type": "string"},
                "total_amount": {"type": "string"},
                "flow": {"type": "string", "enum": ["platform", "restaurant"]}
            }
        },
        "service.OrderPage": {
            "type": "object",
            "properties": {
                "orders": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}},
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "pages": {"type": "integer"}
            }
        },
        "service.Invitation": {
            "type": "object",
            "properties": {
                "staff": {"$ref": "#/definitions/domain.User"},
                "permission": {"$ref": "#/definitions/domain.StaffPermission"},
                "setup_token": {"type": "string"}
            }
        },
        "httpapi.loginReq": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "httpapi.setupPasswordReq": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "password": {"type": "string"}}
        },
        "httpapi.createRestaurantReq": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "owner_email": {"type": "string"},
                "owner_name": {"type": "string"},
                "owner_password": {"type": "string"}
            }
        },
        "httpapi.gatewayReq": {
            "type": "object",
            "properties": {"key_id": {"type": "string"}, "key_secret": {"type": "string"}}
        },
        "httpapi.inviteStaffReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "tabs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "httpapi.staffPermissionsReq": {
            "type": "object",
            "properties": {
                "tabs": {"type": "array", "items": {"type": "string"}},
                "active": {"type": "boolean"}
            }
        },
        "httpapi.createDishReq": {
            "type": "object",
            "properties": {
                "restaurant_id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "string"},
                "available": {"type": "boolean"}
            }
        },
        "httpapi.updatePriceReq": {
            "type": "object",
            "properties": {"price": {"type": "string"}, "available": {"type": "boolean"}}
        },
        "httpapi.createOrderReq": {
            "type": "object",
            "properties": {
                "restaurant_id": {"type": "integer"},
                "items": {
                    "type": "array",
                    "items": {"type": "object", "properties": {"dish_id": {"type": "integer"}, "quantity": {"type": "integer"}}}
                },
                "customer_name": {"type": "string"},
                "customer_phone": {"type": "string"},
                "table_number": {"type": "string"},
                "special_instructions": {"type": "string"},
                "payment_method": {"type": "string"}
            }
        },
        "httpapi.updateStatusReq": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "estimated_time": {"type": "integer"}}
        },
        "httpapi.updatePaymentStatusReq": {
            "type": "object",
            "properties": {"payment_status": {"type": "string"}}
        },
        "httpapi.verifyPaymentReq": {
            "type": "object",
            "properties": {
                "razorpay_order_id": {"type": "string"},
                "razorpay_payment_id": {"type": "string"},
                "razorpay_signature": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "dinein API",
	Description:      "Restaurant ordering: order lifecycle, payments and live updates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
