// Package docs registers the swagger document served under /swagger/.
// Regenerate with: swag init -g cmd/localwallet/main.go
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
        "/wallet/import": {
            "post": {
                "description": "Decrypts a Web3 Secret Storage (v3) keystore and keeps the key in memory for this process",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Import keystore",
                "parameters": [
                    {"type": "file", "description": "Keystore JSON file", "name": "keystore", "in": "formData", "required": true},
                    {"type": "string", "description": "Keystore password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ImportResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/balance": {
            "get": {
                "description": "Gets native and token balance of the imported account or of the given address",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet balance",
                "parameters": [
                    {"type": "string", "description": "Account address (defaults to the imported account)", "name": "address", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BalanceResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/send": {
            "post": {
                "description": "Sends the configured ERC-20 token and waits until the transaction is included in a block",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Send token",
                "parameters": [
                    {"description": "Transfer data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SendResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/tx": {
            "get": {
                "description": "Gets the inclusion state of a transaction by hash",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get transaction status",
                "parameters": [
                    {"type": "string", "description": "Transaction hash", "name": "hash", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TxStatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet/clear": {
            "post": {
                "description": "Wipes the imported key from memory",
                "tags": ["wallet"],
                "summary": "Forget imported key",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "detail": {"type": "string"}
            }
        },
        "model.ImportResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "chainId": {"type": "string"},
                "chainVerified": {"type": "boolean"},
                "chainMismatch": {"type": "boolean"},
                "qr": {"type": "string"}
            }
        },
        "model.TokenBalance": {
            "type": "object",
            "properties": {
                "contract": {"type": "string"},
                "symbol": {"type": "string"},
                "decimals": {"type": "integer"},
                "balance": {"type": "string"},
                "raw": {"type": "string"}
            }
        },
        "model.BalanceResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "native": {"type": "string"},
                "nativeWei": {"type": "string"},
                "token": {"$ref": "#/definitions/model.TokenBalance"},
                "currency": {"type": "string"},
                "rate": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "model.SendRequest": {
            "type": "object",
            "required": ["toAddress", "amount"],
            "properties": {
                "toAddress": {"type": "string"},
                "amount": {"type": "string"}
            }
        },
        "model.SendResponse": {
            "type": "object",
            "properties": {
                "txHash": {"type": "string"},
                "status": {"type": "string"},
                "blockNumber": {"type": "integer"},
                "gasUsed": {"type": "integer"}
            }
        },
        "model.TxStatusResponse": {
            "type": "object",
            "properties": {
                "txHash": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "SUCCESS", "FAILED"]},
                "blockNumber": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "EVM Local Wallet API",
	Description:      "Single-user local wallet: keystore import, balances and ERC-20 transfers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
