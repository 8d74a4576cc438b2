package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/docs"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/swaggo/swag"
)

const (
	schemaRefPrefix   = "#/components/schemas/"
	problemMediaType  = "application/problem+json"
	sessionCookieAuth = "SessionCookie"
	sessionHeaderAuth = "SessionHeader"
)

// OpenAPIDocument is the OpenAPI 3 rendering of the registered swagger doc
type OpenAPIDocument struct {
	OpenAPI    string                   `json:"openapi"`
	Info       map[string]interface{}   `json:"info"`
	Servers    []Server                 `json:"servers"`
	Security   []map[string][]string    `json:"security"`
	Paths      map[string]interface{}   `json:"paths"`
	Components map[string]interface{}   `json:"components"`
	Tags       []map[string]interface{} `json:"tags,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// apiServers lists where the storefront API is served, rooted at basePath
func apiServers(basePath string) []Server {
	return []Server{
		{URL: "http://localhost:8080" + basePath, Description: "Local Development"},
		{URL: "https://api.lorahalle.com" + basePath, Description: "Production"},
	}
}

// securitySchemes describes how callers identify themselves. Every /api/v1
// route needs a session (cookie or header); bearer tokens are only read by
// the login route.
func securitySchemes() map[string]interface{} {
	return map[string]interface{}{
		sessionCookieAuth: map[string]interface{}{
			"type": "apiKey",
			"in":   "cookie",
			"name": middleware.SessionCookieName,
		},
		sessionHeaderAuth: map[string]interface{}{
			"type":        "apiKey",
			"in":          "header",
			"name":        middleware.SessionHeader,
			"description": "Session id for clients without cookies",
		},
		"BearerAuth": map[string]interface{}{
			"type":         "http",
			"scheme":       "bearer",
			"bearerFormat": "JWT",
			"description":  "Identity provider token, exchanged for a session user at /session/login",
		},
	}
}

// rewriteRefs points swagger 2 definition refs at OpenAPI 3 component schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", schemaRefPrefix, 1)
				continue
			}
			result[key] = rewriteRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return data
	}
}

// convertParameter turns a path, query or header parameter into its
// OpenAPI 3 form, moving type information under schema
func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = rewriteRefs(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

// formProperty is the multipart schema of a swagger 2 formData parameter
func formProperty(param map[string]interface{}) map[string]interface{} {
	prop := map[string]interface{}{"type": param["type"]}
	if param["type"] == "file" {
		prop = map[string]interface{}{"type": "string", "format": "binary"}
	}
	if desc, ok := param["description"]; ok {
		prop["description"] = desc
	}
	return prop
}

// convertOperation rewrites one swagger 2 operation. Body parameters become
// a JSON request body, formData parameters a multipart one, and responses
// gain a media type: problem+json for errors, JSON otherwise.
func convertOperation(op map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(op))
	for key, value := range op {
		switch key {
		case "parameters", "responses", "consumes", "produces":
		default:
			result[key] = rewriteRefs(value)
		}
	}

	var (
		params   []interface{}
		props    = map[string]interface{}{}
		required []interface{}
	)
	raw, _ := op["parameters"].([]interface{})
	for _, item := range raw {
		param, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			body := map[string]interface{}{
				"content": map[string]interface{}{
					echo.MIMEApplicationJSON: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
				},
			}
			if req, ok := param["required"]; ok {
				body["required"] = req
			}
			if desc, ok := param["description"]; ok {
				body["description"] = desc
			}
			result["requestBody"] = body
		case "formData":
			name, _ := param["name"].(string)
			props[name] = formProperty(param)
			if req, _ := param["required"].(bool); req {
				required = append(required, name)
			}
		default:
			params = append(params, convertParameter(param))
		}
	}
	if len(params) > 0 {
		result["parameters"] = params
	}
	if len(props) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		result["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				echo.MIMEMultipartForm: map[string]interface{}{"schema": schema},
			},
		}
	}

	responses, _ := op["responses"].(map[string]interface{})
	converted := make(map[string]interface{}, len(responses))
	for code, item := range responses {
		resp, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out := map[string]interface{}{"description": resp["description"]}
		if out["description"] == nil {
			out["description"] = http.StatusText(statusCode(code))
		}
		if schema, ok := resp["schema"]; ok {
			mediaType := echo.MIMEApplicationJSON
			if statusCode(code) >= http.StatusBadRequest {
				mediaType = problemMediaType
			}
			out["content"] = map[string]interface{}{
				mediaType: map[string]interface{}{"schema": rewriteRefs(schema)},
			}
		}
		converted[code] = out
	}
	result["responses"] = converted
	return result
}

func statusCode(code string) int {
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

// convertPaths converts every operation of every path
func convertPaths(paths map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(paths))
	for path, item := range paths {
		ops, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		converted := make(map[string]interface{}, len(ops))
		for method, op := range ops {
			if operation, ok := op.(map[string]interface{}); ok {
				converted[method] = convertOperation(operation)
			}
		}
		result[path] = converted
	}
	return result
}

// buildOpenAPIDocument renders a swagger 2 document as OpenAPI 3
func buildOpenAPIDocument(swagger2 map[string]interface{}) OpenAPIDocument {
	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})
	basePath, _ := swagger2["basePath"].(string)

	components := map[string]interface{}{"securitySchemes": securitySchemes()}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	doc := OpenAPIDocument{
		OpenAPI: "3.0.3",
		Info:    info,
		Servers: apiServers(basePath),
		Security: []map[string][]string{
			{sessionCookieAuth: {}},
			{sessionHeaderAuth: {}},
		},
		Paths:      convertPaths(paths),
		Components: components,
	}
	if tags, ok := swagger2["tags"].([]interface{}); ok {
		for _, tag := range tags {
			if t, ok := tag.(map[string]interface{}); ok {
				doc.Tags = append(doc.Tags, t)
			}
		}
	}
	return doc
}

// ServeOpenAPI serves the registered API doc as OpenAPI 3
func ServeOpenAPI(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read API doc")
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return NewInternalError(c, "Failed to parse API doc")
	}

	return c.JSON(http.StatusOK, buildOpenAPIDocument(swagger2))
}
