package constants

const (
	AuthorizationHeaderName   = "Authorization"
	ContentTypeHeaderName     = "Content-Type"
	LocationHeaderName        = "Location"
	AllowHeaderName           = "Allow"
	WWWAuthenticateHeaderName = "WWW-Authenticate"
	CorrelationIDHeaderName   = "X-Correlation-ID"

	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
	ContentTypeXML  = "application/xml"
	ContentTypeForm = "application/x-www-form-urlencoded"

	APIBasePath = "/api/v1"

	DefaultPageSize = 20
	MaxPageSize     = 100
)
