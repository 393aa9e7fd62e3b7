package docs

import (
	_ "embed"
	"fmt"
	"net/http"
)

// OpenAPISpec is the contract for the versioned API surface, embedded
// so the binary always serves the spec it was built against.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// GetSpecBytes returns the embedded spec for in-process validation.
func GetSpecBytes() []byte {
	return OpenAPISpec
}

// OpenAPIHandler serves the raw spec as YAML.
func OpenAPIHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(OpenAPISpec)
	})
}

// ScalarDocsHandler renders the spec at specURL with the Scalar API
// Reference viewer, loaded from its CDN.
func ScalarDocsHandler(specURL string) http.Handler {
	page := fmt.Sprintf(`<!doctype html>
<html>
  <head>
    <title>Agileboard API Reference</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; }
    </style>
  </head>
  <body>
    <script
      id="api-reference"
      data-url="%s"
      data-configuration='{"theme":"purple"}'></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>`, specURL)

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	})
}
