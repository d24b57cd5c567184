// Package source loads the documents whose elements get captured.
//
// HTML files are used as they are. Markdown files are rendered to an HTML
// page through goldmark, wrapped in a page container and styled with one
// of the stylesheets from internal/assets. In both cases relative asset
// references are rewritten to absolute file:// URLs, because the browser
// loads the result from a temporary location.
package source
