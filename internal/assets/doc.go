// Package assets provides the stylesheets applied to documents rendered for
// capture.
//
// # Loader Architecture
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles compiled into the binary
//	    ├── FilesystemLoader  - styles from a directory on disk
//	    └── StyleResolver     - custom first, embedded fallback
//
// A custom directory holds one file per style:
//
//	{basePath}/
//	└── styles/
//	    └── {name}.css
//
// Style names are validated before any lookup, and FilesystemLoader
// resolves symlinks so a style can never be read from outside basePath.
package assets
