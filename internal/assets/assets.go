package assets

// DefaultStyleName is the style applied when none is configured.
const DefaultStyleName = "default"

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in style by name.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// StyleNames lists the built-in styles.
func StyleNames() []string {
	return defaultLoader.Names()
}
