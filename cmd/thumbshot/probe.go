package main

import (
	"fmt"

	thumbshot "github.com/alnah/go-thumbshot"
)

// runProbe prints which encodings this process can produce.
func runProbe(env *Environment) {
	webp := thumbshot.WebPSupported()
	preferred := thumbshot.FormatJPEG
	if webp {
		preferred = thumbshot.FormatWebP
	}

	fmt.Fprintf(env.Stdout, "%-6s %s\n", thumbshot.FormatWebP, supported(webp))
	fmt.Fprintf(env.Stdout, "%-6s %s\n", thumbshot.FormatJPEG, supported(true))
	fmt.Fprintf(env.Stdout, "%-6s %s\n", thumbshot.FormatPNG, supported(true))
	fmt.Fprintf(env.Stdout, "\npreferred: %s\n", preferred)
}

func supported(ok bool) string {
	if ok {
		return "supported"
	}
	return "unsupported"
}
