package chrome

// Scripts evaluated in the page. Functions run with `this` bound to the
// element they are called on. Results with several fields are returned as
// JSON strings and decoded on the Go side.
const (
	jsInlineStyle = `(name) => JSON.stringify({
		value: this.style.getPropertyValue(name),
		priority: this.style.getPropertyPriority(name)
	})`

	jsSetInlineStyle = `(name, value, priority) => {
		this.style.setProperty(name, value, priority);
	}`

	jsRemoveInlineStyle = `(name) => { this.style.removeProperty(name); }`

	jsAttribute = `(name) => JSON.stringify({
		present: this.hasAttribute(name),
		value: this.getAttribute(name) || ""
	})`

	jsSetAttribute = `(name, value) => { this.setAttribute(name, value); }`

	jsRemoveAttribute = `(name) => { this.removeAttribute(name); }`

	jsComputedTransform = `() => getComputedStyle(this).transform || "none"`

	jsTransformedDescendants = `() => Array.from(this.querySelectorAll("*")).filter((n) => {
		const t = getComputedStyle(n).transform;
		return t && t !== "none";
	})`

	jsLayoutSize = `() => {
		let w = this.offsetWidth, h = this.offsetHeight;
		if (w === undefined) {
			const r = this.getBoundingClientRect();
			w = r.width; h = r.height;
		}
		return JSON.stringify({width: Math.round(w), height: Math.round(h)});
	}`

	jsClone = `() => this.cloneNode(true)`

	jsAppendChild = `(child) => { this.appendChild(child); }`

	jsBefore = `(node) => { this.before(node); }`

	jsRemove = `() => { this.remove(); }`

	jsCreateElement = `(tag) => document.createElement(tag)`

	jsBody = `() => document.body`

	jsScrollOffset = `() => JSON.stringify({x: window.scrollX, y: window.scrollY})`

	jsScrollTo = `(x, y) => { window.scrollTo(x, y); }`

	// jsWaitAssets resolves once every image under the element settled and
	// the page fonts are ready.
	jsWaitAssets = `async () => {
		const imgs = Array.from(this.querySelectorAll("img"));
		if (this.tagName === "IMG") imgs.push(this);
		await Promise.all(imgs.filter((i) => !i.complete).map((i) => new Promise((resolve) => {
			i.addEventListener("load", resolve, {once: true});
			i.addEventListener("error", resolve, {once: true});
		})));
		if (document.fonts && document.fonts.ready) await document.fonts.ready;
	}`

	// jsBrokenImages lists sources of images that failed to decode.
	jsBrokenImages = `() => {
		const imgs = Array.from(this.querySelectorAll("img"));
		if (this.tagName === "IMG") imgs.push(this);
		return JSON.stringify(imgs
			.filter((i) => i.complete && (i.currentSrc || i.src) && i.naturalWidth === 0)
			.map((i) => i.currentSrc || i.src));
	}`

	// jsBrokenDocumentImages is jsBrokenImages for a whole document.
	jsBrokenDocumentImages = `() => JSON.stringify(Array.from(document.images)
		.filter((i) => i.complete && (i.currentSrc || i.src) && i.naturalWidth === 0)
		.map((i) => i.currentSrc || i.src))`

	// jsSerialize captures what the render tab needs to reproduce the
	// subtree: its markup, the page stylesheets and the root element state.
	jsSerialize = `() => JSON.stringify({
		html: this.outerHTML,
		styles: Array.from(document.querySelectorAll("style, link[rel~='stylesheet']")).map((n) => n.outerHTML),
		base: document.baseURI,
		htmlClass: document.documentElement.className,
		htmlStyle: document.documentElement.getAttribute("style") || "",
		bodyClass: document.body ? document.body.className : "",
		bodyStyle: document.body ? (document.body.getAttribute("style") || "") : ""
	})`

	// jsWaitDocument is jsWaitAssets for a whole document.
	jsWaitDocument = `async () => {
		await Promise.all(Array.from(document.images).filter((i) => !i.complete).map((i) => new Promise((resolve) => {
			i.addEventListener("load", resolve, {once: true});
			i.addEventListener("error", resolve, {once: true});
		})));
		if (document.fonts && document.fonts.ready) await document.fonts.ready;
	}`
)
