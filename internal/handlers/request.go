package handlers

import (
	"net/http"
	"strconv"
)

// maxBodyBytes bounds every decoded request body.
const maxBodyBytes = 1 << 20

// queryInt reads an integer query parameter, falling back to def on
// absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

// pageParams reads the standard page/size pair.
func pageParams(r *http.Request) (page, size int) {
	return queryInt(r, "page", 1), queryInt(r, "size", 10)
}
