package supervisor

import (
	"fmt"
	"io"
)

const (
	BackendURL  = "http://localhost:5050"
	FrontendURL = "http://localhost:5173"

	backendListenAddr  = "localhost:5050"
	frontendListenAddr = "localhost:5173"
)

var endpointLines = []string{
	"  POST   /api/questions        (submit question)",
	"  GET    /api/questions        (list questions)",
	"  GET    /api/answers/:id      (get answer)",
	"  GET    /api/stream           (SSE events)",
}

// The banners are informational only, nothing checks that the children actually serve these.

func printBackendBanner(w io.Writer) {
	fmt.Fprintln(w, "Backend running at: "+BackendURL)
	fmt.Fprintln(w, "API endpoints:")
	for _, l := range endpointLines {
		fmt.Fprintln(w, l)
	}
}

func printFrontendBanner(w io.Writer) {
	fmt.Fprintln(w, "Frontend running at: "+FrontendURL)
	fmt.Fprintln(w, "API endpoints (proxied to backend):")
	for _, l := range endpointLines {
		fmt.Fprintln(w, l)
	}
}
