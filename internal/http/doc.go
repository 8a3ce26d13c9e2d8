// Package http provides the HTTP client used to reach the face runtime.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - JSON request/response round trips
//
// # Basic Usage
//
//	client := http.NewClient(2 * time.Minute)
//
//	// Probe a service
//	body, err := client.Get(ctx, "http://127.0.0.1:7870/health")
//
//	// POST a JSON request and decode the JSON response
//	var resp detectResponse
//	err = client.PostJSON(ctx, "http://127.0.0.1:7870/detect", req, &resp)
package http
