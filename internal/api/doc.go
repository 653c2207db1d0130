// Package api provides the federation registry REST API.
//
// Every collection is served under /api/v1 with list, read, partial update
// and delete endpoints. Providers are additionally created and converged as
// a whole through POST /providers and PUT /providers/{uid}.
package api
