// Package api provides the HTTP REST surface over the session coordinator
// and the identity registries.
//
// Endpoints:
//
// Session Coordination:
//   - POST /api/sessions - Create a new control session
//   - GET /api/sessions - List all sessions
//   - GET /api/sessions/{id} - Get one session
//   - POST /api/sessions/{id}/moves - Submit a directional command
//   - POST /api/sessions/{id}/end - Close an expired session
//   - GET /api/directions - Direction code table (0..7)
//
// Identity Registry:
//   - POST /api/devices - Register a device record
//   - GET /api/devices - List device records
//   - GET /api/devices/{did} - Get one device record
//   - DELETE /api/devices/{did} - Deregister (controller only)
//   - POST /api/devices/{did}/keys - Attach a verification key
//   - DELETE /api/devices/{did}/keys/{keyId} - Detach a key
//   - POST /api/devices/{did}/services - Attach a service endpoint
//   - DELETE /api/devices/{did}/services/{serviceId} - Detach an endpoint
//
// Credential Registry:
//   - POST /api/credentials - Issue a credential
//   - GET /api/credentials/{id} - Get one credential
//   - GET /api/credentials?subject=DID - List credentials for a subject
//   - POST /api/credentials/{id}/revoke - Revoke (issuer only)
//
// Streaming:
//   - GET /ws - WebSocket notification feed; ?session=ID narrows to one
//     session, no parameter delivers everything
//
// All endpoints accept and return JSON. Errors come back as
// {"error": "message"} with the matching status code: 404 for missing
// records, 400 for malformed input and invalid directions, 409 for
// closed/expired-state conflicts, 403 for owner-check failures. Registry
// mutations identify the caller through the X-Principal header.
package api
