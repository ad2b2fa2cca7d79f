// Package registry implements the identity and credential registries that
// sit beside the session coordinator: device records carrying keys and
// service endpoints, and verifiable-credential records issued against them.
//
// All mutation is owner-checked. A device record may only be changed by its
// controller; a credential may only be revoked by its issuer. There is no
// cross-record coordination: every operation touches a single record, so a
// plain read-write mutex over the maps is sufficient.
package registry
