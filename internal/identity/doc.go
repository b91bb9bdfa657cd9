// Package identity owns the client's credential bundle and the identity
// derived from it.
//
// This package manages:
//   - Loading the root certificate, client certificate, and private key
//     from the filesystem as an atomic unit
//   - Extracting the subject common name from the client certificate
//   - Serving the bundle to the connector for mutual-TLS session setup
//
// The common name is the client's identity: the connector prefixes every
// topic operation with it, so a client can only address its own namespace.
//
// # Security Considerations
//
//   - Credential load errors never include the underlying filesystem
//     error, so callers cannot probe path existence through messages
//   - Private key bytes are held in memory only; they are never logged
//     or re-serialised by this package
//
// # Usage
//
//	store := identity.NewStore()
//	if err := store.Load("ca.pem", "client.pem", "client.key"); err != nil {
//	    return err
//	}
//	fmt.Println(store.Identity()) // e.g. "sensor-7"
package identity
