package ports

import "context"

// IdentityResolver looks up a device name out of band
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, target string) (string, error)
}
