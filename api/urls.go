package api

import (
	"log"
	"strings"
)

// StorageURLRewriter maps object-store URLs that reference an internal
// hostname (for example http://minio:9000, only resolvable inside the
// backend's network) to a public endpoint the client can actually reach.
// The bucket and object path are preserved as-is.
type StorageURLRewriter struct {
	internalBase string
	publicBase   string
}

func NewStorageURLRewriter(internalBase, publicBase string) *StorageURLRewriter {
	return &StorageURLRewriter{
		internalBase: strings.TrimRight(internalBase, "/"),
		publicBase:   strings.TrimRight(publicBase, "/"),
	}
}

// Rewrite returns the public form of rawURL, or rawURL unchanged when no
// public endpoint is configured or the URL does not reference the internal
// host. Unknown shapes pass through untouched rather than failing.
func (r *StorageURLRewriter) Rewrite(rawURL string) string {
	if rawURL == "" || r.publicBase == "" || r.internalBase == "" {
		return rawURL
	}
	if !strings.HasPrefix(rawURL, r.internalBase+"/") {
		return rawURL
	}
	rewritten := r.publicBase + strings.TrimPrefix(rawURL, r.internalBase)
	log.Printf("api: rewrote storage URL %s -> %s", rawURL, rewritten)
	return rewritten
}

// RewritePtr is Rewrite for optional wire fields such as fragment_url.
func (r *StorageURLRewriter) RewritePtr(rawURL *string) *string {
	if rawURL == nil {
		return nil
	}
	rewritten := r.Rewrite(*rawURL)
	return &rewritten
}
