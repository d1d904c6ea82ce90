package resolver

import (
	"context"
	"errors"
	"regexp"
)

// Asset is a share link resolved to something we can actually fetch.
type Asset struct {
	Title     string
	SizeBytes int64
	DirectURL string
	Thumbnail string
}

// ErrUnresolvable means the upstream endpoint answered but could not produce
// a direct link for this share. Distinct from transport errors so handlers
// can word the reply accordingly.
var ErrUnresolvable = errors.New("link could not be resolved")

// Resolver turns a file-hosting share link into a downloadable asset.
type Resolver interface {
	Resolve(ctx context.Context, link string) (*Asset, error)
}

// Terabox rotates mirror domains constantly; this covers the ones seen in
// the wild so far.
var linkPattern = regexp.MustCompile(
	`(?i)^https?://(?:www\.|m\.)?(?:terabox|teraboxapp|terabox-app|nephobox|mirrobox|momerybox|4funbox|tibibox|freeterabox|terasharelink|teraboxlink)\.(?:com|app|cc|co|fun|net)/(?:s/|sharing/link\?surl=|wap/share/filelist\?surl=)?[A-Za-z0-9_\-]+`,
)

// IsSupportedLink reports whether s looks like a share link we can hand to
// the resolver.
func IsSupportedLink(s string) bool {
	return linkPattern.MatchString(s)
}
