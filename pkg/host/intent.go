package host

import (
	"fmt"
	"net/url"
	"slices"
)

// Package intent actions.
const (
	ActionPackageAdded        = "pkgwatch.intent.action.PACKAGE_ADDED"
	ActionPackageReplaced     = "pkgwatch.intent.action.PACKAGE_REPLACED"
	ActionPackageRemoved      = "pkgwatch.intent.action.PACKAGE_REMOVED"
	ActionPackageFullyRemoved = "pkgwatch.intent.action.PACKAGE_FULLY_REMOVED"
	ActionPackageChanged      = "pkgwatch.intent.action.PACKAGE_CHANGED"
)

// Boolean extras attached to package intents.
const (
	ExtraReplacing   = "pkgwatch.intent.extra.REPLACING"
	ExtraDataRemoved = "pkgwatch.intent.extra.DATA_REMOVED"
)

// SchemePackage is the data scheme of package intents.
const SchemePackage = "package"

// Intent is a single host notification.
type Intent struct {
	Action string
	Data   string
	Extras map[string]bool
}

// PackageURI returns the data URI for a package identifier. The identifier
// is path escaped so that characters such as '#' and '?' survive parsing.
func PackageURI(id string) string {
	return SchemePackage + ":" + url.PathEscape(id)
}

// Scheme returns the scheme of the data URI, or "" if there is none.
func (i Intent) Scheme() string {
	u, err := url.Parse(i.Data)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// SchemeSpecificPart returns the unescaped text after "<scheme>:" in the data
// URI, or "" when the data is absent or unparsable.
func (i Intent) SchemeSpecificPart() string {
	u, err := url.Parse(i.Data)
	if err != nil || u.Scheme == "" {
		return ""
	}
	if u.Opaque != "" {
		ssp, err := url.PathUnescape(u.Opaque)
		if err != nil {
			return u.Opaque
		}
		return ssp
	}
	// Hierarchical form such as "package://com.x".
	return u.Host + u.Path
}

// BoolExtra returns the named extra, or false when absent.
func (i Intent) BoolExtra(key string) bool {
	return i.Extras[key]
}

// String renders the intent for logs.
func (i Intent) String() string {
	return fmt.Sprintf("Intent{action=%s data=%s extras=%v}", i.Action, i.Data, i.Extras)
}

// Filter selects intents by action and data scheme. An empty Schemes list
// matches intents regardless of scheme.
type Filter struct {
	Actions []string
	Schemes []string
}

// Matches reports whether the intent passes the filter.
func (f Filter) Matches(i Intent) bool {
	if !slices.Contains(f.Actions, i.Action) {
		return false
	}
	if len(f.Schemes) == 0 {
		return true
	}
	return slices.Contains(f.Schemes, i.Scheme())
}
