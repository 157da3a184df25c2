package kernel

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Role identifies one of the four package categories of a mainline release.
type Role string

// Package roles in mandatory install order: dpkg requires the headers
// installed before the modules and image that depend on them.
const (
	RoleHeadersAll  Role = "headers-all"
	RoleHeadersArch Role = "headers-arch"
	RoleModulesArch Role = "modules-arch"
	RoleImageArch   Role = "image-arch"
)

// Roles returns the package roles in install order.
func Roles() []Role {
	return []Role{RoleHeadersAll, RoleHeadersArch, RoleModulesArch, RoleImageArch}
}

// PackageSpec describes one installable package derived from a version and
// architecture. It is immutable once constructed.
type PackageSpec struct {
	// Name is the package file name, e.g. "linux-image-5.1.6-amd64.deb".
	Name string
	// Architecture is the target CPU architecture ("all" for the shared headers).
	Architecture string
	// Role is the package category.
	Role Role
	// SourceURL is where the package is downloaded from.
	SourceURL string
	// LocalPath is where the package is stored for the duration of the run.
	LocalPath string
}

// BuildPackageSet derives the package set for a release deterministically.
// It always produces exactly four specs in install order and cannot fail:
// a malformed version propagates as malformed URLs and surfaces later as
// download failures.
func BuildPackageSet(version Version, architecture, mirrorURL, downloadDir string) []PackageSpec {
	roles := Roles()
	specs := make([]PackageSpec, 0, len(roles))

	for _, role := range roles {
		name := role.fileName(version, architecture)
		specs = append(specs, PackageSpec{
			Name:         name,
			Architecture: role.packageArchitecture(architecture),
			Role:         role,
			SourceURL:    releaseURL(mirrorURL, version) + "/" + name,
			LocalPath:    filepath.Join(downloadDir, name),
		})
	}

	return specs
}

// ChecksumsURL returns the location of the mirror's checksum manifest for a release.
func ChecksumsURL(mirrorURL string, version Version) string {
	return releaseURL(mirrorURL, version) + "/CHECKSUMS"
}

// releaseURL is the mirror directory holding all packages of a release.
func releaseURL(mirrorURL string, version Version) string {
	return strings.TrimRight(mirrorURL, "/") + "/v" + version.String()
}

// fileName derives the deterministic package file name for a role.
func (r Role) fileName(version Version, architecture string) string {
	return fmt.Sprintf("linux-%s-%s-%s.deb", r.kind(), version, r.packageArchitecture(architecture))
}

// kind is the package family within the release directory.
func (r Role) kind() string {
	switch r {
	case RoleHeadersAll, RoleHeadersArch:
		return "headers"
	case RoleModulesArch:
		return "modules"
	case RoleImageArch:
		return "image"
	default:
		return string(r)
	}
}

// packageArchitecture returns the architecture designator of the package file.
// The shared headers package is architecture-independent.
func (r Role) packageArchitecture(architecture string) string {
	if r == RoleHeadersAll {
		return "all"
	}

	return architecture
}
