/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package pom parses Maven coordinate strings and holds the small POM
// fragments the engine's version banner reports. Full POM resolution
// (archive fetching, dependency graphs) belongs to the host tooling,
// not the engine.
package pom

import (
	"fmt"
	"strings"
)

// Coordinate is a parsed Maven coordinate. The accepted grammar covers
// the forms Maven itself prints:
//
//	groupId:artifactId:version
//	groupId:artifactId:packaging:version
//	groupId:artifactId:packaging:classifier:version
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Packaging  string
	Classifier string
	Version    string
}

// ParseCoordinate parses a coordinate string, failing on anything with
// fewer than three or more than five segments or with an empty
// group/artifact/version.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Packaging: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Packaging: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, fmt.Errorf("pom: coordinate %q has %d segments, want 3 to 5", s, len(parts))
	}
	if c.GroupID == "" || c.ArtifactID == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("pom: coordinate %q has an empty group, artifact, or version", s)
	}
	return c, nil
}

// String renders the coordinate back in its canonical colon form.
func (c Coordinate) String() string {
	parts := []string{c.GroupID, c.ArtifactID}
	if c.Packaging != "" {
		parts = append(parts, c.Packaging)
	}
	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}
	parts = append(parts, c.Version)
	return strings.Join(parts, ":")
}

// Scm is the source-control fragment of a POM.
type Scm struct {
	Connection          string
	DeveloperConnection string
	Tag                 string
	URL                 string
}

// GitHubScm builds the Scm fragment for a GitHub-hosted repository.
func GitHubScm(owner, repo string) Scm {
	return Scm{
		Connection:          fmt.Sprintf("scm:git:git://github.com/%s/%s.git", owner, repo),
		DeveloperConnection: fmt.Sprintf("scm:git:ssh://github.com/%s/%s.git", owner, repo),
		Tag:                 "HEAD",
		URL:                 fmt.Sprintf("https://github.com/%s/%s", owner, repo),
	}
}

// Developer is one entry of a POM's developers list.
type Developer struct {
	ID           string
	Name         string
	Email        string
	URL          string
	Organization string
	Roles        []string
}
